// services/scheduling/conflict.go
package scheduling

import (
	"context"
	"time"

	"github.com/smena/smena_backend/internal/models"
)

// ShiftFinder — минимальный доступ к сменам для проверки конфликтов.
type ShiftFinder interface {
	FindShiftsForUser(ctx context.Context, workspaceID, userID int) ([]models.Shift, error)
}

// Overlaps — строгое пересечение полуоткрытых интервалов [start, end).
// Стык end == start пересечением не считается.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// ConflictChecker проверяет инвариант "у сотрудника нет двух
// пересекающихся смен в одном рабочем пространстве".
//
// Проверка здесь — быстрый отказ, а не гарантия: под гонкой двух
// запросов её перекрывает EXCLUDE-ограничение в схеме БД.
type ConflictChecker struct {
	Shifts ShiftFinder
}

func NewConflictChecker(shifts ShiftFinder) *ConflictChecker {
	return &ConflictChecker{Shifts: shifts}
}

// HasConflict сообщает, пересекается ли кандидат [start, end) с
// существующими сменами сотрудника. excludeShiftIDs позволяет
// редактированию игнорировать собственную смену, а обмену — обе
// обмениваемые.
func (c *ConflictChecker) HasConflict(ctx context.Context, workspaceID, userID int, start, end time.Time, excludeShiftIDs ...int) (bool, error) {
	existing, err := c.Shifts.FindShiftsForUser(ctx, workspaceID, userID)
	if err != nil {
		return false, err
	}

	for _, shift := range existing {
		if excluded(shift.ID, excludeShiftIDs) {
			continue
		}
		if Overlaps(shift.StartTime, shift.EndTime, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func excluded(id int, excludeIDs []int) bool {
	for _, ex := range excludeIDs {
		if id == ex {
			return true
		}
	}
	return false
}
