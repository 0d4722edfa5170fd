// services/timeclock/status.go
package timeclock

import "github.com/smena/smena_backend/internal/models"

// Status — текущее состояние сотрудника по смене. Не хранится в БД:
// всегда выводится из четырёх опциональных отметок табеля.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusActive    Status = "ACTIVE"
	StatusOnBreak   Status = "ON_BREAK"
	StatusCompleted Status = "COMPLETED"
)

// DeriveStatus — чистая функция от табеля, ничего не мутирует.
// nil-табель означает, что смена ещё не начата.
func DeriveStatus(ts *models.Timesheet) Status {
	if ts == nil || ts.ClockInTime == nil {
		return StatusScheduled
	}
	if ts.ClockOutTime != nil {
		return StatusCompleted
	}
	if ts.StartBreakTime != nil && ts.EndBreakTime == nil {
		return StatusOnBreak
	}
	return StatusActive
}
