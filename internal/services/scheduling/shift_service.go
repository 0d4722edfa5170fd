// services/scheduling/shift_service.go
package scheduling

import (
	"context"
	"time"

	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/pkg/apperrors"
	"github.com/smena/smena_backend/internal/services/events"
)

// ShiftStore — запись смен. CreateShift/UpdateShift обязаны
// транслировать нарушение EXCLUDE-ограничения БД в ConflictError.
type ShiftStore interface {
	ShiftFinder
	GetShift(ctx context.Context, id int) (*models.Shift, error)
	CreateShift(ctx context.Context, shift *models.Shift) error
	UpdateShift(ctx context.Context, shift *models.Shift) error
	DeleteShift(ctx context.Context, id int) error
}

type Publisher interface {
	PublishToWorkspace(workspaceID int, event events.Event)
}

// ShiftInput — параметры создания/правки смены.
type ShiftInput struct {
	WorkspaceID          int       `json:"workspace_id"`
	UserID               int       `json:"user_id"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	BreakDurationMinutes int       `json:"break_duration_minutes"`
}

// ShiftService выполняет команды планирования: проверка конфликтов,
// запись, событие shift-updated в пространство смены.
type ShiftService struct {
	Shifts  ShiftStore
	Checker *ConflictChecker
	Bus     Publisher
}

func NewShiftService(shifts ShiftStore, bus Publisher) *ShiftService {
	return &ShiftService{
		Shifts:  shifts,
		Checker: NewConflictChecker(shifts),
		Bus:     bus,
	}
}

// Schedule создаёт смену, если интервал корректен и не конфликтует.
func (s *ShiftService) Schedule(ctx context.Context, in ShiftInput) (*models.Shift, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	conflict, err := s.Checker.HasConflict(ctx, in.WorkspaceID, in.UserID, in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, apperrors.NewConflict("user %d already has a shift overlapping %s — %s",
			in.UserID, in.StartTime.Format(time.RFC3339), in.EndTime.Format(time.RFC3339))
	}

	shift := &models.Shift{
		WorkspaceID:          in.WorkspaceID,
		UserID:               in.UserID,
		StartTime:            in.StartTime,
		EndTime:              in.EndTime,
		BreakDurationMinutes: in.BreakDurationMinutes,
	}
	if err := s.Shifts.CreateShift(ctx, shift); err != nil {
		return nil, err
	}

	s.publishUpdated(shift)
	return shift, nil
}

// Edit меняет время/владельца смены. Собственный интервал смены при
// проверке конфликтов исключается.
func (s *ShiftService) Edit(ctx context.Context, shiftID, workspaceID int, in ShiftInput) (*models.Shift, error) {
	shift, err := s.getScoped(ctx, shiftID, workspaceID)
	if err != nil {
		return nil, err
	}
	in.WorkspaceID = workspaceID
	if err := validateInput(in); err != nil {
		return nil, err
	}

	conflict, err := s.Checker.HasConflict(ctx, workspaceID, in.UserID, in.StartTime, in.EndTime, shiftID)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, apperrors.NewConflict("user %d already has a shift overlapping %s — %s",
			in.UserID, in.StartTime.Format(time.RFC3339), in.EndTime.Format(time.RFC3339))
	}

	shift.UserID = in.UserID
	shift.StartTime = in.StartTime
	shift.EndTime = in.EndTime
	shift.BreakDurationMinutes = in.BreakDurationMinutes
	if err := s.Shifts.UpdateShift(ctx, shift); err != nil {
		return nil, err
	}

	s.publishUpdated(shift)
	return shift, nil
}

// Delete удаляет смену из своего рабочего пространства.
func (s *ShiftService) Delete(ctx context.Context, shiftID, workspaceID int) error {
	shift, err := s.getScoped(ctx, shiftID, workspaceID)
	if err != nil {
		return err
	}
	if err := s.Shifts.DeleteShift(ctx, shift.ID); err != nil {
		return err
	}
	s.publishUpdated(shift)
	return nil
}

func (s *ShiftService) getScoped(ctx context.Context, shiftID, workspaceID int) (*models.Shift, error) {
	shift, err := s.Shifts.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift.WorkspaceID != workspaceID {
		return nil, apperrors.NewNotFound("shift", shiftID)
	}
	return shift, nil
}

func (s *ShiftService) publishUpdated(shift *models.Shift) {
	s.Bus.PublishToWorkspace(shift.WorkspaceID, events.Event{
		Type:    events.EventShiftUpdated,
		Payload: map[string]int{"shift_id": shift.ID},
	})
}

func validateInput(in ShiftInput) error {
	if in.UserID == 0 || in.WorkspaceID == 0 {
		return apperrors.NewValidation("workspace_id and user_id are required")
	}
	if !in.EndTime.After(in.StartTime) {
		return apperrors.NewValidation("end_time must be after start_time")
	}
	if in.BreakDurationMinutes < 0 {
		return apperrors.NewValidation("break_duration_minutes cannot be negative")
	}
	if time.Duration(in.BreakDurationMinutes)*time.Minute >= in.EndTime.Sub(in.StartTime) {
		return apperrors.NewValidation("break cannot take the whole shift")
	}
	return nil
}
