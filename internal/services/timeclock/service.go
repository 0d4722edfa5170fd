// services/timeclock/service.go
package timeclock

import (
	"context"
	"log"
	"time"

	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/pkg/apperrors"
	"github.com/smena/smena_backend/internal/services/events"
)

// ShiftStore — доступ к сменам, нужный учёту времени.
type ShiftStore interface {
	GetShift(ctx context.Context, id int) (*models.Shift, error)
	// FindEndedUnclosed возвращает смены, чей плановый конец раньше before,
	// по которым сотрудник отметился на вход, но не вышел.
	FindEndedUnclosed(ctx context.Context, before time.Time) ([]models.Shift, error)
}

// TimesheetStore — доступ к табелям. GetByShiftID возвращает (nil, nil),
// если табель ещё не создан: он заводится лениво при первом clock-in.
type TimesheetStore interface {
	GetByShiftID(ctx context.Context, shiftID int) (*models.Timesheet, error)
	Save(ctx context.Context, ts *models.Timesheet) error
}

// Publisher — публикация инвалидационных событий.
type Publisher interface {
	PublishToWorkspace(workspaceID int, event events.Event)
}

// StatusRecorder — кэш живых статусов (Redis-проекция). Ошибки кэша
// логируются и не валят команду.
type StatusRecorder interface {
	SetStatus(ctx context.Context, workspaceID, userID, shiftID int, status Status) error
}

// Service выполняет clock-команды: загрузка смены, проверка владельца,
// охраняемый переход, сохранение, событие, обновление проекции статуса.
type Service struct {
	Shifts     ShiftStore
	Timesheets TimesheetStore
	Bus        Publisher
	Presence   StatusRecorder
	Now        func() time.Time
}

func NewService(shifts ShiftStore, timesheets TimesheetStore, bus Publisher, presence StatusRecorder) *Service {
	return &Service{
		Shifts:     shifts,
		Timesheets: timesheets,
		Bus:        bus,
		Presence:   presence,
		Now:        time.Now,
	}
}

func (s *Service) ClockIn(ctx context.Context, callerID, shiftID int) (*models.Timesheet, error) {
	return s.apply(ctx, callerID, shiftID, ClockIn)
}

func (s *Service) StartBreak(ctx context.Context, callerID, shiftID int) (*models.Timesheet, error) {
	return s.apply(ctx, callerID, shiftID, StartBreak)
}

func (s *Service) EndBreak(ctx context.Context, callerID, shiftID int) (*models.Timesheet, error) {
	return s.apply(ctx, callerID, shiftID, EndBreak)
}

func (s *Service) ClockOut(ctx context.Context, callerID, shiftID int) (*models.Timesheet, error) {
	return s.apply(ctx, callerID, shiftID, ClockOut)
}

// Status возвращает смену вместе с производным статусом.
func (s *Service) Status(ctx context.Context, shiftID int) (*models.Timesheet, Status, error) {
	ts, err := s.Timesheets.GetByShiftID(ctx, shiftID)
	if err != nil {
		return nil, "", err
	}
	return ts, DeriveStatus(ts), nil
}

func (s *Service) apply(ctx context.Context, callerID, shiftID int, transition func(*models.Timesheet, time.Time) error) (*models.Timesheet, error) {
	shift, err := s.Shifts.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift.UserID != callerID {
		return nil, apperrors.NewAuthorization("shift belongs to another user")
	}

	ts, err := s.Timesheets.GetByShiftID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		ts = &models.Timesheet{ShiftID: shiftID}
	}

	if err := transition(ts, s.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.Timesheets.Save(ctx, ts); err != nil {
		return nil, err
	}

	s.recordStatus(ctx, shift, ts)
	s.Bus.PublishToWorkspace(shift.WorkspaceID, events.Event{
		Type:    events.EventShiftUpdated,
		Payload: map[string]int{"shift_id": shift.ID},
	})
	return ts, nil
}

func (s *Service) recordStatus(ctx context.Context, shift *models.Shift, ts *models.Timesheet) {
	if s.Presence == nil {
		return
	}
	if err := s.Presence.SetStatus(ctx, shift.WorkspaceID, shift.UserID, shift.ID, DeriveStatus(ts)); err != nil {
		log.Printf("Failed to update presence for user %d: %v", shift.UserID, err)
	}
}
