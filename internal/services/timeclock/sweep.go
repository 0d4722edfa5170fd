// services/timeclock/sweep.go
package timeclock

import (
	"context"
	"log"
	"time"

	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/services/events"
)

// SweepGracePeriod — сколько ждём после планового конца смены, прежде
// чем закрыть её автоматически.
const SweepGracePeriod = 30 * time.Minute

// Sweep закрывает просроченные открытые смены: сотрудник отметился на
// вход, смена давно закончилась, а выхода нет. Открытый перерыв сначала
// закрывается плановым концом смены, затем ставится clock-out.
// Возвращает количество закрытых смен.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	cutoff := s.Now().UTC().Add(-SweepGracePeriod)
	shifts, err := s.Shifts.FindEndedUnclosed(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	closed := 0
	for i := range shifts {
		shift := &shifts[i]
		if err := s.sweepOne(ctx, shift); err != nil {
			log.Printf("Failed to auto-close shift %d: %v", shift.ID, err)
			continue
		}
		closed++
	}
	return closed, nil
}

func (s *Service) sweepOne(ctx context.Context, shift *models.Shift) error {
	ts, err := s.Timesheets.GetByShiftID(ctx, shift.ID)
	if err != nil {
		return err
	}

	switch DeriveStatus(ts) {
	case StatusOnBreak:
		if err := EndBreak(ts, laterOf(shift.EndTime, *ts.StartBreakTime)); err != nil {
			return err
		}
		fallthrough
	case StatusActive:
		out := laterOf(shift.EndTime, *ts.ClockInTime)
		if ts.EndBreakTime != nil {
			out = laterOf(out, *ts.EndBreakTime)
		}
		if err := ClockOut(ts, out); err != nil {
			return err
		}
	default:
		// SCHEDULED и COMPLETED закрывать нечего.
		return nil
	}

	if err := s.Timesheets.Save(ctx, ts); err != nil {
		return err
	}

	s.recordStatus(ctx, shift, ts)
	s.Bus.PublishToWorkspace(shift.WorkspaceID, events.Event{
		Type:    events.EventShiftUpdated,
		Payload: map[string]int{"shift_id": shift.ID},
	})
	return nil
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
