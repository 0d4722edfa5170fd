// services/timeclock/transitions.go
package timeclock

import (
	"time"

	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/pkg/apperrors"
)

// Охраняемые переходы табеля. Каждый переход разрешён ровно из одного
// состояния; повторный вызов не перезаписывает отметку, а возвращает
// InvalidTransitionError, табель остаётся нетронутым.

// ClockIn отмечает начало работы. Разрешён только из SCHEDULED.
func ClockIn(ts *models.Timesheet, at time.Time) error {
	if DeriveStatus(ts) != StatusScheduled {
		return apperrors.NewInvalidTransition("clock-in is only allowed before the shift is started")
	}
	ts.ClockInTime = &at
	return nil
}

// StartBreak отмечает начало перерыва. Разрешён только из ACTIVE и
// только один раз: после закрытого перерыва статус снова ACTIVE, но
// повторный перерыв затёр бы пару start/end.
func StartBreak(ts *models.Timesheet, at time.Time) error {
	if DeriveStatus(ts) != StatusActive {
		return apperrors.NewInvalidTransition("break can only be started while working")
	}
	if ts.StartBreakTime != nil {
		return apperrors.NewInvalidTransition("break has already been taken")
	}
	if at.Before(*ts.ClockInTime) {
		return apperrors.NewValidation("break start cannot precede clock-in")
	}
	ts.StartBreakTime = &at
	return nil
}

// EndBreak отмечает конец перерыва. Разрешён только из ON_BREAK.
func EndBreak(ts *models.Timesheet, at time.Time) error {
	if DeriveStatus(ts) != StatusOnBreak {
		return apperrors.NewInvalidTransition("no break in progress")
	}
	if at.Before(*ts.StartBreakTime) {
		return apperrors.NewValidation("break end cannot precede break start")
	}
	ts.EndBreakTime = &at
	return nil
}

// ClockOut отмечает конец работы. Разрешён только из ACTIVE:
// открытый перерыв нужно сначала закончить явно.
func ClockOut(ts *models.Timesheet, at time.Time) error {
	status := DeriveStatus(ts)
	if status == StatusOnBreak {
		return apperrors.NewInvalidTransition("end the break before clocking out")
	}
	if status != StatusActive {
		return apperrors.NewInvalidTransition("clock-out is only allowed while working")
	}
	if at.Before(*ts.ClockInTime) {
		return apperrors.NewValidation("clock-out cannot precede clock-in")
	}
	ts.ClockOutTime = &at
	return nil
}
