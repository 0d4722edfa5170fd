package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/smena/smena_backend/internal/models"
)

type TimesheetRepository struct {
	db *sql.DB
}

func NewTimesheetRepository(db *sql.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

// GetByShiftID возвращает (nil, nil), если табель ещё не заведён:
// он создаётся лениво при первом clock-in.
func (r *TimesheetRepository) GetByShiftID(ctx context.Context, shiftID int) (*models.Timesheet, error) {
	var ts models.Timesheet
	err := r.db.QueryRowContext(ctx, `
		SELECT shift_id, clock_in_time, start_break_time, end_break_time, clock_out_time
		FROM timesheets WHERE shift_id = $1`, shiftID,
	).Scan(&ts.ShiftID, &ts.ClockInTime, &ts.StartBreakTime, &ts.EndBreakTime, &ts.ClockOutTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// Save вставляет или обновляет табель целиком.
func (r *TimesheetRepository) Save(ctx context.Context, ts *models.Timesheet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO timesheets (shift_id, clock_in_time, start_break_time, end_break_time, clock_out_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (shift_id) DO UPDATE SET
			clock_in_time = EXCLUDED.clock_in_time,
			start_break_time = EXCLUDED.start_break_time,
			end_break_time = EXCLUDED.end_break_time,
			clock_out_time = EXCLUDED.clock_out_time`,
		ts.ShiftID, ts.ClockInTime, ts.StartBreakTime, ts.EndBreakTime, ts.ClockOutTime)
	return err
}
