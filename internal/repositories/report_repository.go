package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/smena/smena_backend/internal/services/reports"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// FindTimesheetRows — смены пространства за период вместе с табелями и
// именами сотрудников. Смены без табеля тоже попадают в отчёт
// (статус SCHEDULED).
func (r *ReportRepository) FindTimesheetRows(ctx context.Context, workspaceID int, from, to time.Time) ([]reports.TimesheetRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.workspace_id, s.user_id, s.start_time, s.end_time, s.break_duration_minutes,
		       u.username,
		       t.clock_in_time, t.start_break_time, t.end_break_time, t.clock_out_time
		FROM shifts s
		JOIN users u ON u.id = s.user_id
		LEFT JOIN timesheets t ON t.shift_id = s.id
		WHERE s.workspace_id = $1 AND s.start_time >= $2 AND s.start_time < $3
		ORDER BY s.start_time, u.username`,
		workspaceID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []reports.TimesheetRow
	for rows.Next() {
		var row reports.TimesheetRow
		if err := rows.Scan(
			&row.Shift.ID, &row.Shift.WorkspaceID, &row.Shift.UserID,
			&row.Shift.StartTime, &row.Shift.EndTime, &row.Shift.BreakDurationMinutes,
			&row.Username,
			&row.Timesheet.ClockInTime, &row.Timesheet.StartBreakTime,
			&row.Timesheet.EndBreakTime, &row.Timesheet.ClockOutTime,
		); err != nil {
			return nil, err
		}
		row.Timesheet.ShiftID = row.Shift.ID
		result = append(result, row)
	}
	return result, rows.Err()
}
