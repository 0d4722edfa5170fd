package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/lib/pq"

	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/pkg/apperrors"
)

type ShiftRepository struct {
	db *sql.DB
}

func NewShiftRepository(db *sql.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

const shiftColumns = "id, workspace_id, user_id, start_time, end_time, break_duration_minutes"

func (r *ShiftRepository) GetShift(ctx context.Context, id int) (*models.Shift, error) {
	var s models.Shift
	err := r.db.QueryRowContext(ctx,
		"SELECT "+shiftColumns+" FROM shifts WHERE id = $1", id,
	).Scan(&s.ID, &s.WorkspaceID, &s.UserID, &s.StartTime, &s.EndTime, &s.BreakDurationMinutes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("shift", id)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ShiftRepository) FindShiftsForUser(ctx context.Context, workspaceID, userID int) ([]models.Shift, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+shiftColumns+" FROM shifts WHERE workspace_id = $1 AND user_id = $2 ORDER BY start_time",
		workspaceID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShifts(rows)
}

// FindShifts — выборка для read-эндпоинтов: по пространству, опционально
// по сотруднику и периоду.
func (r *ShiftRepository) FindShifts(ctx context.Context, workspaceID, userID int, from, to *time.Time) ([]models.Shift, error) {
	query := "SELECT " + shiftColumns + " FROM shifts WHERE workspace_id = $1"
	args := []interface{}{workspaceID}

	if userID != 0 {
		args = append(args, userID)
		query += " AND user_id = $2"
	}
	if from != nil {
		args = append(args, *from)
		query += " AND end_time > $" + strconv.Itoa(len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += " AND start_time < $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY start_time"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShifts(rows)
}

func (r *ShiftRepository) CreateShift(ctx context.Context, shift *models.Shift) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO shifts (workspace_id, user_id, start_time, end_time, break_duration_minutes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		shift.WorkspaceID, shift.UserID, shift.StartTime, shift.EndTime, shift.BreakDurationMinutes,
	).Scan(&shift.ID)
	return translateOverlapError(err)
}

func (r *ShiftRepository) UpdateShift(ctx context.Context, shift *models.Shift) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE shifts
		SET user_id = $1, start_time = $2, end_time = $3, break_duration_minutes = $4
		WHERE id = $5`,
		shift.UserID, shift.StartTime, shift.EndTime, shift.BreakDurationMinutes, shift.ID)
	if err != nil {
		return translateOverlapError(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperrors.NewNotFound("shift", shift.ID)
	}
	return nil
}

func (r *ShiftRepository) DeleteShift(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM shifts WHERE id = $1", id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperrors.NewNotFound("shift", id)
	}
	return nil
}

// FindEndedUnclosed — смены с clock-in без clock-out, чей плановый конец
// раньше before. Используется автозакрытием.
func (r *ShiftRepository) FindEndedUnclosed(ctx context.Context, before time.Time) ([]models.Shift, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.workspace_id, s.user_id, s.start_time, s.end_time, s.break_duration_minutes
		FROM shifts s
		JOIN timesheets t ON t.shift_id = s.id
		WHERE t.clock_in_time IS NOT NULL
		  AND t.clock_out_time IS NULL
		  AND s.end_time < $1`,
		before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShifts(rows)
}

func scanShifts(rows *sql.Rows) ([]models.Shift, error) {
	var shifts []models.Shift
	for rows.Next() {
		var s models.Shift
		if err := rows.Scan(&s.ID, &s.WorkspaceID, &s.UserID, &s.StartTime, &s.EndTime, &s.BreakDurationMinutes); err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

// translateOverlapError превращает срабатывание EXCLUDE-ограничения
// shifts_no_overlap в ConflictError. Это последний рубеж: прикладная
// проверка могла пропустить гонку.
func translateOverlapError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23P01" {
		return apperrors.NewConflict("shift interval overlaps an existing shift")
	}
	return err
}
