package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/pkg/apperrors"
)

type RequestRepository struct {
	db *sql.DB
}

func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `id, workspace_id, requestor_id, requested_user_id, lended_shift_id,
	requested_shift_id, approved_by_requested, approved_by_manager, applied, failure_reason, created_at`

func (r *RequestRepository) GetRequest(ctx context.Context, id int) (*models.ShiftRequest, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM shift_requests WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("shift request", id)
	}
	return req, err
}

func (r *RequestRepository) CreateRequest(ctx context.Context, req *models.ShiftRequest) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO shift_requests
			(workspace_id, requestor_id, requested_user_id, lended_shift_id, requested_shift_id,
			 approved_by_requested, approved_by_manager)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		req.WorkspaceID, req.RequestorID, req.RequestedUserID, req.LendedShiftID, req.RequestedShiftID,
		req.ApprovedByRequested, req.ApprovedByManager,
	).Scan(&req.ID, &req.CreatedAt)
}

// Решения сторон пишутся каждой в свою колонку и только из PENDING:
// параллельное решение второй стороны не может быть затёрто чужой
// устаревшей копией заявки.

func (r *RequestRepository) SetRequestedDecision(ctx context.Context, id int, decision models.Decision) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE shift_requests SET approved_by_requested = $1
		WHERE id = $2 AND approved_by_requested = 'PENDING'`,
		decision, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperrors.NewInvalidTransition("the requested user has already decided")
	}
	return nil
}

func (r *RequestRepository) SetManagerDecision(ctx context.Context, id int, decision models.Decision) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE shift_requests SET approved_by_manager = $1
		WHERE id = $2 AND approved_by_manager = 'PENDING'`,
		decision, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperrors.NewInvalidTransition("the manager has already decided")
	}
	return nil
}

// SetFailureReason фиксирует причину провала применения.
func (r *RequestRepository) SetFailureReason(ctx context.Context, id int, reason string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE shift_requests SET failure_reason = $1 WHERE id = $2", reason, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperrors.NewNotFound("shift request", id)
	}
	return nil
}

// FindByWorkspace — заявки пространства, свежие сверху. userID != 0
// оставляет только заявки, где пользователь — одна из сторон.
func (r *RequestRepository) FindByWorkspace(ctx context.Context, workspaceID, userID int) ([]models.ShiftRequest, error) {
	query := "SELECT " + requestColumns + " FROM shift_requests WHERE workspace_id = $1"
	args := []interface{}{workspaceID}
	if userID != 0 {
		args = append(args, userID)
		query += " AND (requestor_id = $2 OR requested_user_id = $2)"
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.ShiftRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// ApplyExchange атомарно переназначает владельцев смен и помечает
// заявку применённой. Внутри транзакции строки смен блокируются и
// конфликт проверяется ещё раз против остальных смен нового владельца —
// между решением и применением расписание могло измениться.
func (r *RequestRepository) ApplyExchange(ctx context.Context, req *models.ShiftRequest, assignments map[int]int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("не удалось начать транзакцию: %w", err)
	}
	defer tx.Rollback()

	// Прямой обмен пересекающимися сменами валиден, но между двумя UPDATE
	// новый владелец на мгновение держит обе. Проверка ограничения
	// откладывается до коммита, где ловится translateOverlapError.
	if _, err = tx.ExecContext(ctx, "SET CONSTRAINTS shifts_no_overlap DEFERRED"); err != nil {
		return err
	}

	var applied bool
	err = tx.QueryRowContext(ctx,
		"SELECT applied FROM shift_requests WHERE id = $1 FOR UPDATE", req.ID,
	).Scan(&applied)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFound("shift request", req.ID)
	}
	if err != nil {
		return err
	}
	if applied {
		return apperrors.NewInvalidTransition("request is already applied")
	}

	excluded := make([]int64, 0, len(assignments))
	for shiftID := range assignments {
		excluded = append(excluded, int64(shiftID))
	}

	for shiftID, newUserID := range assignments {
		var start, end sql.NullTime
		err = tx.QueryRowContext(ctx,
			"SELECT start_time, end_time FROM shifts WHERE id = $1 FOR UPDATE", shiftID,
		).Scan(&start, &end)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFound("shift", shiftID)
		}
		if err != nil {
			return err
		}

		var overlapping int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM shifts
			WHERE workspace_id = $1 AND user_id = $2
			  AND id <> ALL($3)
			  AND start_time < $4 AND end_time > $5`,
			req.WorkspaceID, newUserID, pq.Array(excluded), end.Time, start.Time,
		).Scan(&overlapping)
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return apperrors.NewConflict("exchange would create an overlapping shift for user %d", newUserID)
		}

		if _, err = tx.ExecContext(ctx,
			"UPDATE shifts SET user_id = $1 WHERE id = $2", newUserID, shiftID); err != nil {
			return translateOverlapError(err)
		}
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE shift_requests SET applied = TRUE WHERE id = $1", req.ID); err != nil {
		return err
	}

	// Отложенное ограничение срабатывает именно здесь.
	return translateOverlapError(tx.Commit())
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*models.ShiftRequest, error) {
	var req models.ShiftRequest
	var requestedShiftID sql.NullInt64
	var failureReason sql.NullString
	err := row.Scan(&req.ID, &req.WorkspaceID, &req.RequestorID, &req.RequestedUserID,
		&req.LendedShiftID, &requestedShiftID, &req.ApprovedByRequested, &req.ApprovedByManager,
		&req.Applied, &failureReason, &req.CreatedAt)
	if err != nil {
		return nil, err
	}
	if requestedShiftID.Valid {
		id := int(requestedShiftID.Int64)
		req.RequestedShiftID = &id
	}
	if failureReason.Valid {
		req.FailureReason = &failureReason.String
	}
	return &req, nil
}
