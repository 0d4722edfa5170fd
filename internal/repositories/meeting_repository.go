package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/pkg/apperrors"
)

type MeetingRepository struct {
	db *sql.DB
}

func NewMeetingRepository(db *sql.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

func (r *MeetingRepository) GetMeeting(ctx context.Context, id int) (*models.Meeting, error) {
	var m models.Meeting
	err := r.db.QueryRowContext(ctx,
		"SELECT id, workspace_id, title, start_time, end_time, created_by FROM meetings WHERE id = $1", id,
	).Scan(&m.ID, &m.WorkspaceID, &m.Title, &m.StartTime, &m.EndTime, &m.CreatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("meeting", id)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MeetingRepository) CreateMeeting(ctx context.Context, m *models.Meeting) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO meetings (workspace_id, title, start_time, end_time, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		m.WorkspaceID, m.Title, m.StartTime, m.EndTime, m.CreatedBy,
	).Scan(&m.ID)
}

func (r *MeetingRepository) UpdateMeeting(ctx context.Context, m *models.Meeting) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE meetings SET title = $1, start_time = $2, end_time = $3 WHERE id = $4`,
		m.Title, m.StartTime, m.EndTime, m.ID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperrors.NewNotFound("meeting", m.ID)
	}
	return nil
}

func (r *MeetingRepository) DeleteMeeting(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM meetings WHERE id = $1", id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperrors.NewNotFound("meeting", id)
	}
	return nil
}

func (r *MeetingRepository) FindByWorkspace(ctx context.Context, workspaceID int) ([]models.Meeting, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, workspace_id, title, start_time, end_time, created_by FROM meetings WHERE workspace_id = $1 ORDER BY start_time",
		workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []models.Meeting
	for rows.Next() {
		var m models.Meeting
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.Title, &m.StartTime, &m.EndTime, &m.CreatedBy); err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}
