package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/pkg/apperrors"
)

type WorkspaceRepository struct {
	db *sql.DB
}

func NewWorkspaceRepository(db *sql.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// CreateWorkspace создаёт пространство и сразу делает создателя админом
// (одной транзакцией).
func (r *WorkspaceRepository) CreateWorkspace(ctx context.Context, name string, createdBy int) (*models.Workspace, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("не удалось начать транзакцию: %w", err)
	}
	defer tx.Rollback()

	ws := &models.Workspace{Name: name, CreatedBy: createdBy}
	err = tx.QueryRowContext(ctx,
		"INSERT INTO workspaces (name, created_by) VALUES ($1, $2) RETURNING id, created_at",
		name, createdBy,
	).Scan(&ws.ID, &ws.CreatedAt)
	if err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO workspace_members (workspace_id, user_id, role) VALUES ($1, $2, $3)",
		ws.ID, createdBy, models.RoleAdmin); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return ws, nil
}

func (r *WorkspaceRepository) GetWorkspace(ctx context.Context, id int) (*models.Workspace, error) {
	var ws models.Workspace
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, created_by, created_at FROM workspaces WHERE id = $1", id,
	).Scan(&ws.ID, &ws.Name, &ws.CreatedBy, &ws.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("workspace", id)
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// FindMembers — участники пространства с ролями.
func (r *WorkspaceRepository) FindMembers(ctx context.Context, workspaceID int) ([]models.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.username, m.role
		FROM workspace_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.workspace_id = $1
		ORDER BY u.username`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.Username, &m.Role); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Role возвращает роль пользователя в пространстве; пустая строка —
// не участник.
func (r *WorkspaceRepository) Role(ctx context.Context, workspaceID, userID int) (string, error) {
	var role string
	err := r.db.QueryRowContext(ctx,
		"SELECT role FROM workspace_members WHERE workspace_id = $1 AND user_id = $2",
		workspaceID, userID,
	).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return role, nil
}
