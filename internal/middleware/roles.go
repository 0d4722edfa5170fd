// internal/middleware/roles.go
package middleware

import (
	"context"

	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/pkg/apperrors"
)

// RoleSource — источник ролей участников рабочего пространства.
type RoleSource interface {
	Role(ctx context.Context, workspaceID, userID int) (string, error)
}

// RequireManager возвращает AuthorizationError, если пользователь не
// admin/manager пространства. Используется обработчиками команд
// планирования — workspace_id известен только после разбора запроса,
// поэтому это не chi-middleware, а явная проверка.
func RequireManager(ctx context.Context, roles RoleSource, workspaceID, userID int) error {
	role, err := roles.Role(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if !models.IsManagerRole(role) {
		return apperrors.NewAuthorization("manager role required")
	}
	return nil
}

// RequireMember — любой участник пространства.
func RequireMember(ctx context.Context, roles RoleSource, workspaceID, userID int) error {
	role, err := roles.Role(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if role == "" {
		return apperrors.NewAuthorization("workspace membership required")
	}
	return nil
}
