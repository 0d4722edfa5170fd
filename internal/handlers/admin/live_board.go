// internal/handlers/admin/live_board.go
package admin

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/smena/smena_backend/internal/middleware"
	"github.com/smena/smena_backend/internal/pkg/response"
)

// LiveBoard — текущие статусы сотрудников пространства из
// Redis-проекции (кто работает, кто на перерыве).
func (h *AdminHandler) LiveBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	workspaceID, err := strconv.Atoi(chi.URLParam(r, "workspaceID"))
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid workspace ID")
		return
	}
	if err := middleware.RequireManager(r.Context(), h.roles, workspaceID, userID); err != nil {
		response.RespondWithAppError(w, err)
		return
	}

	statuses, err := h.presence.WorkspaceStatuses(r.Context(), workspaceID)
	if err != nil {
		response.RespondWithAppError(w, err)
		return
	}
	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"workspace_id": workspaceID,
		"statuses":     statuses,
	})
}
