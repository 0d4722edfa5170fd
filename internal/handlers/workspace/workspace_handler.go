// internal/handlers/workspace/workspace_handler.go
package workspace

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/smena/smena_backend/internal/middleware"
	"github.com/smena/smena_backend/internal/pkg/response"
	"github.com/smena/smena_backend/internal/repositories"
	"github.com/smena/smena_backend/internal/services/events"
)

type WorkspaceHandler struct {
	workspaces *repositories.WorkspaceRepository
	hub        *events.Hub
}

func NewWorkspaceHandler(workspaces *repositories.WorkspaceRepository, hub *events.Hub) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces, hub: hub}
}

type createWorkspaceRequest struct {
	Name string `json:"name"`
}

// CreateWorkspace создаёт пространство, делает создателя админом и
// шлёт ему адресное workspace-created.
func (h *WorkspaceHandler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req createWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		response.RespondWithError(w, http.StatusBadRequest, "name is required")
		return
	}

	ws, err := h.workspaces.CreateWorkspace(r.Context(), req.Name, userID)
	if err != nil {
		response.RespondWithAppError(w, err)
		return
	}

	h.hub.PublishToUser(userID, events.Event{
		Type:    events.EventWorkspaceCreated,
		Payload: map[string]int{"workspace_id": ws.ID},
	})
	response.RespondWithJSON(w, http.StatusCreated, ws)
}

// ListMembers — участники пространства с ролями (для выбора, кому
// предложить смену).
func (h *WorkspaceHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
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
	if err := middleware.RequireMember(r.Context(), h.workspaces, workspaceID, userID); err != nil {
		response.RespondWithAppError(w, err)
		return
	}

	members, err := h.workspaces.FindMembers(r.Context(), workspaceID)
	if err != nil {
		response.RespondWithAppError(w, err)
		return
	}
	response.RespondWithJSON(w, http.StatusOK, members)
}
