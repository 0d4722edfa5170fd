// internal/handlers/meeting/meeting_handler.go
package meeting

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smena/smena_backend/internal/middleware"
	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/pkg/apperrors"
	"github.com/smena/smena_backend/internal/pkg/response"
	"github.com/smena/smena_backend/internal/repositories"
	"github.com/smena/smena_backend/internal/services/events"
)

// MeetingHandler — встречи пространства. Каждая мутация публикует
// meeting-updated подписчикам пространства.
type MeetingHandler struct {
	meetings *repositories.MeetingRepository
	roles    middleware.RoleSource
	hub      *events.Hub
}

func NewMeetingHandler(meetings *repositories.MeetingRepository, roles middleware.RoleSource, hub *events.Hub) *MeetingHandler {
	return &MeetingHandler{meetings: meetings, roles: roles, hub: hub}
}

type meetingInput struct {
	WorkspaceID int       `json:"workspace_id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

func (in meetingInput) validate() error {
	if in.Title == "" {
		return apperrors.NewValidation("title is required")
	}
	if !in.EndTime.After(in.StartTime) {
		return apperrors.NewValidation("end_time must be after start_time")
	}
	return nil
}

func (h *MeetingHandler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var in meetingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := middleware.RequireManager(r.Context(), h.roles, in.WorkspaceID, userID); err != nil {
		response.RespondWithAppError(w, err)
		return
	}
	if err := in.validate(); err != nil {
		response.RespondWithAppError(w, err)
		return
	}

	m := &models.Meeting{
		WorkspaceID: in.WorkspaceID,
		Title:       in.Title,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		CreatedBy:   userID,
	}
	if err := h.meetings.CreateMeeting(r.Context(), m); err != nil {
		response.RespondWithAppError(w, err)
		return
	}

	h.publishUpdated(m)
	response.RespondWithJSON(w, http.StatusCreated, m)
}

func (h *MeetingHandler) UpdateMeeting(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	meetingID, err := strconv.Atoi(chi.URLParam(r, "meetingID"))
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid meeting ID")
		return
	}

	var in meetingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	m, err := h.meetings.GetMeeting(r.Context(), meetingID)
	if err != nil {
		response.RespondWithAppError(w, err)
		return
	}
	if err := middleware.RequireManager(r.Context(), h.roles, m.WorkspaceID, userID); err != nil {
		response.RespondWithAppError(w, err)
		return
	}
	if err := in.validate(); err != nil {
		response.RespondWithAppError(w, err)
		return
	}

	m.Title = in.Title
	m.StartTime = in.StartTime
	m.EndTime = in.EndTime
	if err := h.meetings.UpdateMeeting(r.Context(), m); err != nil {
		response.RespondWithAppError(w, err)
		return
	}

	h.publishUpdated(m)
	response.RespondWithJSON(w, http.StatusOK, m)
}

func (h *MeetingHandler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	meetingID, err := strconv.Atoi(chi.URLParam(r, "meetingID"))
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid meeting ID")
		return
	}

	m, err := h.meetings.GetMeeting(r.Context(), meetingID)
	if err != nil {
		response.RespondWithAppError(w, err)
		return
	}
	if err := middleware.RequireManager(r.Context(), h.roles, m.WorkspaceID, userID); err != nil {
		response.RespondWithAppError(w, err)
		return
	}

	if err := h.meetings.DeleteMeeting(r.Context(), meetingID); err != nil {
		response.RespondWithAppError(w, err)
		return
	}

	h.publishUpdated(m)
	response.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *MeetingHandler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	workspaceID, err := strconv.Atoi(r.URL.Query().Get("workspace_id"))
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "workspace_id is required")
		return
	}
	if err := middleware.RequireMember(r.Context(), h.roles, workspaceID, userID); err != nil {
		response.RespondWithAppError(w, err)
		return
	}

	meetings, err := h.meetings.FindByWorkspace(r.Context(), workspaceID)
	if err != nil {
		response.RespondWithAppError(w, err)
		return
	}
	response.RespondWithJSON(w, http.StatusOK, meetings)
}

func (h *MeetingHandler) publishUpdated(m *models.Meeting) {
	h.hub.PublishToWorkspace(m.WorkspaceID, events.Event{
		Type:    events.EventMeetingUpdated,
		Payload: map[string]int{"meeting_id": m.ID},
	})
}
