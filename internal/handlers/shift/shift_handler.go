// internal/handlers/shift/shift_handler.go
package shift

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smena/smena_backend/internal/middleware"
	"github.com/smena/smena_backend/internal/pkg/response"
	"github.com/smena/smena_backend/internal/repositories"
	"github.com/smena/smena_backend/internal/services/scheduling"
	"github.com/smena/smena_backend/internal/services/timeclock"
)

type ShiftHandler struct {
	service    *scheduling.ShiftService
	shifts     *repositories.ShiftRepository
	timesheets *repositories.TimesheetRepository
	roles      middleware.RoleSource
}

func NewShiftHandler(service *scheduling.ShiftService, shifts *repositories.ShiftRepository, timesheets *repositories.TimesheetRepository, roles middleware.RoleSource) *ShiftHandler {
	return &ShiftHandler{service: service, shifts: shifts, timesheets: timesheets, roles: roles}
}

// CreateShift — планирование новой смены (только менеджер).
func (h *ShiftHandler) CreateShift(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var in scheduling.ShiftInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := middleware.RequireManager(r.Context(), h.roles, in.WorkspaceID, userID); err != nil {
		response.RespondWithAppError(w, err)
		return
	}

	shift, err := h.service.Schedule(r.Context(), in)
	if err != nil {
		response.RespondWithAppError(w, err)
		return
	}
	response.RespondWithJSON(w, http.StatusCreated, shift)
}

// UpdateShift — правка времени/владельца смены (только менеджер).
func (h *ShiftHandler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	shiftID, err := strconv.Atoi(chi.URLParam(r, "shiftID"))
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid shift ID")
		return
	}

	var in scheduling.ShiftInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := middleware.RequireManager(r.Context(), h.roles, in.WorkspaceID, userID); err != nil {
		response.RespondWithAppError(w, err)
		return
	}

	shift, err := h.service.Edit(r.Context(), shiftID, in.WorkspaceID, in)
	if err != nil {
		response.RespondWithAppError(w, err)
		return
	}
	response.RespondWithJSON(w, http.StatusOK, shift)
}

// DeleteShift удаляет смену (только менеджер).
func (h *ShiftHandler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	shiftID, err := strconv.Atoi(chi.URLParam(r, "shiftID"))
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid shift ID")
		return
	}
	workspaceID, err := strconv.Atoi(r.URL.Query().Get("workspace_id"))
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "workspace_id is required")
		return
	}

	if err := middleware.RequireManager(r.Context(), h.roles, workspaceID, userID); err != nil {
		response.RespondWithAppError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), shiftID, workspaceID); err != nil {
		response.RespondWithAppError(w, err)
		return
	}
	response.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListShifts — смены пространства, опционально по сотруднику и периоду.
func (h *ShiftHandler) ListShifts(w http.ResponseWriter, r *http.Request) {
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

	filterUserID, _ := strconv.Atoi(r.URL.Query().Get("user_id"))
	from := parseTimeParam(r.URL.Query().Get("from"))
	to := parseTimeParam(r.URL.Query().Get("to"))

	shifts, err := h.shifts.FindShifts(r.Context(), workspaceID, filterUserID, from, to)
	if err != nil {
		response.RespondWithAppError(w, err)
		return
	}
	response.RespondWithJSON(w, http.StatusOK, shifts)
}

// GetShift — смена вместе с табелем и производным статусом.
func (h *ShiftHandler) GetShift(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	shiftID, err := strconv.Atoi(chi.URLParam(r, "shiftID"))
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid shift ID")
		return
	}

	shift, err := h.shifts.GetShift(r.Context(), shiftID)
	if err != nil {
		response.RespondWithAppError(w, err)
		return
	}
	if err := middleware.RequireMember(r.Context(), h.roles, shift.WorkspaceID, userID); err != nil {
		response.RespondWithAppError(w, err)
		return
	}

	ts, err := h.timesheets.GetByShiftID(r.Context(), shiftID)
	if err != nil {
		response.RespondWithAppError(w, err)
		return
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"shift":     shift,
		"timesheet": ts,
		"status":    timeclock.DeriveStatus(ts),
	})
}

func parseTimeParam(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	return nil
}
