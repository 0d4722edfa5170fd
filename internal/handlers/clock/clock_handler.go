// internal/handlers/clock/clock_handler.go
package clock

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/smena/smena_backend/internal/middleware"
	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/pkg/response"
	"github.com/smena/smena_backend/internal/services/timeclock"
)

// ClockHandler — команды учёта времени по своей смене.
type ClockHandler struct {
	service *timeclock.Service
}

func NewClockHandler(service *timeclock.Service) *ClockHandler {
	return &ClockHandler{service: service}
}

func (h *ClockHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.service.ClockIn)
}

func (h *ClockHandler) StartBreak(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.service.StartBreak)
}

func (h *ClockHandler) EndBreak(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.service.EndBreak)
}

func (h *ClockHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.service.ClockOut)
}

func (h *ClockHandler) run(w http.ResponseWriter, r *http.Request, op func(context.Context, int, int) (*models.Timesheet, error)) {
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

	ts, err := op(r.Context(), userID, shiftID)
	if err != nil {
		response.RespondWithAppError(w, err)
		return
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"timesheet": ts,
		"status":    timeclock.DeriveStatus(ts),
	})
}
