// internal/handlers/admin/reports_handler.go
package admin

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smena/smena_backend/internal/middleware"
	"github.com/smena/smena_backend/internal/pkg/response"
)

// TimesheetReport отдаёт Excel-отчёт по табелям пространства за период
// (?from=YYYY-MM-DD&to=YYYY-MM-DD, по умолчанию — последние 30 дней).
func (h *AdminHandler) TimesheetReport(w http.ResponseWriter, r *http.Request) {
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

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	if raw := r.URL.Query().Get("from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			from = t
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			to = t.AddDate(0, 0, 1) // включительно
		}
	}

	file, err := h.exporter.BuildTimesheetReport(r.Context(), workspaceID, from, to)
	if err != nil {
		response.RespondWithAppError(w, err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="timesheets.xlsx"`)
	if err := file.Write(w); err != nil {
		log.Printf("Failed to stream report: %v", err)
	}
}
