// internal/handlers/admin/auto_clockout.go
package admin

import (
	"net/http"
	"time"

	"github.com/smena/smena_backend/internal/pkg/response"
)

// AutoClockOut — ручной запуск автозакрытия просроченных смен
// (фоновый цикл делает то же самое раз в минуту, см. cmd/server).
func (h *AdminHandler) AutoClockOut(w http.ResponseWriter, r *http.Request) {
	closed, err := h.timeclock.Sweep(r.Context())
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to auto-close shifts")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Auto clock-out completed",
		"shifts_ended": closed,
		"processed_at": time.Now().Format(time.RFC3339),
	})
}
