// internal/handlers/admin/import_handler.go
package admin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/smena/smena_backend/internal/middleware"
	"github.com/smena/smena_backend/internal/pkg/response"
	"github.com/smena/smena_backend/internal/services/reports"
)

type importScheduleRequest struct {
	GoogleSheetURL string `json:"google_sheet_url,omitempty"`
}

// ImportSchedule массово заводит смены из таблицы: JSON с
// google_sheet_url либо multipart с xlsx-файлом в поле file.
// Колонки: user_id | start_time | end_time | break_minutes.
func (h *AdminHandler) ImportSchedule(w http.ResponseWriter, r *http.Request) {
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

	var rows [][]string
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var req importScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Неверный JSON")
			return
		}
		if req.GoogleSheetURL == "" {
			response.RespondWithError(w, http.StatusBadRequest, "google_sheet_url обязателен")
			return
		}
		rows, err = h.importer.ReadGoogleSheet(r.Context(), req.GoogleSheetURL)
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Ошибка чтения Google Sheets: "+err.Error())
			return
		}
	} else {
		file, _, err := r.FormFile("file")
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "Файл не найден")
			return
		}
		defer file.Close()

		rows, err = reports.ReadXLSX(file)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	result, err := h.importer.Import(r.Context(), workspaceID, rows)
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	response.RespondWithJSON(w, http.StatusOK, result)
}
