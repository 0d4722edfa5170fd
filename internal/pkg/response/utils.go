// internal/pkg/response/utils.go
package response

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/smena/smena_backend/internal/pkg/apperrors"
)

// RespondWithJSON — универсальный JSON-ответ.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// RespondWithAppError переводит типизированные ошибки ядра в HTTP-коды.
func RespondWithAppError(w http.ResponseWriter, err error) {
	var (
		conflictErr   *apperrors.ConflictError
		validationErr *apperrors.ValidationError
		transitionErr *apperrors.InvalidTransitionError
		authErr       *apperrors.AuthorizationError
		notFoundErr   *apperrors.NotFoundError
		applyErr      *apperrors.ApplyFailureError
	)

	switch {
	case errors.As(err, &conflictErr):
		RespondWithError(w, http.StatusConflict, conflictErr.Message)
	case errors.As(err, &validationErr):
		RespondWithError(w, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &transitionErr):
		RespondWithError(w, http.StatusConflict, transitionErr.Message)
	case errors.As(err, &authErr):
		RespondWithError(w, http.StatusForbidden, authErr.Message)
	case errors.As(err, &notFoundErr):
		RespondWithError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &applyErr):
		RespondWithError(w, http.StatusConflict, applyErr.Error())
	default:
		log.Printf("Internal error: %v", err)
		RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
