// internal/handlers/exchange/request_handler.go
package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/smena/smena_backend/internal/middleware"
	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/pkg/response"
	"github.com/smena/smena_backend/internal/repositories"
	"github.com/smena/smena_backend/internal/services/exchange"
)

type RequestHandler struct {
	service  *exchange.Service
	requests *repositories.RequestRepository
	roles    middleware.RoleSource
}

func NewRequestHandler(service *exchange.Service, requests *repositories.RequestRepository, roles middleware.RoleSource) *RequestHandler {
	return &RequestHandler{service: service, requests: requests, roles: roles}
}

// CreateRequest — сотрудник предлагает передать или обменять смену.
func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var in exchange.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		response.RespondWithAppError(w, err)
		return
	}
	response.RespondWithJSON(w, http.StatusCreated, req)
}

type decisionRequest struct {
	Decision models.Decision `json:"decision"`
}

// Respond — решение принимающего сотрудника.
func (h *RequestHandler) Respond(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.DecideAsRequestedUser)
}

// Review — решение менеджера.
func (h *RequestHandler) Review(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.DecideAsManager)
}

func (h *RequestHandler) decide(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, callerID, requestID int, decision models.Decision) (*models.ShiftRequest, error)) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	requestID, err := strconv.Atoi(chi.URLParam(r, "requestID"))
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var body decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req, err := op(r.Context(), userID, requestID, body.Decision)
	if err != nil {
		response.RespondWithAppError(w, err)
		return
	}
	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"request": req,
		"state":   exchange.StateOf(req),
	})
}

// ListRequests — заявки рабочего пространства.
func (h *RequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
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
	requests, err := h.requests.FindByWorkspace(r.Context(), workspaceID, filterUserID)
	if err != nil {
		response.RespondWithAppError(w, err)
		return
	}
	response.RespondWithJSON(w, http.StatusOK, requests)
}
