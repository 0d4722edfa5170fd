// internal/handlers/stream/stream_handler.go
package stream

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/smena/smena_backend/internal/middleware"
	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/pkg/response"
	"github.com/smena/smena_backend/internal/services/auth"
	"github.com/smena/smena_backend/internal/services/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamHandler — подписка на живые события. Токен приходит в query:
// websocket-клиент не может выставить заголовок Authorization.
type StreamHandler struct {
	hub   *events.Hub
	jwt   *auth.JWTService
	roles middleware.RoleSource
}

func NewStreamHandler(hub *events.Hub, jwt *auth.JWTService, roles middleware.RoleSource) *StreamHandler {
	return &StreamHandler{hub: hub, jwt: jwt, roles: roles}
}

// Subscribe: GET /api/stream?token=...&workspace_id=N (workspace_id
// опционален — без него клиент получает только адресные события).
func (h *StreamHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.RespondWithError(w, http.StatusUnauthorized, "token required")
		return
	}
	userID, err := h.jwt.ParseUserID(token)
	if err != nil {
		response.RespondWithError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	workspaceID := 0
	isAdmin := false
	if raw := r.URL.Query().Get("workspace_id"); raw != "" {
		workspaceID, err = strconv.Atoi(raw)
		if err != nil {
			response.RespondWithError(w, http.StatusBadRequest, "invalid workspace_id")
			return
		}
		role, err := h.roles.Role(r.Context(), workspaceID, userID)
		if err != nil {
			response.RespondWithError(w, http.StatusInternalServerError, "Database error")
			return
		}
		if role == "" {
			response.RespondWithError(w, http.StatusForbidden, "workspace membership required")
			return
		}
		isAdmin = models.IsManagerRole(role)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Print("Upgrade error:", err)
		return
	}

	// Хаб сам кладёт немедленный heartbeat в буфер клиента при регистрации.
	client := h.hub.Connect(userID, workspaceID, isAdmin, conn)

	go h.hub.ReadPump(client)
	go h.hub.WritePump(client)
}
