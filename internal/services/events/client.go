// services/events/client.go
package events

import "github.com/gorilla/websocket"

// Client — одно живое подключение. Клиент подписан максимум на одно
// рабочее пространство (WorkspaceID == 0 — без подписки), но всегда
// адресуем по UserID.
type Client struct {
	ID          string
	UserID      int
	WorkspaceID int
	IsAdmin     bool
	Conn        *websocket.Conn
	Send        chan []byte
}
