// services/events/hub.go
package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub держит реестр живых подключений и рассылает события по
// рабочему пространству или по пользователю. Все мутации реестра
// сериализованы одной горутиной Run — внешних блокировок нет.
type Hub struct {
	clients              map[string]*Client
	workspaceSubscribers map[int]map[string]*Client

	register   chan *Client
	unregister chan string
	publish    chan publishJob
	stats      chan chan Stats
}

type publishJob struct {
	workspaceID int
	userID      int
	data        []byte
}

// Stats — снимок размера реестра (для /health и тестов).
type Stats struct {
	Clients    int `json:"clients"`
	Workspaces int `json:"workspaces"`
}

func NewHub() *Hub {
	h := &Hub{
		clients:              make(map[string]*Client),
		workspaceSubscribers: make(map[int]map[string]*Client),
		register:             make(chan *Client),
		unregister:           make(chan string),
		publish:              make(chan publishJob),
		stats:                make(chan chan Stats),
	}
	go h.Run()
	return h
}

// Connect регистрирует новое подключение и возвращает клиента.
// workspaceID == 0 — клиент без подписки на пространство.
func (h *Hub) Connect(userID, workspaceID int, isAdmin bool, conn *websocket.Conn) *Client {
	client := &Client{
		ID:          uuid.NewString(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		IsAdmin:     isAdmin,
		Conn:        conn,
		Send:        make(chan []byte, 256),
	}
	h.register <- client
	return client
}

// Disconnect снимает клиента с учёта. Повторный вызов безопасен.
func (h *Hub) Disconnect(clientID string) {
	h.unregister <- clientID
}

// PublishToWorkspace отправляет событие всем подписчикам пространства.
func (h *Hub) PublishToWorkspace(workspaceID int, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal event %q: %v", event.Type, err)
		return
	}
	h.publish <- publishJob{workspaceID: workspaceID, data: data}
}

// PublishToUser отправляет событие всем подключениям пользователя,
// независимо от подписки на пространство.
func (h *Hub) PublishToUser(userID int, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal event %q: %v", event.Type, err)
		return
	}
	h.publish <- publishJob{userID: userID, data: data}
}

// Stats возвращает снимок реестра через цикл Run (без гонок).
func (h *Hub) Stats() Stats {
	reply := make(chan Stats, 1)
	h.stats <- reply
	return <-reply
}

// Run — единственный владелец обоих отображений реестра.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.ID] = client
			if client.WorkspaceID != 0 {
				subs, ok := h.workspaceSubscribers[client.WorkspaceID]
				if !ok {
					subs = make(map[string]*Client)
					h.workspaceSubscribers[client.WorkspaceID] = subs
				}
				subs[client.ID] = client
			}
			// Немедленный heartbeat: клиент знает, что подписка действует.
			// Шлётся отсюда — каналом Send владеет только этот цикл.
			if data, err := json.Marshal(Event{Type: EventHeartbeat}); err == nil {
				h.deliver(client.ID, client, data)
			}

		case clientID := <-h.unregister:
			h.removeClient(clientID)

		case job := <-h.publish:
			if job.workspaceID != 0 {
				for id, client := range h.workspaceSubscribers[job.workspaceID] {
					h.deliver(id, client, job.data)
				}
			} else {
				for id, client := range h.clients {
					if client.UserID == job.userID {
						h.deliver(id, client, job.data)
					}
				}
			}

		case reply := <-h.stats:
			reply <- Stats{Clients: len(h.clients), Workspaces: len(h.workspaceSubscribers)}
		}
	}
}

// deliver пишет в буфер клиента, не блокируясь: медленный клиент
// отключается, остальных это не задерживает.
func (h *Hub) deliver(clientID string, client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		log.Printf("Client %s send buffer full, dropping connection", clientID)
		h.removeClient(clientID)
	}
}

func (h *Hub) removeClient(clientID string) {
	client, ok := h.clients[clientID]
	if !ok {
		return
	}
	delete(h.clients, clientID)
	if client.WorkspaceID != 0 {
		if subs, ok := h.workspaceSubscribers[client.WorkspaceID]; ok {
			delete(subs, clientID)
			if len(subs) == 0 {
				delete(h.workspaceSubscribers, client.WorkspaceID)
			}
		}
	}
	close(client.Send)
}

// ReadPump читает подключение только ради обнаружения закрытия:
// входящие сообщения от клиентов хаб не интерпретирует.
func (h *Hub) ReadPump(client *Client) {
	defer func() {
		h.Disconnect(client.ID)
		client.Conn.Close()
	}()

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

// WritePump переливает буфер клиента в сокет и раз в 30 секунд шлёт
// ping, чтобы прокси не закрывали простаивающее соединение.
func (h *Hub) WritePump(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			client.Conn.WriteMessage(websocket.TextMessage, message)
		case <-ticker.C:
			client.Conn.WriteMessage(websocket.PingMessage, nil)
		}
	}
}
