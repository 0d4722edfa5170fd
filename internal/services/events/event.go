package events

// Event — конверт уведомления для подключённых клиентов.
// Payload намеренно пустой или минимальный: клиент по получении события
// перечитывает состояние через обычные запросы, хаб несёт только сигнал.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Типы событий, публикуемых командами ядра.
const (
	EventShiftUpdated     = "shift-updated"
	EventMeetingUpdated   = "meeting-updated"
	EventWorkspaceCreated = "workspace-created"
	EventHeartbeat        = "heartbeat"
)
