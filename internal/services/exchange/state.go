// services/exchange/state.go
package exchange

import "github.com/smena/smena_backend/internal/models"

// RequestState — явное состояние заявки, выведенное из пары решений,
// флага применения и причины отказа. Терминальное правило живёт в одном
// месте, а не пересобирается в каждом обработчике.
type RequestState string

const (
	// Оба решения ещё не приняты.
	StatePendingBoth RequestState = "PENDING_BOTH"
	// Принимающий сотрудник одобрил, ждём менеджера.
	StateAwaitingManager RequestState = "AWAITING_MANAGER"
	// Менеджер одобрил, ждём принимающего сотрудника.
	StateAwaitingRequested RequestState = "AWAITING_REQUESTED"
	// Оба одобрили, обмен ещё не применён (переходное состояние).
	StateBothApproved RequestState = "BOTH_APPROVED"
	// Терминал: отказ любой стороны либо провал применения.
	StateRejected RequestState = "REJECTED"
	// Терминал: обмен применён.
	StateApplied RequestState = "APPLIED"
)

// StateOf выводит состояние заявки.
func StateOf(r *models.ShiftRequest) RequestState {
	switch {
	case r.FailureReason != nil:
		return StateRejected
	case r.ApprovedByRequested == models.DecisionRejected || r.ApprovedByManager == models.DecisionRejected:
		return StateRejected
	case r.Applied:
		return StateApplied
	case r.ApprovedByRequested == models.DecisionApproved && r.ApprovedByManager == models.DecisionApproved:
		return StateBothApproved
	case r.ApprovedByRequested == models.DecisionApproved:
		return StateAwaitingManager
	case r.ApprovedByManager == models.DecisionApproved:
		return StateAwaitingRequested
	default:
		return StatePendingBoth
	}
}

// Terminal сообщает, принимает ли заявка ещё решения.
func Terminal(state RequestState) bool {
	return state == StateRejected || state == StateApplied
}
