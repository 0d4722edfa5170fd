// models/shift_request.go
package models

import "time"

// Decision — решение одной из сторон по заявке на обмен сменами.
type Decision string

const (
	DecisionPending  Decision = "PENDING"
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// ShiftRequest — заявка на передачу (cover) или обмен (trade) смен.
// RequestedShiftID == nil означает cover: инициатор отдаёт LendedShift.
// Иначе trade: LendedShift и RequestedShift меняются владельцами.
type ShiftRequest struct {
	ID                  int       `json:"id"`
	WorkspaceID         int       `json:"workspace_id"`
	RequestorID         int       `json:"requestor_id"`
	RequestedUserID     int       `json:"requested_user_id"`
	LendedShiftID       int       `json:"lended_shift_id"`
	RequestedShiftID    *int      `json:"requested_shift_id,omitempty"`
	ApprovedByRequested Decision  `json:"approved_by_requested"`
	ApprovedByManager   Decision  `json:"approved_by_manager"`
	Applied             bool      `json:"applied"`
	FailureReason       *string   `json:"failure_reason,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// IsTrade сообщает, является ли заявка обменом (а не передачей).
func (r *ShiftRequest) IsTrade() bool {
	return r.RequestedShiftID != nil
}
