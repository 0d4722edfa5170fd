// services/exchange/workflow.go
package exchange

import (
	"context"
	"errors"
	"log"

	"github.com/smena/smena_backend/internal/models"
	"github.com/smena/smena_backend/internal/pkg/apperrors"
	"github.com/smena/smena_backend/internal/services/events"
	"github.com/smena/smena_backend/internal/services/scheduling"
)

// RequestStore — хранение заявок. SetRequestedDecision/SetManagerDecision
// пишут каждая только свою колонку и только из PENDING (иначе
// InvalidTransitionError) — параллельные решения сторон не затирают друг
// друга. ApplyExchange обязан выполнить смену владельцев и пометку applied
// одной транзакцией с повторной проверкой конфликтов; при конфликте
// возвращает ConflictError, ничего не меняя.
type RequestStore interface {
	GetRequest(ctx context.Context, id int) (*models.ShiftRequest, error)
	CreateRequest(ctx context.Context, req *models.ShiftRequest) error
	SetRequestedDecision(ctx context.Context, id int, decision models.Decision) error
	SetManagerDecision(ctx context.Context, id int, decision models.Decision) error
	SetFailureReason(ctx context.Context, id int, reason string) error
	ApplyExchange(ctx context.Context, req *models.ShiftRequest, assignments map[int]int) error
}

// ShiftReader — чтение смен для валидации и проверки конфликтов.
type ShiftReader interface {
	scheduling.ShiftFinder
	GetShift(ctx context.Context, id int) (*models.Shift, error)
}

// MembershipStore — роль пользователя в рабочем пространстве
// (пустая строка — не участник).
type MembershipStore interface {
	Role(ctx context.Context, workspaceID, userID int) (string, error)
}

type Publisher interface {
	PublishToWorkspace(workspaceID int, event events.Event)
}

// Service — воркфлоу двойного одобрения cover/trade заявок.
type Service struct {
	Requests RequestStore
	Shifts   ShiftReader
	Members  MembershipStore
	Checker  *scheduling.ConflictChecker
	Bus      Publisher
}

func NewService(requests RequestStore, shifts ShiftReader, members MembershipStore, bus Publisher) *Service {
	return &Service{
		Requests: requests,
		Shifts:   shifts,
		Members:  members,
		Checker:  scheduling.NewConflictChecker(shifts),
		Bus:      bus,
	}
}

// CreateInput — параметры новой заявки. RequestedShiftID == nil — cover.
type CreateInput struct {
	WorkspaceID      int  `json:"workspace_id"`
	LendedShiftID    int  `json:"lended_shift_id"`
	RequestedUserID  int  `json:"requested_user_id"`
	RequestedShiftID *int `json:"requested_shift_id,omitempty"`
}

// Create заводит заявку в состоянии PENDING/PENDING.
func (s *Service) Create(ctx context.Context, callerID int, in CreateInput) (*models.ShiftRequest, error) {
	lended, err := s.Shifts.GetShift(ctx, in.LendedShiftID)
	if err != nil {
		return nil, err
	}
	if lended.WorkspaceID != in.WorkspaceID {
		return nil, apperrors.NewNotFound("shift", in.LendedShiftID)
	}
	if lended.UserID != callerID {
		return nil, apperrors.NewAuthorization("only the shift owner can offer it")
	}
	if in.RequestedUserID == 0 {
		return nil, apperrors.NewValidation("requested_user_id is required")
	}
	if in.RequestedUserID == callerID {
		return nil, apperrors.NewValidation("cannot request a shift exchange with yourself")
	}

	if in.RequestedShiftID != nil {
		if *in.RequestedShiftID == in.LendedShiftID {
			return nil, apperrors.NewValidation("requested shift must differ from the lended one")
		}
		requested, err := s.Shifts.GetShift(ctx, *in.RequestedShiftID)
		if err != nil {
			return nil, err
		}
		if requested.WorkspaceID != in.WorkspaceID {
			return nil, apperrors.NewNotFound("shift", *in.RequestedShiftID)
		}
		if requested.UserID != in.RequestedUserID {
			return nil, apperrors.NewValidation("requested shift does not belong to the requested user")
		}
	}

	req := &models.ShiftRequest{
		WorkspaceID:         in.WorkspaceID,
		RequestorID:         callerID,
		RequestedUserID:     in.RequestedUserID,
		LendedShiftID:       in.LendedShiftID,
		RequestedShiftID:    in.RequestedShiftID,
		ApprovedByRequested: models.DecisionPending,
		ApprovedByManager:   models.DecisionPending,
	}
	if err := s.Requests.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	s.publishUpdated(req)
	return req, nil
}

// DecideAsRequestedUser — решение принимающего сотрудника.
func (s *Service) DecideAsRequestedUser(ctx context.Context, callerID, requestID int, decision models.Decision) (*models.ShiftRequest, error) {
	req, err := s.loadForDecision(ctx, requestID, decision)
	if err != nil {
		return nil, err
	}
	if req.RequestedUserID != callerID {
		return nil, apperrors.NewAuthorization("only the requested user can respond to this request")
	}

	if err := s.Requests.SetRequestedDecision(ctx, req.ID, decision); err != nil {
		return nil, err
	}
	return s.finishDecision(ctx, req.ID)
}

// DecideAsManager — решение менеджера рабочего пространства.
func (s *Service) DecideAsManager(ctx context.Context, callerID, requestID int, decision models.Decision) (*models.ShiftRequest, error) {
	req, err := s.loadForDecision(ctx, requestID, decision)
	if err != nil {
		return nil, err
	}
	role, err := s.Members.Role(ctx, req.WorkspaceID, callerID)
	if err != nil {
		return nil, err
	}
	if !models.IsManagerRole(role) {
		return nil, apperrors.NewAuthorization("manager role required")
	}

	if err := s.Requests.SetManagerDecision(ctx, req.ID, decision); err != nil {
		return nil, err
	}
	return s.finishDecision(ctx, req.ID)
}

func (s *Service) loadForDecision(ctx context.Context, requestID int, decision models.Decision) (*models.ShiftRequest, error) {
	if decision != models.DecisionApproved && decision != models.DecisionRejected {
		return nil, apperrors.NewValidation("decision must be APPROVED or REJECTED")
	}
	req, err := s.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if Terminal(StateOf(req)) {
		return nil, apperrors.NewInvalidTransition("request is already finalized")
	}
	return req, nil
}

// finishDecision перечитывает заявку после записи решения — вторая
// сторона могла решить параллельно — и применяет обмен, как только обе
// одобрили. Порядок одобрений значения не имеет.
func (s *Service) finishDecision(ctx context.Context, requestID int) (*models.ShiftRequest, error) {
	req, err := s.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if StateOf(req) != StateBothApproved {
		s.publishUpdated(req)
		return req, nil
	}
	return s.applyExchange(ctx, req)
}

// applyExchange переназначает владельцев смен. Перед применением
// конфликты проверяются заново для каждой принимающей стороны против
// её остальных смен (обмениваемые исключаются); конфликт переводит
// заявку в REJECTED с зафиксированной причиной, смены не трогаются.
func (s *Service) applyExchange(ctx context.Context, req *models.ShiftRequest) (*models.ShiftRequest, error) {
	lended, err := s.Shifts.GetShift(ctx, req.LendedShiftID)
	if err != nil {
		return nil, err
	}

	exclude := []int{req.LendedShiftID}
	assignments := map[int]int{req.LendedShiftID: req.RequestedUserID}

	var requested *models.Shift
	if req.IsTrade() {
		requested, err = s.Shifts.GetShift(ctx, *req.RequestedShiftID)
		if err != nil {
			return nil, err
		}
		exclude = append(exclude, requested.ID)
		assignments[requested.ID] = req.RequestorID
	}

	conflict, err := s.Checker.HasConflict(ctx, req.WorkspaceID, req.RequestedUserID, lended.StartTime, lended.EndTime, exclude...)
	if err != nil {
		return nil, err
	}
	if !conflict && requested != nil {
		conflict, err = s.Checker.HasConflict(ctx, req.WorkspaceID, req.RequestorID, requested.StartTime, requested.EndTime, exclude...)
		if err != nil {
			return nil, err
		}
	}
	if conflict {
		return s.markFailed(ctx, req, "exchange would create an overlapping shift")
	}

	if err := s.Requests.ApplyExchange(ctx, req, assignments); err != nil {
		var conflictErr *apperrors.ConflictError
		if errors.As(err, &conflictErr) {
			// Гонка: кто-то успел занять интервал между проверкой и транзакцией.
			return s.markFailed(ctx, req, conflictErr.Message)
		}
		return nil, err
	}

	req.Applied = true
	s.publishUpdated(req)
	return req, nil
}

func (s *Service) markFailed(ctx context.Context, req *models.ShiftRequest, reason string) (*models.ShiftRequest, error) {
	req.FailureReason = &reason
	if err := s.Requests.SetFailureReason(ctx, req.ID, reason); err != nil {
		log.Printf("Failed to record apply failure for request %d: %v", req.ID, err)
		return nil, err
	}
	s.publishUpdated(req)
	return req, apperrors.NewApplyFailure(reason)
}

func (s *Service) publishUpdated(req *models.ShiftRequest) {
	s.Bus.PublishToWorkspace(req.WorkspaceID, events.Event{
		Type:    events.EventShiftUpdated,
		Payload: map[string]int{"request_id": req.ID},
	})
}
