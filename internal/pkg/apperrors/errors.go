// internal/pkg/apperrors/errors.go
//
// Типизированные ошибки ядра. Все они локальные и возвращаются
// синхронно вызывающему — ядро ничего не ретраит само.
package apperrors

import "fmt"

// ConflictError — интервал смены пересекается с уже существующей
// сменой того же сотрудника.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func NewConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError — некорректный ввод (end раньше start и т.п.).
// Никогда не сохраняется в БД.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError — действие не разрешено из текущего состояния
// (повторный clock-in, clock-out во время перерыва и т.д.).
// Состояние при этом не меняется.
type InvalidTransitionError struct {
	Message string
}

func (e *InvalidTransitionError) Error() string { return e.Message }

func NewInvalidTransition(format string, args ...interface{}) *InvalidTransitionError {
	return &InvalidTransitionError{Message: fmt.Sprintf(format, args...)}
}

// AuthorizationError — решение принимает не тот, кому оно положено.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

func NewAuthorization(format string, args ...interface{}) *AuthorizationError {
	return &AuthorizationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError — смена/заявка/табель не существует или вне
// рабочего пространства вызывающего.
type NotFoundError struct {
	Resource string
	ID       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func NewNotFound(resource string, id int) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ApplyFailureError — обе стороны одобрили заявку, но контрольная
// проверка конфликтов при применении не прошла. Заявка принудительно
// переводится в REJECTED с зафиксированной причиной.
type ApplyFailureError struct {
	Reason string
}

func (e *ApplyFailureError) Error() string {
	return "apply failed: " + e.Reason
}

func NewApplyFailure(reason string) *ApplyFailureError {
	return &ApplyFailureError{Reason: reason}
}
