package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation reports malformed input to a registry or executor call.
// Never retried; surfaced to the caller immediately.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidURL(url string) *AppError {
	return New("VAL_002", fmt.Sprintf("invalid webhook URL: %s", url), http.StatusBadRequest)
}

func ErrEmptyEventTypes() *AppError {
	return New("VAL_003", "at least one event type is required", http.StatusBadRequest)
}

// ---- Not Found (NF) ----

func ErrNotFound(entity string) *AppError {
	return New("NF_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Delivery (DLV) ----

// ErrTransientDelivery reports a network/timeout failure talking to a
// subscriber endpoint. Drives the retry/backoff state machine.
func ErrTransientDelivery(err error) *AppError {
	return Wrap("DLV_001", "webhook delivery failed", http.StatusBadGateway, err)
}

// ErrTerminalDelivery reports a delivery that can never succeed, such as a
// record referencing a deleted webhook.
func ErrTerminalDelivery(message string) *AppError {
	return New("DLV_002", message, http.StatusUnprocessableEntity)
}

// ---- Storage (SYS) ----

// ErrStorage wraps an underlying durable-store failure. The worker loop logs
// these and proceeds to the next tick.
func ErrStorage(err error) *AppError {
	return Wrap("SYS_001", "internal storage error", http.StatusInternalServerError, err)
}

// ---- Queue (QUEUE) ----

// ErrQueueUnavailable reports that the fast-queue backing store is
// unreachable. Fatal to the current tick, not to the process.
func ErrQueueUnavailable(err error) *AppError {
	return Wrap("QUEUE_001", "delivery queue unavailable", http.StatusServiceUnavailable, err)
}

// ---- Predicates ----

func is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsValidation reports whether err is any VAL_* error.
func IsValidation(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return len(appErr.Code) >= 3 && appErr.Code[:3] == "VAL"
	}
	return false
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return is(err, "NF_001")
}

// IsStorage reports whether err is a storage-layer error.
func IsStorage(err error) bool {
	return is(err, "SYS_001")
}

// IsQueueUnavailable reports whether err is a queue availability error.
func IsQueueUnavailable(err error) bool {
	return is(err, "QUEUE_001")
}
