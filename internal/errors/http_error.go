package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// Helpers for common errors
var (
	ErrBadRequest      = func(msg string) *HTTPError { return NewHTTPError(http.StatusBadRequest, msg) }
	ErrTooManyRequests = func(msg string) *HTTPError { return NewHTTPError(http.StatusTooManyRequests, msg) }
)

var (
	// ErrInvalidRequest is returned for an empty or unknown category, an empty slot list,
	// or slot ids that the category does not define.
	ErrInvalidRequest = stderrors.New("invalid booking data")
	// ErrStorage marks a ledger that could not be read, parsed or written.
	ErrStorage = stderrors.New("ledger storage error")
)

// SlotConflictError reports the first requested slot that is already booked.
type SlotConflictError struct {
	Category string
	Slot     string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("Slot %s is already booked", e.Slot)
}

// HTTPStatus maps a domain or handler error to a response status.
func HTTPStatus(err error) int {
	var httpErr *HTTPError
	var conflict *SlotConflictError
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.As(err, &httpErr):
		return httpErr.Code
	case stderrors.As(err, &conflict):
		return http.StatusConflict
	case stderrors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text shown to callers. Storage details stay in the logs.
func PublicMessage(err error) string {
	var httpErr *HTTPError
	var conflict *SlotConflictError
	switch {
	case stderrors.As(err, &httpErr):
		return httpErr.Message
	case stderrors.As(err, &conflict):
		return conflict.Error()
	case stderrors.Is(err, ErrInvalidRequest):
		return "Invalid booking data"
	default:
		return "Could not process booking"
	}
}
