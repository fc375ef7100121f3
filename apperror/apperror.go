package apperror

import "net/http"

// Error is the application error taxonomy. Handlers map it to an HTTP
// status in exactly one place instead of switching on error strings.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors by taxonomy code so callers can compare against the
// sentinel values below regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidRange = &Error{
		Status:  http.StatusBadRequest,
		Code:    "invalid_range",
		Message: "check-out must be after check-in",
	}
	ErrRoomUnavailable = &Error{
		Status:  http.StatusConflict,
		Code:    "room_unavailable",
		Message: "room is not available for the selected dates",
	}
	ErrInvalidTransition = &Error{
		Status:  http.StatusBadRequest,
		Code:    "invalid_transition",
		Message: "operation is not allowed in the current booking state",
	}
	ErrAlreadyCompleted = &Error{
		Status:  http.StatusBadRequest,
		Code:    "already_completed",
		Message: "payment has already been completed",
	}
	ErrNotFound = &Error{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: "resource not found",
	}
	ErrForbidden = &Error{
		Status:  http.StatusForbidden,
		Code:    "forbidden",
		Message: "you do not have access to this resource",
	}
)

// NotFound returns a not_found error with a specific message.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "not_found", Message: message}
}

// InvalidTransition returns an invalid_transition error with a specific message.
func InvalidTransition(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "invalid_transition", Message: message}
}

// BadRequest returns a 400 error with a caller-chosen code.
func BadRequest(code, message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Message: message}
}
