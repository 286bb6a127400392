package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	// ErrConfiguration marks required settings (credentials, business
	// identity) as absent. Features degrade instead of crashing.
	ErrConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// ErrAuth marks a failed OAuth exchange or a token missing from the
	// response. Recorded on the invitation, never thrown to the trigger.
	ErrAuth ErrorCode = "AUTH_ERROR"

	// ErrResolution marks a failed business-unit lookup. Soft failure.
	ErrResolution ErrorCode = "RESOLUTION_ERROR"

	// ErrDispatch marks a non-2xx or transport failure on the send call.
	ErrDispatch ErrorCode = "DISPATCH_ERROR"

	// ErrPersistence marks a repository failure. The only class allowed to
	// propagate out of the scheduler and the batch processor.
	ErrPersistence ErrorCode = "PERSISTENCE_ERROR"

	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	logrus.Error(details)
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Is reports whether err carries the given error code.
func Is(err error, code ErrorCode) bool {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

func MapErrorToHTTPStatus(err error) int {
	if apiErr, ok := err.(APIError); ok {
		switch apiErr.Code {
		case ErrNotFound:
			return http.StatusNotFound
		case ErrInvalidInput:
			return http.StatusBadRequest
		case ErrConfiguration:
			return http.StatusServiceUnavailable
		case ErrAuth, ErrResolution, ErrDispatch, ErrPersistence:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
