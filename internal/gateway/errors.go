package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/approvalflow/workflow-client/internal/system/error/serviceerror"
)

var (
	// ErrNotFound is returned when the remote API reports a missing resource
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthorized is returned when the remote API rejects the credentials or token
	ErrUnauthorized = errors.New("authentication rejected by request API")
	// ErrRemote is returned for transport failures and unexpected statuses
	ErrRemote = errors.New("request API call failed")
	// ErrDecode is returned when a 2xx payload cannot be read
	ErrDecode = errors.New("malformed request API payload")
)

// StatusError is a non-2xx response of the remote API
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("request API returned status %d: %s", e.StatusCode, e.Message)
}

// Unwrap classifies the status into one of the sentinel errors
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrRemote
	}
}

// IsRejection reports whether the remote API refused the payload itself
func (e *StatusError) IsRejection() bool {
	return e.StatusCode == http.StatusBadRequest ||
		e.StatusCode == http.StatusConflict ||
		e.StatusCode == http.StatusUnprocessableEntity
}

// ToServiceError maps a gateway error onto the service error taxonomy.
// notFound is the description used when the resource is missing.
func ToServiceError(err error, notFound string) *serviceerror.ServiceError {
	if err == nil {
		return nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.IsRejection() && statusErr.Message != "" {
		return serviceerror.CustomServiceError(serviceerror.InvalidRequestError, statusErr.Message)
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return serviceerror.CustomServiceError(serviceerror.AuthenticationLostError,
			"Your session has expired, please sign in again")
	case errors.Is(err, ErrNotFound):
		if notFound == "" {
			return &serviceerror.NotFoundError
		}
		return serviceerror.CustomServiceError(serviceerror.NotFoundError, notFound)
	case errors.Is(err, ErrDecode):
		return &serviceerror.DecodeFailureError
	default:
		return &serviceerror.RemoteFailureError
	}
}
