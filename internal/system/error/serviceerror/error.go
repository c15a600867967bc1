package serviceerror

import "github.com/approvalflow/workflow-client/internal/system/error/codes"

type ServiceErrorType string

const (
	ClientErrorType ServiceErrorType = "client_error"
	ServerErrorType ServiceErrorType = "server_error"
)

type ServiceError struct {
	Code             string            `json:"code"`
	Type             ServiceErrorType  `json:"type"`
	Error            string            `json:"error"`
	ErrorDescription string            `json:"error_description,omitempty"`
	FieldErrors      map[string]string `json:"field_errors,omitempty"`
}

var (
	InternalServerError = ServiceError{
		Type:             ServerErrorType,
		Code:             codes.InternalError,
		Error:            "internal_error",
		ErrorDescription: "An unexpected error occurred",
	}

	InvalidRequestError = ServiceError{
		Type:             ClientErrorType,
		Code:             codes.InvalidRequest,
		Error:            "invalid_request",
		ErrorDescription: "The request is invalid",
	}

	ValidationError = ServiceError{
		Type:             ClientErrorType,
		Code:             codes.ValidationError,
		Error:            "validation_error",
		ErrorDescription: "Validation failed",
	}

	NotFoundError = ServiceError{
		Type:             ClientErrorType,
		Code:             codes.NotFound,
		Error:            "not_found",
		ErrorDescription: "Resource not found",
	}

	AuthenticationLostError = ServiceError{
		Type:             ClientErrorType,
		Code:             codes.Unauthenticated,
		Error:            "authentication_lost",
		ErrorDescription: "Authentication is required",
	}

	ForbiddenError = ServiceError{
		Type:             ClientErrorType,
		Code:             codes.Forbidden,
		Error:            "forbidden",
		ErrorDescription: "The action is not permitted",
	}

	RemoteFailureError = ServiceError{
		Type:             ServerErrorType,
		Code:             codes.RemoteFailure,
		Error:            "remote_failure",
		ErrorDescription: "The request service is unavailable, please try again",
	}

	DecodeFailureError = ServiceError{
		Type:             ServerErrorType,
		Code:             codes.DecodeFailure,
		Error:            "decode_failure",
		ErrorDescription: "The request service returned an unexpected payload",
	}
)

func CustomServiceError(baseError ServiceError, description string) *ServiceError {
	return &ServiceError{
		Type:             baseError.Type,
		Code:             baseError.Code,
		Error:            baseError.Error,
		ErrorDescription: description,
	}
}

// FieldValidationError builds a validation error carrying per-field messages.
func FieldValidationError(fields map[string]string) *ServiceError {
	err := CustomServiceError(ValidationError, ValidationError.ErrorDescription)
	err.FieldErrors = fields
	return err
}

// Is reports whether err carries the same error kind as base.
func (err *ServiceError) Is(base ServiceError) bool {
	return err != nil && err.Error == base.Error
}

// String renders the error for logs and terminal output.
func (err *ServiceError) String() string {
	if err == nil {
		return ""
	}
	if err.ErrorDescription == "" {
		return err.Error
	}
	return err.Error + ": " + err.ErrorDescription
}
