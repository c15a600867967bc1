// Package validator checks form input before anything is sent to the remote API.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/approvalflow/workflow-client/internal/request/model"
	"github.com/approvalflow/workflow-client/internal/system/error/codes"
	"github.com/approvalflow/workflow-client/internal/system/error/serviceerror"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	if err := v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return model.Priority(fl.Field().String()).IsValid()
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidateDraft checks a new request draft
func ValidateDraft(draft model.Draft) *serviceerror.ServiceError {
	return toServiceError(validate.Struct(draft))
}

// ValidateRejectReason checks the reason given for a rejection
func ValidateRejectReason(reason string) *serviceerror.ServiceError {
	err := toServiceError(validate.Struct(model.RejectInput{Reason: reason}))
	if err != nil {
		err.Code = codes.RejectReasonTooShort
	}
	return err
}

func toServiceError(err error) *serviceerror.ServiceError {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return serviceerror.FieldValidationError(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "priority":
		return fmt.Sprintf("%s must be one of Low, Medium, High", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
