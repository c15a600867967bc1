package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/approvalflow/workflow-client/internal/system/error/apierror"
	"github.com/approvalflow/workflow-client/internal/system/error/serviceerror"
)

// StatusCodeFor maps a ServiceError to the HTTP status code returned to the view.
func StatusCodeFor(err *serviceerror.ServiceError) int {
	switch {
	case err.Is(serviceerror.NotFoundError):
		return http.StatusNotFound
	case err.Is(serviceerror.AuthenticationLostError):
		return http.StatusUnauthorized
	case err.Is(serviceerror.ForbiddenError):
		return http.StatusForbidden
	case err.Is(serviceerror.RemoteFailureError), err.Is(serviceerror.DecodeFailureError):
		return http.StatusBadGateway
	case err.Type == serviceerror.ClientErrorType:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// SendError writes a ServiceError as a JSON response with the matching status code
func SendError(c *gin.Context, err *serviceerror.ServiceError) {
	c.AbortWithStatusJSON(StatusCodeFor(err), apierror.ErrorResponse{
		Code:        err.Error,
		Description: err.ErrorDescription,
		Fields:      err.FieldErrors,
	})
}

// SendOKResponse sends a 200 OK response
func SendOKResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SendCreatedResponse sends a 201 Created response
func SendCreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// SendNoContentResponse sends a 204 No Content response
func SendNoContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
