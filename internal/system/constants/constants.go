package constants

const (
	AuthorizationHeaderName = "Authorization"
	ContentTypeHeaderName   = "Content-Type"
	AcceptHeaderName        = "Accept"
	CorrelationIDHeaderName = "X-Correlation-ID"
	ContentTypeJSON         = "application/json"
	ContentTypePDF          = "application/pdf"
	TokenTypeBearer         = "Bearer"

	APIBasePath = "/api/v1"

	// gin context keys
	CorrelationIDKey = "correlation_id"
	WorkspaceKey     = "workspace"
	SessionIDKey     = "session_id"
)
