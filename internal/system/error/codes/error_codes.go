package codes

// Error codes for the request workflow client
const (
	// General errors
	InternalError   = "RWC-5000"
	InvalidRequest  = "RWC-4000"
	ValidationError = "RWC-4001"
	Unauthenticated = "RWC-4010"
	Forbidden       = "RWC-4030"
	NotFound        = "RWC-4040"

	// Remote API errors
	RemoteFailure = "RWC-5020"
	DecodeFailure = "RWC-5021"

	// Request-specific errors
	RequestNotFound      = "RWC-4041"
	RequestNotPending    = "RWC-4031"
	ReviewNotPermitted   = "RWC-4032"
	SubmitNotPermitted   = "RWC-4033"
	RejectReasonTooShort = "RWC-4002"
	InvalidPageSize      = "RWC-4003"
)
