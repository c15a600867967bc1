package apierror

type ErrorResponse struct {
	Code        string            `json:"error"`
	Description string            `json:"error_description"`
	Fields      map[string]string `json:"field_errors,omitempty"`
}
