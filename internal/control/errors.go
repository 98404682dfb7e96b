package control

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/lumieapp/lumie-sync/internal/errors"
)

// APIError implements huma.StatusError, mapping domain errors to HTTP
// responses with a consistent structure.
type APIError struct {
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if domainerrors.As(err, &domainErr) {
				return &APIError{
					status:  statusOf(domainErr.Code),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
				}
			}
		}

		return &APIError{
			status:  status,
			Code:    codeOf(status),
			Message: message,
		}
	}
}

// statusOf maps taxonomy codes to HTTP statuses. Network and decoding
// failures surface as bad gateway: the fault is upstream of this process.
func statusOf(code domainerrors.Code) int {
	switch code {
	case domainerrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case domainerrors.CodeNotFound:
		return http.StatusNotFound
	case domainerrors.CodeConflict:
		return http.StatusConflict
	case domainerrors.CodeValidation:
		return http.StatusBadRequest
	case domainerrors.CodeNetwork, domainerrors.CodeDecoding:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// codeOf maps HTTP statuses back to taxonomy codes for errors huma raises
// itself, such as request validation failures.
func codeOf(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeConflict)
	default:
		return string(domainerrors.CodeInternal)
	}
}
