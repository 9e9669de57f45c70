package errors

import "fmt"

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeProtocol    ErrorType = "oai_protocol"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeBadRequest  ErrorType = "bad_request"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a harvest error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// OAIError is an error reported by the OAI-PMH endpoint itself, carried in
// the response envelope rather than the HTTP status.
type OAIError struct {
	Code    string
	Message string
}

func (e *OAIError) Error() string {
	return fmt.Sprintf("oai-pmh %s: %s", e.Code, e.Message)
}

// IsEmptyResult reports whether the protocol error merely signals an empty
// listing. These are not failures for a harvest run.
func (e *OAIError) IsEmptyResult() bool {
	return e.Code == "noRecordsMatch" || e.Code == "noSetHierarchy"
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeProtocol:
		return true
	case ErrorTypeParsing, ErrorTypeNotFound, ErrorTypeBadRequest:
		return false
	default:
		return false
	}
}

// IsRetryableOAICode checks if an OAI-PMH protocol error code is worth
// retrying. The DDB endpoint intermittently answers GetRecord with
// cannotDisseminateFormat or idDoesNotExist for records that do exist;
// a later attempt usually succeeds.
func IsRetryableOAICode(code string) bool {
	switch code {
	case "cannotDisseminateFormat", "idDoesNotExist":
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}
