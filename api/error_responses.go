package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/imagination-concordance/internal/errors"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	// Client Error Codes (4xx)
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrorCodeInvalidJSON      ErrorCode = "INVALID_JSON"
	ErrorCodeRecordNotFound   ErrorCode = "RECORD_NOT_FOUND"
	ErrorCodeSearchInFlight   ErrorCode = "SEARCH_IN_FLIGHT"
	ErrorCodeSessionRequired  ErrorCode = "SESSION_REQUIRED"
	ErrorCodeTooManySearches  ErrorCode = "TOO_MANY_SEARCHES"

	// Server Error Codes (5xx)
	ErrorCodeInternalError   ErrorCode = "INTERNAL_ERROR"
	ErrorCodeCorpusNotLoaded ErrorCode = "CORPUS_NOT_LOADED"
	ErrorCodeUpstreamFailed  ErrorCode = "UPSTREAM_FAILED"
)

// ErrorDetail provides additional context for an error
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// APIError represents a standardized API error response
type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIErrorResponse creates a standardized error response
func APIErrorResponse(code ErrorCode, message string, details ...ErrorDetail) *APIError {
	return &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// SendError sends a standardized error response
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	errorResponse := APIErrorResponse(code, message, details...)

	// Add request ID if available
	if requestID, exists := c.Get(requestIDKey); exists {
		if id, ok := requestID.(string); ok {
			errorResponse.RequestID = id
		}
	}

	c.JSON(statusCode, errorResponse)
}

// SendStructuredValidationError sends a validation error with one detail per problem
func SendStructuredValidationError(c *gin.Context, result *ValidationResult) {
	details := make([]ErrorDetail, len(result.Errors))
	for i, err := range result.Errors {
		details[i] = ErrorDetail{
			Field:   err.Field,
			Message: err.Message,
			Code:    "VALIDATION_ERROR",
		}
	}

	SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed", details...)
}

// SendInvalidJSONError sends a standardized invalid JSON error
func SendInvalidJSONError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidJSON,
		"Invalid JSON in request body: "+err.Error())
}

// SendRecordNotFoundError sends a standardized record not found error
func SendRecordNotFoundError(c *gin.Context, identifier string) {
	SendError(c, http.StatusNotFound, ErrorCodeRecordNotFound,
		"Record '"+identifier+"' not found")
}

// SendSessionRequiredError rejects a request without a live session
func SendSessionRequiredError(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, ErrorCodeSessionRequired, message)
}

// SendCorpusNotLoadedError reports that searching is unavailable until the corpus loads
func SendCorpusNotLoadedError(c *gin.Context, statusMessage string) {
	message := "The metadata corpus is not loaded"
	if statusMessage != "" {
		message += ": " + statusMessage
	}
	SendError(c, http.StatusServiceUnavailable, ErrorCodeCorpusNotLoaded, message)
}

// SendInternalError sends a standardized internal server error
func SendInternalError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError,
		"Internal error during "+operation+": "+err.Error())
}

// SendSearchError maps an error returned by a search to its response
func SendSearchError(c *gin.Context, err error, statusMessage string) {
	var validationErr *internalErrors.ValidationError
	var transportErr *internalErrors.TransportError

	switch {
	case errors.As(err, &validationErr):
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed",
			ErrorDetail{Field: validationErr.Field, Message: validationErr.Message, Code: "VALIDATION_ERROR"})
	case errors.Is(err, internalErrors.ErrCorpusNotLoaded):
		SendCorpusNotLoadedError(c, statusMessage)
	case errors.Is(err, internalErrors.ErrSearchInFlight):
		SendError(c, http.StatusConflict, ErrorCodeSearchInFlight,
			"A search is already running for this session")
	case errors.Is(err, internalErrors.ErrSearchCapacity):
		SendError(c, http.StatusTooManyRequests, ErrorCodeTooManySearches,
			"Too many searches are running. Try again shortly.")
	case errors.Is(err, internalErrors.ErrSessionNotFound):
		SendSessionRequiredError(c, "Your session has expired. Reload the page to search again.")
	case errors.As(err, &transportErr):
		// The upstream status and body text are passed through verbatim.
		SendError(c, http.StatusBadGateway, ErrorCodeUpstreamFailed, transportErr.Error())
	default:
		SendInternalError(c, "search", err)
	}
}
