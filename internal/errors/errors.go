package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrCorpusLoad is returned when the corpus payload cannot be loaded
	ErrCorpusLoad = errors.New("corpus load failed")

	// ErrCorpusNotLoaded is returned when a search is attempted before the corpus is loaded
	ErrCorpusNotLoaded = errors.New("corpus not loaded")

	// ErrAlreadyLoaded is returned when a store that has already been loaded is loaded again
	ErrAlreadyLoaded = errors.New("corpus already loaded")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransport is returned when the search API call fails
	ErrTransport = errors.New("search request failed")

	// ErrSearchInFlight is returned when a search is triggered while another one is still running
	ErrSearchInFlight = errors.New("a search is already in progress")

	// ErrSearchCapacity is returned when the service already has its maximum number of searches in flight
	ErrSearchCapacity = errors.New("too many searches in flight")

	// ErrRecordNotFound is returned when an identifier is not in the corpus
	ErrRecordNotFound = errors.New("record not found")

	// ErrSessionNotFound is returned when a session is unknown or expired
	ErrSessionNotFound = errors.New("session not found")
)

// LoadError represents a corpus load failure with context
type LoadError struct {
	Source string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := "could not load corpus"
	if e.Source != "" {
		msg += fmt.Sprintf(" from '%s'", e.Source)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Is(target error) bool {
	return target == ErrCorpusLoad
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a new LoadError
func NewLoadError(source, reason string, err error) *LoadError {
	return &LoadError{Source: source, Reason: reason, Err: err}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// TransportError represents a failed call to the search API.
// StatusCode is 0 when no response was received.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("search API responded %d: %s", e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("search API unreachable: %v", e.Err)
	}
	return "search API unreachable"
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewStatusError creates a TransportError for a non-2xx response
func NewStatusError(statusCode int, body string) *TransportError {
	return &TransportError{StatusCode: statusCode, Body: body}
}

// NewNetworkError creates a TransportError for a request that never got a response
func NewNetworkError(err error) *TransportError {
	return &TransportError{Err: err}
}

// RecordNotFoundError represents a lookup miss with context
type RecordNotFoundError struct {
	Identifier string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("record with identifier '%s' not found", e.Identifier)
}

func (e *RecordNotFoundError) Is(target error) bool {
	return target == ErrRecordNotFound
}

// NewRecordNotFoundError creates a new RecordNotFoundError
func NewRecordNotFoundError(identifier string) *RecordNotFoundError {
	return &RecordNotFoundError{Identifier: identifier}
}

// SessionNotFoundError represents an unknown session with context
type SessionNotFoundError struct {
	SessionID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session '%s' not found", e.SessionID)
}

func (e *SessionNotFoundError) Is(target error) bool {
	return target == ErrSessionNotFound
}

// NewSessionNotFoundError creates a new SessionNotFoundError
func NewSessionNotFoundError(sessionID string) *SessionNotFoundError {
	return &SessionNotFoundError{SessionID: sessionID}
}
