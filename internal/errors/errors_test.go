package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestLoadError(t *testing.T) {
	err := NewLoadError("corpus.json", "missing 'dhlabids' field", nil)

	expectedMsg := "could not load corpus from 'corpus.json': missing 'dhlabids' field"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	// Test Is() method
	if !errors.Is(err, ErrCorpusLoad) {
		t.Error("Expected error to match ErrCorpusLoad sentinel")
	}

	// Test that it doesn't match other sentinels
	if errors.Is(err, ErrInvalidInput) {
		t.Error("Error should not match ErrInvalidInput")
	}
}

func TestLoadErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("unexpected end of JSON input")
	err := NewLoadError("", "payload is not valid JSON", cause)

	expectedMsg := "could not load corpus: payload is not valid JSON: unexpected end of JSON input"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Expected load error to unwrap to its cause")
	}
}

func TestValidationError(t *testing.T) {
	// Test with field
	err := NewValidationError("query", "cannot be empty")

	expectedMsg := "validation error for field 'query': cannot be empty"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	// Test without field
	err2 := NewValidationError("", "cannot be empty")

	expectedMsg2 := "validation error: cannot be empty"
	if err2.Error() != expectedMsg2 {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg2, err2.Error())
	}

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("Expected error to match ErrInvalidInput sentinel")
	}
	if !errors.Is(err2, ErrInvalidInput) {
		t.Error("Expected error without field to match ErrInvalidInput sentinel")
	}
}

func TestTransportError(t *testing.T) {
	err := NewStatusError(500, "Internal Server Error")

	expectedMsg := "search API responded 500: Internal Server Error"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
	if !errors.Is(err, ErrTransport) {
		t.Error("Expected error to match ErrTransport sentinel")
	}

	netErr := NewNetworkError(fmt.Errorf("connection refused"))
	if netErr.StatusCode != 0 {
		t.Errorf("Expected status 0 for network errors, got %d", netErr.StatusCode)
	}
	expectedMsg = "search API unreachable: connection refused"
	if netErr.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, netErr.Error())
	}
}

func TestRecordNotFoundError(t *testing.T) {
	err := NewRecordNotFoundError("URN:NBN:no-nb_digibok_2008")

	expectedMsg := "record with identifier 'URN:NBN:no-nb_digibok_2008' not found"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
	if !errors.Is(err, ErrRecordNotFound) {
		t.Error("Expected error to match ErrRecordNotFound sentinel")
	}
}

func TestSessionNotFoundError(t *testing.T) {
	err := NewSessionNotFoundError("abc")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Error("Expected error to match ErrSessionNotFound sentinel")
	}
}

func TestErrorChaining(t *testing.T) {
	// Test that our custom errors can be wrapped and unwrapped
	originalErr := NewStatusError(404, "not found")
	wrappedErr := fmt.Errorf("searching: %w", originalErr)

	if !errors.Is(wrappedErr, ErrTransport) {
		t.Error("Expected wrapped error to still match ErrTransport sentinel")
	}

	var transportErr *TransportError
	if !errors.As(wrappedErr, &transportErr) {
		t.Fatal("Expected to be able to unwrap to TransportError")
	}

	if transportErr.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", transportErr.StatusCode)
	}
}
