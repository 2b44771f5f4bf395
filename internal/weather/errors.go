package weather

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidRequest means the input could not be turned into a request URL.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrTransport means the network call itself failed.
	ErrTransport = errors.New("transport failure")
	// ErrInvalidCredentials is a 401 without a decodable error envelope.
	ErrInvalidCredentials = errors.New("invalid api credentials")
	// ErrAPIRejected is any other classified upstream error.
	ErrAPIRejected = errors.New("api rejected request")
	// ErrDecoding means a body did not match the expected schema.
	ErrDecoding = errors.New("decoding failure")
)

// TransportError wraps the cause of a failed network call.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTransport, e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// APIError carries the upstream's human-readable rejection message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d): %s", ErrAPIRejected, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return ErrAPIRejected }

// DecodeError reports which schema a body failed to match.
type DecodeError struct {
	Target string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDecoding, e.Target, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecoding, e.Err} }

// Retryable reports whether a caller may reasonably retry after err:
// transport failures and upstream 5xx rejections.
func Retryable(err error) bool {
	if errors.Is(err, ErrTransport) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return false
}
