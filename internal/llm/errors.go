package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies a generation failure at the service boundary.
type ErrorKind int

const (
	// KindTimeout covers context deadline expiry and network timeouts.
	KindTimeout ErrorKind = iota
	// KindConnection covers connection resets and other transport failures.
	KindConnection
	// KindRateLimit corresponds to HTTP 429 or provider quota errors.
	KindRateLimit
	// KindServer corresponds to 5xx-class provider errors.
	KindServer
	// KindAuth corresponds to 401/403 responses. Never retried.
	KindAuth
	// KindBadRequest corresponds to other 4xx responses. Never retried.
	KindBadRequest
	// KindEmptyResponse means the provider answered but produced no text.
	KindEmptyResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindRateLimit:
		return "rate_limit"
	case KindServer:
		return "server"
	case KindAuth:
		return "auth"
	case KindBadRequest:
		return "bad_request"
	case KindEmptyResponse:
		return "empty_response"
	}
	return "unknown"
}

// GenerationError is the typed error every TextGenerator returns on failure.
// Classification happens once, here, so the retry layer can pattern-match on
// Kind instead of sniffing error strings.
type GenerationError struct {
	Kind ErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("generation failed (%s)", e.Kind)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could plausibly succeed.
func (e *GenerationError) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindConnection, KindRateLimit, KindServer, KindEmptyResponse:
		return true
	}
	return false
}

// NewGenerationError wraps err with an explicit kind.
func NewGenerationError(kind ErrorKind, err error) *GenerationError {
	return &GenerationError{Kind: kind, Err: err}
}

// ClassifyTransportError maps low-level call failures to a GenerationError.
func ClassifyTransportError(err error) *GenerationError {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &GenerationError{Kind: KindTimeout, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &GenerationError{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &GenerationError{Kind: KindTimeout, Err: err}
		}
		return &GenerationError{Kind: KindConnection, Err: err}
	}
	return &GenerationError{Kind: KindConnection, Err: err}
}

// ClassifyHTTPStatus maps an HTTP status code to a GenerationError kind.
func ClassifyHTTPStatus(code int) ErrorKind {
	switch {
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code >= 500:
		return KindServer
	case code >= 400:
		return KindBadRequest
	}
	return KindServer
}
