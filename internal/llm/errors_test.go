package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassifyTransportError(t *testing.T) {
	cases := []struct {
		err  error
		kind ErrorKind
	}{
		{context.DeadlineExceeded, KindTimeout},
		{context.Canceled, KindTimeout},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), KindTimeout},
		{errors.New("connection reset by peer"), KindConnection},
	}
	for _, c := range cases {
		got := ClassifyTransportError(c.err)
		if got.Kind != c.kind {
			t.Errorf("ClassifyTransportError(%v).Kind = %s, want %s", c.err, got.Kind, c.kind)
		}
		if !errors.Is(got, c.err) {
			t.Errorf("classified error does not unwrap to %v", c.err)
		}
	}
}

func TestClassifyTransportErrorKeepsExistingKind(t *testing.T) {
	orig := NewGenerationError(KindRateLimit, errors.New("quota exceeded"))
	wrapped := fmt.Errorf("call failed: %w", orig)

	got := ClassifyTransportError(wrapped)
	if got.Kind != KindRateLimit {
		t.Errorf("Kind = %s, want %s", got.Kind, KindRateLimit)
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	cases := map[int]ErrorKind{
		http.StatusTooManyRequests:     KindRateLimit,
		http.StatusUnauthorized:        KindAuth,
		http.StatusForbidden:           KindAuth,
		http.StatusInternalServerError: KindServer,
		http.StatusBadGateway:          KindServer,
		http.StatusBadRequest:          KindBadRequest,
		http.StatusNotFound:            KindBadRequest,
	}
	for code, want := range cases {
		if got := ClassifyHTTPStatus(code); got != want {
			t.Errorf("ClassifyHTTPStatus(%d) = %s, want %s", code, got, want)
		}
	}
}

func TestRetryable(t *testing.T) {
	retryable := []ErrorKind{KindTimeout, KindConnection, KindRateLimit, KindServer, KindEmptyResponse}
	for _, k := range retryable {
		if !(&GenerationError{Kind: k}).Retryable() {
			t.Errorf("kind %s should be retryable", k)
		}
	}
	terminal := []ErrorKind{KindAuth, KindBadRequest}
	for _, k := range terminal {
		if (&GenerationError{Kind: k}).Retryable() {
			t.Errorf("kind %s should not be retryable", k)
		}
	}
}
