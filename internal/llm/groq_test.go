package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestGroqClient(url string) *GroqClient {
	c := NewGroqClient("test-key")
	c.baseURL = url
	return c
}

func TestGroqGenerateContent(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("request body does not decode: %v", err)
		}
		if body["model"] != groqModel {
			t.Errorf("model = %v, want %s", body["model"], groqModel)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"days": []}`}},
			},
			"usage": map[string]int{"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150},
		})
	}))
	defer server.Close()

	resp, err := newTestGroqClient(server.URL).GenerateContent(context.Background(), "make a plan")
	if err != nil {
		t.Fatalf("GenerateContent failed: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if resp.Content != `{"days": []}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.PromptTokens != 100 || resp.Usage.CompletionTokens != 50 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
}

func TestGroqGenerateContentErrors(t *testing.T) {
	cases := []struct {
		status int
		kind   ErrorKind
	}{
		{http.StatusTooManyRequests, KindRateLimit},
		{http.StatusUnauthorized, KindAuth},
		{http.StatusInternalServerError, KindServer},
		{http.StatusBadRequest, KindBadRequest},
	}
	for _, c := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(c.status)
		}))

		_, err := newTestGroqClient(server.URL).GenerateContent(context.Background(), "prompt")
		server.Close()

		var genErr *GenerationError
		if !errors.As(err, &genErr) {
			t.Fatalf("status %d: expected *GenerationError, got %T", c.status, err)
		}
		if genErr.Kind != c.kind {
			t.Errorf("status %d: Kind = %s, want %s", c.status, genErr.Kind, c.kind)
		}
	}
}

func TestGroqGenerateContentEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	_, err := newTestGroqClient(server.URL).GenerateContent(context.Background(), "prompt")

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *GenerationError, got %T", err)
	}
	if genErr.Kind != KindEmptyResponse {
		t.Errorf("Kind = %s, want %s", genErr.Kind, KindEmptyResponse)
	}
	if !genErr.Retryable() {
		t.Error("empty responses should be retryable")
	}
}
