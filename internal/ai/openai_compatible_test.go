package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCompleteSendsRequestAndParsesUsage(t *testing.T) {
	t.Parallel()
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"model":"llama-test","choices":[{"message":{"content":"  twelve months \n"}}],"usage":{"prompt_tokens":10,"completion_tokens":3,"total_tokens":13}}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient(ChatConfig{BaseURL: srv.URL + "/v1/", APIKey: "secret", Model: "default-model"}, time.Second)
	out, err := client.Complete(context.Background(), ChatRequest{
		Messages:    []ChatMessage{{Role: "system", Content: "s"}, {Role: "user", Content: "u"}},
		Temperature: 0.25,
		MaxTokens:   1024,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out.Text != "twelve months" {
		t.Fatalf("unexpected text %q", out.Text)
	}
	if out.Usage.TotalTokens != 13 || out.Model != "llama-test" {
		t.Fatalf("unexpected completion %#v", out)
	}
	if captured["model"] != "default-model" {
		t.Fatalf("expected default model in request, got %v", captured["model"])
	}
	if captured["temperature"] != 0.25 || captured["max_tokens"] != float64(1024) {
		t.Fatalf("unexpected request body %#v", captured)
	}
}

func TestCompleteStatusError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`rate limited`))
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient(ChatConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"}, time.Second)
	_, err := client.Complete(context.Background(), ChatRequest{})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected StatusError 429, got %v", err)
	}
}

func TestCompleteWithoutCredential(t *testing.T) {
	t.Parallel()
	client := NewOpenAICompatibleClient(ChatConfig{BaseURL: "http://localhost", Model: "m"}, time.Second)
	if client.Available() {
		t.Fatalf("client without api key must not be available")
	}
	if _, err := client.Complete(context.Background(), ChatRequest{}); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}
