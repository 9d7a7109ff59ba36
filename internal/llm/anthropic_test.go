package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAnthropicProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("expected api key header, got %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("unexpected version header %q", r.Header.Get("anthropic-version"))
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.System != "you verify claims" {
			t.Errorf("system message not lifted out of band: %q", req.System)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != RoleUser {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		resp := anthropicResponse{ID: "msg_1", Type: "message", Role: "assistant"}
		resp.Content = []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{{Type: "text", Text: `[{"claim": "x"}]`}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}

	messages := []Message{
		{Role: RoleSystem, Content: "you verify claims"},
		{Role: RoleUser, Content: "check this"},
	}
	text, err := provider.Complete(context.Background(), messages, 0.1)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != `[{"claim": "x"}]` {
		t.Errorf("unexpected text %q", text)
	}
}

func TestAnthropicProvider_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		errType   string
		message   string
		rateLimit bool
		fatal     bool
	}{
		{"rate limit", 429, "rate_limit_error", "slow down", true, false},
		{"overloaded", 529, "overloaded_error", "busy", true, false},
		{"auth", 401, "authentication_error", "bad key", false, true},
		{"context length", 400, "invalid_request_error", "prompt is too long: 250000 tokens", false, true},
		{"generic", 500, "api_error", "internal", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				var e anthropicError
				e.Type = "error"
				e.Error.Type = tt.errType
				e.Error.Message = tt.message
				_ = json.NewEncoder(w).Encode(e)
			}))
			defer server.Close()

			provider, err := NewAnthropicProvider(Config{APIKey: "k", BaseURL: server.URL, Timeout: 5 * time.Second})
			if err != nil {
				t.Fatalf("create provider: %v", err)
			}

			_, err = provider.Complete(context.Background(), UserMessage("hi"), 0)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := IsRateLimit(err); got != tt.rateLimit {
				t.Errorf("IsRateLimit = %v, want %v (err: %v)", got, tt.rateLimit, err)
			}
			if got := IsFatal(err); got != tt.fatal {
				t.Errorf("IsFatal = %v, want %v (err: %v)", got, tt.fatal, err)
			}
		})
	}
}

func TestNewAnthropicProvider_RequiresKey(t *testing.T) {
	if _, err := NewAnthropicProvider(Config{}); err == nil {
		t.Error("expected error without API key")
	}
}
