package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOllamaProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("expected path /api/generate, got %s", r.URL.Path)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("streaming must be disabled")
		}
		if !strings.Contains(req.Prompt, "<user>") {
			t.Errorf("prompt missing role marker: %q", req.Prompt)
		}

		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:    req.Model,
			Response: "[]",
			Done:     true,
		})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{
		Model:   "llama3.1:8b",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("create provider: %v", err)
	}

	text, err := provider.Complete(context.Background(), UserMessage("extract claims"), 0.1)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "[]" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestNewOllamaProvider_RequiresModel(t *testing.T) {
	if _, err := NewOllamaProvider(Config{}); err == nil {
		t.Error("expected error without model name")
	}
}

func TestFactory(t *testing.T) {
	if _, err := NewProvider(Config{Provider: "nope"}); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := NewProvider(Config{Provider: "ollama", Model: "mistral"}); err != nil {
		t.Errorf("ollama factory failed: %v", err)
	}
	if _, err := NewProvider(Config{Provider: "anthropic", APIKey: "k"}); err != nil {
		t.Errorf("anthropic factory failed: %v", err)
	}
}
