// Package llm provides the uniform gateway to a text-completion capability.
//
// Providers implement the raw transport; the Gateway layers governance,
// retry, caching and call accounting on top. Everything outside this
// package talks to the Gateway only.
package llm

import (
	"context"

	"github.com/claimsift/claimsift/internal/model"
)

// Message roles understood by every provider.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one turn of a completion conversation.
type Message struct {
	Role    string
	Content string
}

// Provider is the raw transport to one LLM backend.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Complete sends the conversation and returns the model's text.
	// Errors carry classification tags (TagRateLimit, TagAuth,
	// TagContextLength) when the cause is known.
	Complete(ctx context.Context, messages []Message, temperature float64) (string, error)

	// IsAvailable checks if the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// UserMessage is shorthand for a single-turn user prompt.
func UserMessage(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}

// splitSystem separates an optional leading system message from the rest
// of the conversation, for APIs that carry the system prompt out of band.
func splitSystem(messages []Message) (string, []Message) {
	if len(messages) > 0 && messages[0].Role == RoleSystem {
		return messages[0].Content, messages[1:]
	}
	return "", messages
}

// Config mirrors model.LLMConfig for provider construction.
type Config = model.LLMConfig
