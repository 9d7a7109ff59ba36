package llm

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// NewProvider creates the provider named in the configuration.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, goerr.New("unknown LLM provider (supported: openai, anthropic, ollama)",
			goerr.V("provider", config.Provider))
	}
}
