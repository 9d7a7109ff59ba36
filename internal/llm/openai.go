package llm

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider for OpenAI-compatible endpoints.
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, goerr.New("OpenAI API key is required", goerr.T(TagAuth))
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured.
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Complete sends the conversation through the Chat Completions API.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []Message, temperature float64) (string, error) {
	chatModel := p.config.Model
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	timeout := p.config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       chatModel,
		Messages:    chatMessages,
		Temperature: float32(temperature),
		MaxTokens:   p.config.MaxTokens,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", goerr.New("no choices in OpenAI response")
	}

	return resp.Choices[0].Message.Content, nil
}

// classifyOpenAIError maps the SDK's typed API error onto our tags.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return goerr.Wrap(err, "OpenAI API call failed")
	}

	opts := classifyHTTPStatus(apiErr.HTTPStatusCode)
	if code, ok := apiErr.Code.(string); ok {
		if code == "context_length_exceeded" {
			opts = append(opts, goerr.T(TagContextLength))
		}
		opts = append(opts, goerr.V("code", code))
	}
	if apiErr.Type == "insufficient_quota" {
		opts = append(opts, goerr.T(TagRateLimit))
	}

	return goerr.Wrap(err, "OpenAI API call failed", opts...)
}
