package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// AnthropicProvider implements Provider for Anthropic Claude models.
type AnthropicProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     Config
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, goerr.New("Anthropic API key is required", goerr.T(TagAuth))
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &AnthropicProvider{
		apiKey:  config.APIKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config: config,
	}, nil
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable checks if the provider is properly configured.
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	req := anthropicRequest{
		Model:     p.modelName(),
		MaxTokens: 10,
		Messages: []anthropicMessage{
			{Role: RoleUser, Content: "Hi"},
		},
	}
	_, err := p.makeRequest(ctx, req)
	return err == nil
}

// Complete sends the conversation through the Messages API.
func (p *AnthropicProvider) Complete(ctx context.Context, messages []Message, temperature float64) (string, error) {
	system, rest := splitSystem(messages)

	apiMessages := make([]anthropicMessage, 0, len(rest))
	for _, m := range rest {
		apiMessages = append(apiMessages, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	resp, err := p.makeRequest(ctx, anthropicRequest{
		Model:       p.modelName(),
		MaxTokens:   maxTokens,
		System:      system,
		Messages:    apiMessages,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", goerr.New("no content in Anthropic response")
	}

	return resp.Content[0].Text, nil
}

func (p *AnthropicProvider) modelName() string {
	if p.config.Model != "" {
		return p.config.Model
	}
	return "claude-3-5-haiku-20241022"
}

func (p *AnthropicProvider) makeRequest(ctx context.Context, apiReq anthropicRequest) (*anthropicResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, goerr.Wrap(err, "marshal request")
	}

	url := fmt.Sprintf("%s/v1/messages", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "create request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, goerr.Wrap(err, "execute request")
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "read response")
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyAnthropicError(httpResp.StatusCode, respBody)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, goerr.Wrap(err, "unmarshal response")
	}

	return &resp, nil
}

// classifyAnthropicError maps the API error envelope onto our tags. The
// API reports rate limiting and overload as distinct error types; both get
// the rate-limit treatment.
func classifyAnthropicError(status int, body []byte) error {
	opts := classifyHTTPStatus(status)

	var apiErr anthropicError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Type != "" {
		switch apiErr.Error.Type {
		case "rate_limit_error", "overloaded_error":
			opts = append(opts, goerr.T(TagRateLimit))
		case "authentication_error", "permission_error":
			opts = append(opts, goerr.T(TagAuth))
		case "invalid_request_error":
			if strings.Contains(apiErr.Error.Message, "prompt is too long") {
				opts = append(opts, goerr.T(TagContextLength))
			}
		}
		opts = append(opts, goerr.V("error_type", apiErr.Error.Type))
		return goerr.New(fmt.Sprintf("Anthropic API error: %s", apiErr.Error.Message), opts...)
	}

	return goerr.New(fmt.Sprintf("Anthropic API error (%d)", status), opts...)
}
