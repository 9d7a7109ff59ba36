package llm

import (
	"github.com/m-mizutani/goerr/v2"
)

// Error classification tags. Callers and the Gateway branch on these via
// the predicates below instead of matching error message text.
var (
	// TagRateLimit marks quota and rate-limit failures. Retryable with
	// aggressive backoff.
	TagRateLimit = goerr.NewTag("rate_limit")

	// TagAuth marks authentication and permission failures. Never retried.
	TagAuth = goerr.NewTag("auth")

	// TagContextLength marks prompts that exceed the model's context
	// window. Never retried; the same prompt would fail again.
	TagContextLength = goerr.NewTag("context_length")
)

// IsRateLimit reports whether err is a quota/rate-limit failure.
func IsRateLimit(err error) bool {
	return goerr.HasTag(err, TagRateLimit)
}

// IsFatal reports whether err must not be retried.
func IsFatal(err error) bool {
	return goerr.HasTag(err, TagAuth) || goerr.HasTag(err, TagContextLength)
}

// classifyHTTPStatus tags an HTTP-level provider error by status code.
// Provider-specific classifiers refine this where the API reports richer
// error types.
func classifyHTTPStatus(status int) []goerr.Option {
	switch {
	case status == 429:
		return []goerr.Option{goerr.T(TagRateLimit), goerr.V("status", status)}
	case status == 401 || status == 403:
		return []goerr.Option{goerr.T(TagAuth), goerr.V("status", status)}
	default:
		return []goerr.Option{goerr.V("status", status)}
	}
}
