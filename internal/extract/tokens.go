package extract

import (
	"strings"

	"github.com/claimsift/claimsift/internal/model"
)

// EstimateTokens approximates the token count of a text. The chars/4
// heuristic is deliberately crude; it only needs to keep prompts under the
// provider's context window with margin.
func EstimateTokens(s string) int {
	return len(s) / 4
}

// TruncateToTokens cuts content down to roughly the given token budget,
// preferring to break at the last sentence boundary found past 80% of the
// cut point rather than mid-sentence.
func TruncateToTokens(content string, budget int) string {
	if budget <= 0 || EstimateTokens(content) <= budget {
		return content
	}

	cut := budget * 4
	if cut >= len(content) {
		return content
	}

	head := content[:cut]
	floor := cut * 8 / 10
	if idx := lastSentenceEnd(head); idx >= floor {
		return head[:idx+1]
	}
	return head
}

// lastSentenceEnd returns the index of the last sentence terminator in s,
// or -1 when there is none.
func lastSentenceEnd(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case '.', '!', '?':
			return i
		}
	}
	return -1
}

// SubBatch splits sources into groups bounded by document count and by
// combined estimated tokens. A group over the token bound is halved until
// it fits or can no longer be split.
func SubBatch(sources []model.Source, maxDocs, tokenBudget int) [][]model.Source {
	if len(sources) == 0 {
		return nil
	}
	if maxDocs <= 0 {
		maxDocs = 5
	}

	var batches [][]model.Source
	for start := 0; start < len(sources); start += maxDocs {
		end := start + maxDocs
		if end > len(sources) {
			end = len(sources)
		}
		batches = append(batches, splitToBudget(sources[start:end], tokenBudget)...)
	}
	return batches
}

func splitToBudget(batch []model.Source, tokenBudget int) [][]model.Source {
	if len(batch) <= 1 || tokenBudget <= 0 || batchTokens(batch) <= tokenBudget {
		return [][]model.Source{batch}
	}
	mid := len(batch) / 2
	out := splitToBudget(batch[:mid], tokenBudget)
	return append(out, splitToBudget(batch[mid:], tokenBudget)...)
}

func batchTokens(batch []model.Source) int {
	total := 0
	for _, s := range batch {
		total += EstimateTokens(s.Content)
	}
	return total
}

// excerpt trims a snippet for logging.
func excerpt(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
