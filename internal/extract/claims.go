// Package extract turns crawled source documents into structured,
// source-attributed claims via batched LLM calls.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/claimsift/claimsift/internal/dates"
	"github.com/claimsift/claimsift/internal/llm"
	"github.com/claimsift/claimsift/internal/model"
	"github.com/claimsift/claimsift/internal/parse"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

const extractTemperature = 0.1

// Extractor produces claims from batches of sources.
type Extractor struct {
	gateway *llm.Gateway
	cfg     model.ExtractConfig
	logger  *slog.Logger
}

// NewExtractor creates an extractor over the given gateway.
func NewExtractor(gateway *llm.Gateway, cfg model.ExtractConfig) *Extractor {
	return &Extractor{
		gateway: gateway,
		cfg:     cfg,
		logger:  slog.Default(),
	}
}

// rawClaim is the shape the model is asked to return, one per fact.
type rawClaim struct {
	Claim           string  `json:"claim"`
	Date            string  `json:"date"`
	EvidenceSnippet string  `json:"evidence_snippet"`
	Confidence      float64 `json:"confidence"`
	SourceURL       string  `json:"source_url"`
	Subject         string  `json:"subject"`
	Predicate       string  `json:"predicate"`
	Object          string  `json:"object"`
}

// Extract runs the full extraction pass: token budgeting, sub-batching,
// prompted extraction, date normalization and entity backfill.
//
// A sub-batch whose call fails or does not parse contributes zero claims;
// only wholly missing input (no sources, no subject) is an error. An empty
// claim list is a legitimate result.
func (e *Extractor) Extract(ctx context.Context, sources []model.Source, subjectName string) ([]model.Claim, error) {
	if len(sources) == 0 {
		return nil, goerr.New("no sources to extract from")
	}
	if subjectName == "" {
		return nil, goerr.New("subject name is required")
	}

	budgeted := make([]model.Source, len(sources))
	copy(budgeted, sources)
	for i := range budgeted {
		budgeted[i].Content = TruncateToTokens(budgeted[i].Content, e.cfg.TokenBudgetPerDoc)
	}

	batches := SubBatch(budgeted, e.cfg.MaxDocsPerBatch, e.cfg.TokenBudgetPerBatch)

	var claims []model.Claim
	for i, batch := range batches {
		extracted := e.extractBatch(ctx, batch, subjectName)
		e.logger.Debug("sub-batch extracted",
			"batch", i+1, "batches", len(batches),
			"documents", len(batch), "claims", len(extracted))
		claims = append(claims, extracted...)
	}

	e.normalizeDates(claims)
	e.backfillEntities(ctx, claims)

	return claims, nil
}

// extractBatch issues one LLM call for a sub-batch of sources. Failures
// are absorbed: the batch yields no claims and the run continues.
func (e *Extractor) extractBatch(ctx context.Context, batch []model.Source, subjectName string) []model.Claim {
	prompt := buildExtractionPrompt(batch, subjectName)

	response, err := e.gateway.Complete(ctx, llm.UserMessage(prompt), extractTemperature)
	if err != nil {
		e.logger.Warn("extraction call failed, skipping sub-batch",
			"documents", len(batch), "error", err)
		return nil
	}

	var raws []rawClaim
	if !parse.Array(response, &raws) {
		e.logger.Warn("extraction response did not parse, skipping sub-batch",
			"documents", len(batch), "response", excerpt(response, 200))
		return nil
	}

	claims := make([]model.Claim, 0, len(raws))
	for _, r := range raws {
		text := strings.TrimSpace(r.Claim)
		if text == "" {
			continue
		}
		claims = append(claims, model.Claim{
			ID:              uuid.NewString(),
			Text:            text,
			EventDate:       strings.TrimSpace(r.Date), // normalized later
			Subject:         strings.TrimSpace(r.Subject),
			Predicate:       strings.TrimSpace(r.Predicate),
			Object:          strings.TrimSpace(r.Object),
			Confidence:      model.ClampConfidence(r.Confidence),
			SourceURL:       pickSourceURL(r.SourceURL, batch),
			EvidenceSnippet: strings.TrimSpace(r.EvidenceSnippet),
		})
	}
	return claims
}

// pickSourceURL keeps the model's echoed origin URL; when the model omits
// it and the batch has a single document, the origin is unambiguous.
func pickSourceURL(echoed string, batch []model.Source) string {
	echoed = strings.TrimSpace(echoed)
	if echoed != "" {
		return echoed
	}
	if len(batch) == 1 {
		return batch[0].URL
	}
	return ""
}

// normalizeDates replaces each claim's raw date string with its canonical
// form, or clears it when normalization fails. A claim never gets a
// fabricated date.
func (e *Extractor) normalizeDates(claims []model.Claim) {
	for i := range claims {
		if claims[i].EventDate == "" {
			continue
		}
		claims[i].EventDate = dates.Normalize(claims[i].EventDate)
	}
}

// backfillEntities fills in subject/predicate/object for claims where the
// extraction pass left all three empty, in aligned batches. A misaligned
// or unparsable backfill result leaves that batch's claims with empty
// entity fields rather than dropping them.
func (e *Extractor) backfillEntities(ctx context.Context, claims []model.Claim) {
	batchSize := e.cfg.EntityBatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	var missing []int
	for i := range claims {
		if !claims[i].HasEntities() {
			missing = append(missing, i)
		}
	}

	for start := 0; start < len(missing); start += batchSize {
		end := start + batchSize
		if end > len(missing) {
			end = len(missing)
		}
		e.backfillBatch(ctx, claims, missing[start:end])
	}
}

type rawEntities struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

func (e *Extractor) backfillBatch(ctx context.Context, claims []model.Claim, indices []int) {
	texts := make([]string, len(indices))
	for i, idx := range indices {
		texts[i] = claims[idx].Text
	}
	prompt := buildEntityPrompt(texts)

	response, err := e.gateway.Complete(ctx, llm.UserMessage(prompt), extractTemperature)
	if err != nil {
		e.logger.Warn("entity backfill call failed", "claims", len(indices), "error", err)
		return
	}

	var entities []rawEntities
	if !parse.Array(response, &entities) || len(entities) != len(indices) {
		e.logger.Warn("entity backfill misaligned, keeping empty entities",
			"expected", len(indices), "got", len(entities))
		return
	}

	for i, idx := range indices {
		claims[idx].Subject = strings.TrimSpace(entities[i].Subject)
		claims[idx].Predicate = strings.TrimSpace(entities[i].Predicate)
		claims[idx].Object = strings.TrimSpace(entities[i].Object)
	}
}

func buildExtractionPrompt(batch []model.Source, subjectName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Extract factual claims about %s from the documents below.

Focus on:
- Founding dates and founders
- Funding rounds and amounts
- Key product launches
- Major business events
- Financial metrics
- Strategic decisions
- Leadership changes

For each claim provide a JSON object with these fields:
- "claim": the factual statement
- "date": when it happened, if mentioned
- "evidence_snippet": the exact text supporting the claim
- "confidence": 0.0-1.0 based on how clearly it is stated
- "source_url": the URL of the document the claim came from, copied verbatim
- "subject", "predicate", "object": semantic decomposition of the claim

Return a JSON array of these objects and nothing else. Only include
verifiable facts, not opinions. If no facts are found, return [], never
omit the array wrapper.

`, subjectName)

	for i, src := range batch {
		fmt.Fprintf(&b, "Document %d\nURL: %s\nTitle: %s\nContent:\n%s\n\n", i+1, src.URL, src.Title, src.Content)
	}

	return b.String()
}

func buildEntityPrompt(texts []string) string {
	var b strings.Builder

	b.WriteString(`Break down each claim below into subject, predicate, and object.

Example: "Netflix was founded in 1997" ->
{"subject": "Netflix", "predicate": "was founded", "object": "1997"}

Return a JSON array with exactly one {"subject", "predicate", "object"}
object per claim, in the same order as the claims.

`)
	for i, text := range texts {
		fmt.Fprintf(&b, "%d. %q\n", i+1, text)
	}

	return b.String()
}
