// Package verify cross-references extracted claims against sources and
// scores how well each claim is supported.
//
// Verification runs in two stages: a batched coarse pass producing a rough
// SUPPORTED/UNSUPPORTED/REQUIRES_MORE_INFO status per claim, and a detailed
// per-claim pass that collects supporting sources, checks date consistency
// and hunts for contradictions. Failures degrade to conservative results;
// nothing in this package aborts a sibling claim or batch.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/claimsift/claimsift/internal/dates"
	"github.com/claimsift/claimsift/internal/llm"
	"github.com/claimsift/claimsift/internal/model"
	"github.com/claimsift/claimsift/internal/parse"
	"github.com/claimsift/claimsift/internal/worker"
	"github.com/m-mizutani/goerr/v2"
)

const (
	verifyTemperature = 0.1

	// A date-consistency ratio at or above this counts as consistent.
	consistencyThreshold = 0.7
)

// Verifier cross-checks claims against sources.
type Verifier struct {
	gateway *llm.Gateway
	cfg     model.VerifyConfig
	pool    *worker.Pool
	logger  *slog.Logger
}

// NewVerifier creates a verifier over the given gateway.
func NewVerifier(gateway *llm.Gateway, cfg model.VerifyConfig) *Verifier {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Verifier{
		gateway: gateway,
		cfg:     cfg,
		pool:    worker.NewPool(workers),
		logger:  slog.Default(),
	}
}

// Verify runs the coarse and detailed passes over all claims and returns
// one result per claim, in claim order.
func (v *Verifier) Verify(ctx context.Context, claims []model.Claim, sources []model.Source) ([]model.VerificationResult, error) {
	if len(claims) == 0 {
		return nil, nil
	}
	if len(sources) == 0 {
		return nil, goerr.New("no sources to verify against")
	}

	coarse := v.coarsePass(ctx, claims, sources)

	jobs := make([]worker.Job, len(claims))
	for i := range claims {
		jobs[i] = &verifyJob{
			verifier: v,
			claim:    claims[i],
			coarse:   coarse[i],
			sources:  sources,
		}
	}

	results := make([]model.VerificationResult, len(claims))
	for i, r := range v.pool.Run(ctx, jobs) {
		vr, ok := r.(*verifyResult)
		if !ok || vr == nil {
			// Job never ran (cancelled dispatch); fall back conservatively.
			results[i] = v.fallbackResult(claims[i], coarse[i])
			continue
		}
		results[i] = vr.result
	}

	return results, nil
}

type verifyJob struct {
	verifier *Verifier
	claim    model.Claim
	coarse   model.CoarseStatus
	sources  []model.Source
}

type verifyResult struct {
	result model.VerificationResult
	err    error
}

func (r *verifyResult) GetError() error { return r.err }

func (j *verifyJob) Execute(ctx context.Context) worker.Result {
	result := j.verifier.verifyClaim(ctx, j.claim, j.coarse, j.sources)
	return &verifyResult{result: result}
}

// coarseRaw is the per-claim shape of the batched first pass. The echoed
// claim_id is advisory only; matching is positional.
type coarseRaw struct {
	ClaimID            string `json:"claim_id"`
	Status             string `json:"status"`
	ContradictionFound bool   `json:"contradiction_found"`
	Reasoning          string `json:"reasoning"`
}

// coarsePass batches claims through the model for a first rough verdict.
// A group whose call or parse fails yields REQUIRES_MORE_INFO for every
// claim in the group.
func (v *Verifier) coarsePass(ctx context.Context, claims []model.Claim, sources []model.Source) []model.CoarseStatus {
	statuses := make([]model.CoarseStatus, len(claims))
	for i := range statuses {
		statuses[i] = model.StatusRequiresMoreInfo
	}

	batchSize := v.cfg.CoarseBatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	for start := 0; start < len(claims); start += batchSize {
		end := start + batchSize
		if end > len(claims) {
			end = len(claims)
		}
		group := claims[start:end]

		prompt := v.buildCoarsePrompt(group, sources)
		response, err := v.gateway.Complete(ctx, llm.UserMessage(prompt), verifyTemperature)
		if err != nil {
			v.logger.Warn("coarse pass call failed, marking group for more info",
				"claims", len(group), "error", err)
			continue
		}

		var raws []coarseRaw
		if !parse.Array(response, &raws) {
			v.logger.Warn("coarse pass response did not parse",
				"claims", len(group))
			continue
		}
		if len(raws) != len(group) {
			v.logger.Warn("coarse pass misaligned, marking group for more info",
				"expected", len(group), "got", len(raws))
			continue
		}

		for i, raw := range raws {
			// The claim's identity comes from our side. An echoed id
			// that disagrees is noted and ignored.
			if raw.ClaimID != "" && raw.ClaimID != group[i].ID {
				v.logger.Warn("coarse pass echoed unknown claim id, trusting position",
					"echoed", raw.ClaimID, "claim_id", group[i].ID)
			}
			statuses[start+i] = parseCoarseStatus(raw.Status)
		}
	}

	return statuses
}

func parseCoarseStatus(s string) model.CoarseStatus {
	switch model.CoarseStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case model.StatusSupported:
		return model.StatusSupported
	case model.StatusUnsupported:
		return model.StatusUnsupported
	default:
		return model.StatusRequiresMoreInfo
	}
}

// verifyClaim runs the detailed pass for one claim. Any failure inside
// produces the conservative fallback for this claim only.
func (v *Verifier) verifyClaim(ctx context.Context, claim model.Claim, coarse model.CoarseStatus, sources []model.Source) (result model.VerificationResult) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("detailed pass panicked, using fallback",
				"claim_id", claim.ID, "panic", r)
			result = v.fallbackResult(claim, coarse)
		}
	}()

	supporting := v.findSupportingSources(ctx, claim, sources)
	dateCheck := v.checkDateConsistency(ctx, claim, supporting)
	contradictions := v.findContradictions(ctx, claim, sources)

	score := ComposeScore(claim.Confidence, supporting, dateCheck.Consistent)
	verified, flagged := deriveStatus(coarse, score, len(supporting), v.cfg)

	return model.VerificationResult{
		ClaimID:           claim.ID,
		ClaimText:         claim.Text,
		CoarseStatus:      coarse,
		Verified:          verified,
		Flagged:           flagged,
		VerificationScore: score,
		SupportingSources: supporting,
		DateConsistency:   dateCheck,
		Contradictions:    contradictions,
		Recommendation:    model.DeriveRecommendation(verified, flagged, len(contradictions)),
	}
}

// fallbackResult is the conservative answer when verification of a claim
// could not complete.
func (v *Verifier) fallbackResult(claim model.Claim, coarse model.CoarseStatus) model.VerificationResult {
	return model.VerificationResult{
		ClaimID:        claim.ID,
		ClaimText:      claim.Text,
		CoarseStatus:   coarse,
		Verified:       false,
		Flagged:        true,
		Recommendation: model.RecommendationManualReview,
	}
}

// supportRaw is the per-source judgment shape, aligned by index with the
// sources listed in the prompt.
type supportRaw struct {
	Supports bool    `json:"supports"`
	Strength float64 `json:"strength"`
	Evidence string  `json:"evidence"`
}

// findSupportingSources asks for one support judgment per source in a
// single call and keeps the ones marked as supporting, strongest first.
func (v *Verifier) findSupportingSources(ctx context.Context, claim model.Claim, sources []model.Source) []model.SupportingSource {
	prompt := v.buildSupportPrompt(claim, sources)

	response, err := v.gateway.Complete(ctx, llm.UserMessage(prompt), verifyTemperature)
	if err != nil {
		v.logger.Warn("support check call failed", "claim_id", claim.ID, "error", err)
		return nil
	}

	var raws []supportRaw
	if !parse.Array(response, &raws) || len(raws) != len(sources) {
		v.logger.Warn("support check response unusable", "claim_id", claim.ID)
		return nil
	}

	var supporting []model.SupportingSource
	for i, raw := range raws {
		if !raw.Supports {
			continue
		}
		src := sources[i]
		supporting = append(supporting, model.SupportingSource{
			SourceID:        src.ID,
			URL:             src.URL,
			Domain:          src.Domain,
			Title:           src.Title,
			Reliability:     model.ClampReliability(src.Reliability),
			SupportStrength: model.ClampConfidence(raw.Strength),
			EvidenceSnippet: strings.TrimSpace(raw.Evidence),
		})
	}

	sort.SliceStable(supporting, func(a, b int) bool {
		return float64(supporting[a].Reliability)*supporting[a].SupportStrength >
			float64(supporting[b].Reliability)*supporting[b].SupportStrength
	})

	return supporting
}

// checkDateConsistency compares the claim's event date against dates the
// model extracts from the supporting evidence snippets.
//
// A claim without a date is trivially consistent. A dated claim whose
// evidence yields no comparable dates scores 0; absence of corroborating
// dates is not consistency.
func (v *Verifier) checkDateConsistency(ctx context.Context, claim model.Claim, supporting []model.SupportingSource) model.DateConsistency {
	if !claim.HasDate() {
		return model.DateConsistency{Consistent: true, Score: 1, Note: "no date to verify"}
	}

	claimDate, ok := dates.Parse(claim.EventDate)
	if !ok {
		return model.DateConsistency{Consistent: false, Note: "invalid claim date"}
	}

	var snippets []string
	for _, s := range supporting {
		if s.EvidenceSnippet != "" {
			snippets = append(snippets, s.EvidenceSnippet)
		}
	}
	if len(snippets) == 0 {
		return model.DateConsistency{Consistent: false, Note: "no evidence to compare dates against"}
	}

	extracted := v.extractSnippetDates(ctx, snippets)

	matches, conflicts := 0, 0
	for _, perSnippet := range extracted {
		for _, raw := range perSnippet {
			d, ok := dates.Parse(dates.Normalize(raw))
			if !ok {
				continue
			}
			if dates.DaysApart(claimDate, d) <= v.cfg.DateToleranceDays {
				matches++
			} else {
				conflicts++
			}
		}
	}

	if matches+conflicts == 0 {
		return model.DateConsistency{Consistent: false, Note: "no extractable dates in evidence"}
	}

	score := float64(matches) / float64(matches+conflicts)
	return model.DateConsistency{
		Consistent: score >= consistencyThreshold,
		Score:      score,
		Matches:    matches,
		Conflicts:  conflicts,
	}
}

// extractSnippetDates asks for the dates mentioned in each snippet, one
// array per snippet, aligned by index.
func (v *Verifier) extractSnippetDates(ctx context.Context, snippets []string) [][]string {
	prompt := buildDatePrompt(snippets)

	response, err := v.gateway.Complete(ctx, llm.UserMessage(prompt), verifyTemperature)
	if err != nil {
		v.logger.Warn("date extraction call failed", "error", err)
		return nil
	}

	var extracted [][]string
	if !parse.Array(response, &extracted) || len(extracted) != len(snippets) {
		v.logger.Warn("date extraction response unusable",
			"expected", len(snippets))
		return nil
	}
	return extracted
}

// contradictionRaw is the per-source contradiction judgment, aligned by
// index with the prompt's source list.
type contradictionRaw struct {
	Contradicts bool    `json:"contradicts"`
	Strength    float64 `json:"strength"`
	Evidence    string  `json:"evidence"`
	Reasoning   string  `json:"reasoning"`
}

// findContradictions scans up to the configured number of sources for
// evidence against the claim.
func (v *Verifier) findContradictions(ctx context.Context, claim model.Claim, sources []model.Source) []model.Contradiction {
	limit := v.cfg.MaxContradictionSrcs
	if limit <= 0 {
		limit = 10
	}
	if len(sources) > limit {
		sources = sources[:limit]
	}

	prompt := v.buildContradictionPrompt(claim, sources)

	response, err := v.gateway.Complete(ctx, llm.UserMessage(prompt), verifyTemperature)
	if err != nil {
		v.logger.Warn("contradiction check call failed", "claim_id", claim.ID, "error", err)
		return nil
	}

	var raws []contradictionRaw
	if !parse.Array(response, &raws) || len(raws) != len(sources) {
		v.logger.Warn("contradiction check response unusable", "claim_id", claim.ID)
		return nil
	}

	var contradictions []model.Contradiction
	for i, raw := range raws {
		if !raw.Contradicts {
			continue
		}
		src := sources[i]
		contradictions = append(contradictions, model.Contradiction{
			SourceID:  src.ID,
			URL:       src.URL,
			Title:     src.Title,
			Strength:  model.ClampConfidence(raw.Strength),
			Evidence:  strings.TrimSpace(raw.Evidence),
			Reasoning: strings.TrimSpace(raw.Reasoning),
		})
	}
	return contradictions
}

func (v *Verifier) excerptChars() int {
	if v.cfg.ContentExcerptChars > 0 {
		return v.cfg.ContentExcerptChars
	}
	return 1500
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func (v *Verifier) buildCoarsePrompt(group []model.Claim, sources []model.Source) string {
	maxSources := v.cfg.MaxCoarseSources
	if maxSources <= 0 {
		maxSources = 8
	}
	if len(sources) > maxSources {
		sources = sources[:maxSources]
	}

	var b strings.Builder
	b.WriteString(`Check each claim below against the source excerpts.

For each claim return a JSON object:
- "claim_id": copied verbatim from the claim
- "status": "SUPPORTED", "UNSUPPORTED", or "REQUIRES_MORE_INFO"
- "contradiction_found": true/false
- "reasoning": one sentence

Return a JSON array with exactly one object per claim, in claim order.

Claims:
`)
	for i, c := range group {
		fmt.Fprintf(&b, "%d. [id: %s] %s\n", i+1, c.ID, c.Text)
	}

	b.WriteString("\nSources:\n")
	for i, s := range sources {
		fmt.Fprintf(&b, "Source %d (%s): %s\n%s\n\n", i+1, s.Domain, s.Title, clip(s.Content, v.excerptChars()))
	}

	return b.String()
}

func (v *Verifier) buildSupportPrompt(claim model.Claim, sources []model.Source) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Analyze whether each source below supports this claim.

Claim: %q

For each source return a JSON object:
- "supports": true/false
- "strength": 0.0-1.0
- "evidence": the exact quote that supports the claim, or ""

Return a JSON array with exactly one object per source, in source order.
Be conservative - only mark "supports" true on clear supporting evidence.

`, claim.Text)
	for i, s := range sources {
		fmt.Fprintf(&b, "Source %d: %s (%s)\n%s\n\n", i+1, s.Title, s.Domain, clip(s.Content, v.excerptChars()))
	}

	return b.String()
}

func buildDatePrompt(snippets []string) string {
	var b strings.Builder
	b.WriteString(`Extract all dates mentioned in each text below and convert them to
ISO format (YYYY-MM-DD). Only include specific dates, not relative terms.

Return a JSON array with one array of date strings per text, in text
order. Example for two texts: [["2020-03-15"], []]

`)
	for i, s := range snippets {
		fmt.Fprintf(&b, "Text %d: %q\n", i+1, s)
	}
	return b.String()
}

func (v *Verifier) buildContradictionPrompt(claim model.Claim, sources []model.Source) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Analyze whether each source below contradicts this claim.

Claim: %q

For each source return a JSON object:
- "contradicts": true/false
- "strength": 0.0-1.0
- "evidence": the text that contradicts the claim, or ""
- "reasoning": brief explanation

Return a JSON array with exactly one object per source, in source order.
Only mark "contradicts" true on clear contradictory evidence.

`, claim.Text)
	for i, s := range sources {
		fmt.Fprintf(&b, "Source %d: %s (%s)\n%s\n\n", i+1, s.Title, s.Domain, clip(s.Content, v.excerptChars()))
	}

	return b.String()
}
