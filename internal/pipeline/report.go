package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/claimsift/claimsift/internal/model"
	"github.com/m-mizutani/goerr/v2"
)

// Report is the outcome of one fact-check run.
type Report struct {
	Subject            string                     `json:"subject"`
	GeneratedAt        time.Time                  `json:"generated_at"`
	TotalClaims        int                        `json:"total_claims"`
	VerifiedClaims     int                        `json:"verified_claims"`
	FlaggedClaims      int                        `json:"flagged_claims"`
	WithContradictions int                        `json:"claims_with_contradictions"`
	Results            []model.VerificationResult `json:"verification_results"`
}

// maxFlaggedInReport caps the review listing in the markdown report.
const maxFlaggedInReport = 10

// BuildReport summarizes verification results into a report.
func BuildReport(subject string, results []model.VerificationResult) *Report {
	report := &Report{
		Subject:     subject,
		GeneratedAt: time.Now().UTC(),
		TotalClaims: len(results),
		Results:     results,
	}
	for _, r := range results {
		if r.Verified {
			report.VerifiedClaims++
		}
		if r.Flagged {
			report.FlaggedClaims++
		}
		if len(r.Contradictions) > 0 {
			report.WithContradictions++
		}
	}
	return report
}

func (r *Report) percent(n int) float64 {
	if r.TotalClaims == 0 {
		return 0
	}
	return float64(n) / float64(r.TotalClaims) * 100
}

// Renderer writes reports to files and prints run summaries.
type Renderer struct {
	includeFooter bool
}

func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

func (rd *Renderer) RenderJSON(report *Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "marshaling report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return goerr.Wrap(err, "writing report file", goerr.V("path", path))
	}
	return nil
}

func (rd *Renderer) RenderMarkdown(report *Report, path string) error {
	if err := os.WriteFile(path, []byte(rd.Markdown(report)), 0o644); err != nil {
		return goerr.Wrap(err, "writing report file", goerr.V("path", path))
	}
	return nil
}

// Markdown renders the human-readable fact-check report: summary counts,
// then the flagged claims that need review.
func (rd *Renderer) Markdown(report *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Fact-Check Report: %s\n\n", report.Subject)
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Total claims analyzed: %d\n", report.TotalClaims)
	fmt.Fprintf(&b, "- Verified claims: %d (%.1f%%)\n", report.VerifiedClaims, report.percent(report.VerifiedClaims))
	fmt.Fprintf(&b, "- Flagged claims: %d (%.1f%%)\n", report.FlaggedClaims, report.percent(report.FlaggedClaims))
	fmt.Fprintf(&b, "- Claims with contradictions: %d\n", report.WithContradictions)

	var flagged []model.VerificationResult
	for _, r := range report.Results {
		if r.Flagged {
			flagged = append(flagged, r)
		}
	}
	if len(flagged) > 0 {
		b.WriteString("\n## Claims Requiring Review\n\n")
		if len(flagged) > maxFlaggedInReport {
			flagged = flagged[:maxFlaggedInReport]
		}
		for _, r := range flagged {
			fmt.Fprintf(&b, "- **%s**\n", r.ClaimText)
			fmt.Fprintf(&b, "  - Sources: %d\n", r.SupportingCount())
			fmt.Fprintf(&b, "  - Score: %.2f\n", r.VerificationScore)
			fmt.Fprintf(&b, "  - Recommendation: %s\n\n", r.Recommendation)
		}
	}

	if rd.includeFooter {
		b.WriteString("\n---\n")
		b.WriteString("Produced by claimsift. Scores reflect automated cross-referencing; review flagged claims before publication.\n")
	}

	return b.String()
}

// RenderSummary prints the run outcome to stdout.
func (rd *Renderer) RenderSummary(report *Report) {
	fmt.Printf("\nFact-check: %s\n", report.Subject)
	fmt.Printf("  Claims:         %d\n", report.TotalClaims)
	fmt.Printf("  Verified:       %d\n", report.VerifiedClaims)
	fmt.Printf("  Flagged:        %d\n", report.FlaggedClaims)
	fmt.Printf("  Contradictions: %d\n", report.WithContradictions)
}
