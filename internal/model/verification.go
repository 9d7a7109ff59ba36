package model

// CoarseStatus is the batched first-pass verdict for a claim.
type CoarseStatus string

const (
	StatusSupported        CoarseStatus = "SUPPORTED"
	StatusUnsupported      CoarseStatus = "UNSUPPORTED"
	StatusRequiresMoreInfo CoarseStatus = "REQUIRES_MORE_INFO"
)

// Recommendation is the final disposition for a verified claim.
type Recommendation string

const (
	RecommendationApproved     Recommendation = "APPROVED"
	RecommendationReject       Recommendation = "REJECT"
	RecommendationCaution      Recommendation = "CAUTION"
	RecommendationManualReview Recommendation = "MANUAL_REVIEW_REQUIRED"
)

// SupportingSource is one source judged to support a claim.
type SupportingSource struct {
	SourceID        string  `json:"source_id"`
	URL             string  `json:"url"`
	Domain          string  `json:"domain,omitempty"`
	Title           string  `json:"title,omitempty"`
	Reliability     int     `json:"reliability"`
	SupportStrength float64 `json:"support_strength"`
	EvidenceSnippet string  `json:"evidence_snippet,omitempty"`
}

// DateConsistency summarizes how well source-mentioned dates agree with the
// claim's own event date.
type DateConsistency struct {
	Consistent bool    `json:"consistent"`
	Score      float64 `json:"consistency_score"`
	Matches    int     `json:"matches"`
	Conflicts  int     `json:"conflicts"`
	Note       string  `json:"note,omitempty"`
}

// Contradiction is one source judged to contradict a claim.
type Contradiction struct {
	SourceID  string  `json:"source_id"`
	URL       string  `json:"url"`
	Title     string  `json:"title,omitempty"`
	Strength  float64 `json:"contradiction_strength"`
	Evidence  string  `json:"contradicting_evidence,omitempty"`
	Reasoning string  `json:"reasoning,omitempty"`
}

// VerificationResult decorates one claim for the duration of a verification
// pass. It is recomputed, never merged, on every re-run.
type VerificationResult struct {
	ClaimID           string             `json:"claim_id"`
	ClaimText         string             `json:"claim"`
	CoarseStatus      CoarseStatus       `json:"coarse_status"`
	Verified          bool               `json:"verified"`
	Flagged           bool               `json:"flagged"`
	VerificationScore float64            `json:"verification_score"`
	SupportingSources []SupportingSource `json:"supporting_sources"`
	DateConsistency   DateConsistency    `json:"date_consistency"`
	Contradictions    []Contradiction    `json:"contradictions"`
	Recommendation    Recommendation     `json:"recommendation"`
}

// SupportingCount returns the number of supporting sources.
func (r VerificationResult) SupportingCount() int {
	return len(r.SupportingSources)
}

// DeriveRecommendation applies the fixed precedence: contradictions beat
// everything, then verified, then flagged, then caution.
func DeriveRecommendation(verified, flagged bool, contradictions int) Recommendation {
	switch {
	case contradictions > 0:
		return RecommendationManualReview
	case verified:
		return RecommendationApproved
	case flagged:
		return RecommendationReject
	default:
		return RecommendationCaution
	}
}
