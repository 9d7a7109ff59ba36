package verify

import (
	"math"
	"testing"

	"github.com/claimsift/claimsift/internal/model"
)

func srcs(reliabilities ...int) []model.SupportingSource {
	out := make([]model.SupportingSource, len(reliabilities))
	for i, r := range reliabilities {
		out[i] = model.SupportingSource{Reliability: r, SupportStrength: 0.8}
	}
	return out
}

func TestComposeScore(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		supporting []model.SupportingSource
		dateOK     bool
		want       float64
	}{
		{"no support no date", 0.9, nil, false, 0.27},
		{"single source", 0.9, srcs(5), false, 0.27 + 0.15 + 0.2},
		{"two sources with date", 0.9, srcs(4, 5), true, 0.27 + 0.3 + 0.18 + 0.2},
		{"zero confidence still earns bonuses", 0, srcs(5, 5), true, 0.3 + 0.2 + 0.2},
		{"never exceeds one", 1.0, srcs(5, 5, 5), true, 1.0},
		{"never below zero", -3, nil, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComposeScore(tt.confidence, tt.supporting, tt.dateOK)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ComposeScore() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("score %v out of [0,1]", got)
			}
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	cfg := model.DefaultConfig().Verify // threshold 0.7, min sources 2

	tests := []struct {
		name         string
		coarse       model.CoarseStatus
		score        float64
		count        int
		wantVerified bool
		wantFlagged  bool
	}{
		{"supported with score and sources", model.StatusSupported, 0.9, 2, true, false},
		{"supported but below threshold", model.StatusSupported, 0.6, 2, false, false},
		{"supported but too few sources", model.StatusSupported, 0.9, 1, false, false},
		{"unsupported flags regardless of score", model.StatusUnsupported, 0.9, 2, false, true},
		{"low score flags", model.StatusRequiresMoreInfo, 0.4, 2, false, true},
		{"no sources flags", model.StatusRequiresMoreInfo, 0.6, 0, false, true},
		{"middling stays neutral", model.StatusRequiresMoreInfo, 0.6, 1, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verified, flagged := deriveStatus(tt.coarse, tt.score, tt.count, cfg)
			if verified != tt.wantVerified || flagged != tt.wantFlagged {
				t.Errorf("deriveStatus() = (%v, %v), want (%v, %v)",
					verified, flagged, tt.wantVerified, tt.wantFlagged)
			}
		})
	}
}

func TestDeriveRecommendationPrecedence(t *testing.T) {
	tests := []struct {
		name           string
		verified       bool
		flagged        bool
		contradictions int
		want           model.Recommendation
	}{
		{"contradictions override verified", true, false, 1, model.RecommendationManualReview},
		{"contradictions override flagged", false, true, 2, model.RecommendationManualReview},
		{"verified approves", true, false, 0, model.RecommendationApproved},
		{"flagged rejects", false, true, 0, model.RecommendationReject},
		{"neither is caution", false, false, 0, model.RecommendationCaution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := model.DeriveRecommendation(tt.verified, tt.flagged, tt.contradictions)
			if got != tt.want {
				t.Errorf("DeriveRecommendation() = %v, want %v", got, tt.want)
			}
		})
	}
}
