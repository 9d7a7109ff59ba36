package verify

import "github.com/claimsift/claimsift/internal/model"

// ComposeScore combines the heterogeneous verification signals into one
// score in [0,1]. Purely deterministic; no model involvement.
//
//	score = 0.3*original_confidence + source_count_bonus
//	      + reliability_bonus + date_bonus
//
// where the count bonus is 0.3 for two or more supporting sources and
// 0.15 for exactly one, the reliability bonus scales the mean supporting
// reliability onto [0,0.2], and a consistent date adds 0.2.
func ComposeScore(originalConfidence float64, supporting []model.SupportingSource, dateConsistent bool) float64 {
	score := model.ClampConfidence(originalConfidence) * 0.3

	switch {
	case len(supporting) >= 2:
		score += 0.3
	case len(supporting) == 1:
		score += 0.15
	}

	if len(supporting) > 0 {
		total := 0
		for _, s := range supporting {
			total += s.Reliability
		}
		mean := float64(total) / float64(len(supporting))
		score += (mean / 5.0) * 0.2
	}

	if dateConsistent {
		score += 0.2
	}

	return model.ClampConfidence(score)
}

// deriveStatus applies the fixed boolean logic over the coarse status and
// the composed score. The asymmetry between the two conditions (a claim
// the coarse pass calls UNSUPPORTED can score above threshold and still
// end up flagged) is intentional.
func deriveStatus(coarse model.CoarseStatus, score float64, supportingCount int, cfg model.VerifyConfig) (verified, flagged bool) {
	verified = coarse == model.StatusSupported &&
		score >= cfg.ConfidenceThreshold &&
		supportingCount >= cfg.MinSourcesRequired
	flagged = coarse == model.StatusUnsupported ||
		score < 0.5 ||
		supportingCount < 1
	return verified, flagged
}
