package model

// Claim is an atomic factual assertion extracted from a source.
//
// The subject/predicate/object triple is a best-effort semantic
// decomposition; extraction may legitimately leave all three empty.
// EventDate is the normalized ISO form ("" when no valid date was found;
// callers must treat "" as absent, never as an epoch default).
type Claim struct {
	ID                 string  `json:"id"`
	Text               string  `json:"text"`
	EventDate          string  `json:"event_date,omitempty"` // YYYY-MM-DD
	Subject            string  `json:"subject,omitempty"`
	Predicate          string  `json:"predicate,omitempty"`
	Object             string  `json:"object,omitempty"`
	Confidence         float64 `json:"confidence"` // always in [0,1]
	SourceURL          string  `json:"source_url"`
	EvidenceSnippet    string  `json:"evidence_snippet,omitempty"`
	CorroborationCount int     `json:"corroboration_count"`
}

// HasDate reports whether the claim carries a normalized event date.
func (c Claim) HasDate() bool {
	return c.EventDate != ""
}

// HasEntities reports whether any of the semantic decomposition fields is
// populated. Claims failing this test go through entity backfill.
func (c Claim) HasEntities() bool {
	return c.Subject != "" || c.Predicate != "" || c.Object != ""
}

// ClampConfidence forces a model-reported confidence into [0,1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
