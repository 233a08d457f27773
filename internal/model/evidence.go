package model

import "time"

// EvidenceItem is a raw evidence record produced by the upstream retrieval
// stage: a snippet of text from some source, already deduplicated and
// domain-capped. Order is retrieval rank and carries no meaning here.
type EvidenceItem struct {
	SourceName    string     `json:"source_name"`
	URL           string     `json:"url"`
	Title         string     `json:"title"`
	Text          string     `json:"text"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
}

// CredibilityAssessment classifies the source of one evidence item.
// Credibility is deterministic given (domain, tier table version).
type CredibilityAssessment struct {
	Tier            string   `json:"tier"`
	Credibility     float64  `json:"credibility"` // 0..1
	RiskFlags       []string `json:"risk_flags,omitempty"`
	AutoExclude     bool     `json:"auto_exclude"`
	IsPrimarySource bool     `json:"is_primary_source"`
}

// Stance is the dominant logical relationship between evidence and claim
type Stance string

const (
	StanceEntailment    Stance = "entailment"
	StanceContradiction Stance = "contradiction"
	StanceNeutral       Stance = "neutral"
)

// StanceResult holds the classifier's output distribution for one
// (claim, evidence) pair. Entailment + Contradiction + Neutral ≈ 1.0.
type StanceResult struct {
	Entailment    float64 `json:"entailment"`
	Contradiction float64 `json:"contradiction"`
	Neutral       float64 `json:"neutral"`
	Relevance     float64 `json:"relevance"` // 0..1 semantic relevance to the claim

	// Gated means the item fell below the relevance threshold and was
	// forced neutral without invoking the classifier.
	Gated bool `json:"gated,omitempty"`

	// Degraded means the classifier failed or timed out and the uniform
	// fallback distribution was substituted.
	Degraded bool `json:"degraded,omitempty"`
}

// Dominant returns the stance with the highest score. Ties resolve to
// neutral so that ambiguous output never reads as support or refutation.
func (s StanceResult) Dominant() Stance {
	if s.Entailment > s.Contradiction && s.Entailment > s.Neutral {
		return StanceEntailment
	}
	if s.Contradiction > s.Entailment && s.Contradiction > s.Neutral {
		return StanceContradiction
	}
	return StanceNeutral
}

// GatedStance is the forced result for evidence below the relevance
// threshold. Off-topic evidence must never register as contradiction or
// support; that is the primary defense against false contradictions.
func GatedStance(relevance float64) StanceResult {
	return StanceResult{
		Entailment:    0.05,
		Contradiction: 0.05,
		Neutral:       0.90,
		Relevance:     relevance,
		Gated:         true,
	}
}

// DegradedStance is the maximally uncertain fallback substituted when the
// classifier fails or times out for one item.
func DegradedStance(relevance float64) StanceResult {
	return StanceResult{
		Entailment:    0.33,
		Contradiction: 0.33,
		Neutral:       0.34,
		Relevance:     relevance,
		Degraded:      true,
	}
}
