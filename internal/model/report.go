package model

import "time"

// EvidenceAssessment pairs one evidence item with everything the engine
// derived about it, so a downstream explanation renderer can construct a
// reasoning trail without recomputing anything.
type EvidenceAssessment struct {
	Evidence    EvidenceItem          `json:"evidence"`
	Credibility CredibilityAssessment `json:"credibility"`
	Stance      StanceResult          `json:"stance"`
}

// ClaimVerification is the complete per-claim output: the decision, the
// aggregate signal, and the full per-evidence breakdown.
type ClaimVerification struct {
	Claim    Claim                `json:"claim"`
	Evidence []EvidenceAssessment `json:"evidence"`

	// ExcludedSources lists URLs dropped outright by auto-exclude tiers
	// (satire, blacklist). They never reach the relevance gate.
	ExcludedSources []string `json:"excluded_sources,omitempty"`

	Consensus ConsensusSignal `json:"consensus"`
	Decision  VerdictDecision `json:"decision"`

	// DegradedMode is set when the similarity service was unreachable and
	// the relevance gate failed open for this claim.
	DegradedMode bool `json:"degraded_mode,omitempty"`
}

// Report is the output of one verification run over a batch of claims
type Report struct {
	ID          string    `json:"id"` // verification run ID
	Source      string    `json:"source,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	TierVersion string    `json:"tier_table_version"`

	Results []ClaimVerification `json:"results"`
}

// Counts returns how many claims landed on each verdict
func (r *Report) Counts() map[Verdict]int {
	counts := make(map[Verdict]int)
	for _, res := range r.Results {
		counts[res.Decision.Verdict]++
	}
	return counts
}
