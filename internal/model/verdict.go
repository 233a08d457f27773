package model

// Verdict is the terminal outcome of verifying one claim
type Verdict string

const (
	VerdictSupported          Verdict = "supported"
	VerdictContradicted       Verdict = "contradicted"
	VerdictUncertain          Verdict = "uncertain"
	VerdictInsufficient       Verdict = "insufficient_evidence"
	VerdictConflictingExperts Verdict = "conflicting_expert_opinion"
	VerdictNotApplicable      Verdict = "not_applicable" // claim is not verifiable
)

// ConsensusSignal aggregates per-evidence stance scores with credibility
// weights. Computed fresh on every verification; never mutated in place.
type ConsensusSignal struct {
	SupportingWeight    float64 `json:"supporting_weight"`
	ContradictingWeight float64 `json:"contradicting_weight"`
	NeutralWeight       float64 `json:"neutral_weight"`
	ConsensusStrength   float64 `json:"consensus_strength"` // 0..1

	HighCredibilitySupportingCount    int `json:"high_credibility_supporting_count"`
	HighCredibilityContradictingCount int `json:"high_credibility_contradicting_count"`
	TotalSources                      int `json:"total_sources"`
}

// VerdictDecision is the final output for one claim. Created exactly once
// per verification pass; re-verification produces a fresh value rather than
// mutating the old one, preserving auditability.
type VerdictDecision struct {
	Verdict            Verdict `json:"verdict"`
	Confidence         float64 `json:"confidence"` // 0..100
	AbstentionReason   string  `json:"abstention_reason,omitempty"`
	MinRequirementsMet bool    `json:"min_requirements_met"`
}
