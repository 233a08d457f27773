// Package verdict applies the abstention policy and verdict state machine
// to a claim's aggregated evidence signal. Every claim yields either a
// definitive verdict or an explicit abstention with a human-readable
// reason; abstention is the error-handling strategy, not a failure state.
package verdict

import (
	"fmt"
	"math"

	"github.com/veridex/veridex/internal/model"
)

// Engine evaluates the decision guards in a fixed order; the order is part
// of the contract, first matching guard wins.
//
// Numeric tolerance for hedged claims is applied upstream of stance
// classification; the engine must not re-derive stricter numeric equality,
// and it never reinterprets claim text (no qualifiers the claim does not
// contain). It decides purely on the aggregated signal.
type Engine struct {
	minSources     int
	minCredibility float64
	minConsensus   float64
}

// Options tunes one decision without mutating the shared engine
type Options struct {
	// MinSources overrides the configured source floor, for claims about
	// narrowly-scoped entities where evidence is intrinsically sparse.
	// Zero means use the configured default.
	MinSources int
}

// NewEngine creates a verdict engine with the configured thresholds
func NewEngine(minSources int, minCredibility, minConsensus float64) *Engine {
	return &Engine{
		minSources:     minSources,
		minCredibility: minCredibility,
		minConsensus:   minConsensus,
	}
}

// Decide runs the guard sequence over one claim's aggregate signal and
// assessed evidence. It always returns a decision; it never errors.
func (e *Engine) Decide(claim model.Claim, signal model.ConsensusSignal, items []model.EvidenceAssessment, opts Options) model.VerdictDecision {
	// Guard 1: non-verifiable claims terminate immediately, no further checks.
	if !claim.IsVerifiable {
		return model.VerdictDecision{
			Verdict:          model.VerdictNotApplicable,
			Confidence:       0,
			AbstentionReason: "claim is not verifiable",
		}
	}

	minSources := e.minSources
	if opts.MinSources > 0 {
		minSources = opts.MinSources
	}

	// Guard 2: source-count floor.
	if signal.TotalSources < minSources {
		return model.VerdictDecision{
			Verdict:    model.VerdictInsufficient,
			Confidence: 0,
			AbstentionReason: fmt.Sprintf("only %d source(s) available, %d required for a verdict",
				signal.TotalSources, minSources),
		}
	}

	// Guard 3: at least one source must clear the credibility floor.
	if !anyCredibleSource(items, e.minCredibility) {
		return model.VerdictDecision{
			Verdict:          model.VerdictInsufficient,
			Confidence:       0,
			AbstentionReason: "no authoritative sources found",
		}
	}

	confidence := math.Round(signal.ConsensusStrength * 100)

	// Guard 4: genuine expert disagreement, high-credibility sources on
	// both sides, not one weak outlier.
	if signal.HighCredibilitySupportingCount > 0 && signal.HighCredibilityContradictingCount > 0 {
		return model.VerdictDecision{
			Verdict:            model.VerdictConflictingExperts,
			Confidence:         confidence,
			MinRequirementsMet: true,
			AbstentionReason: fmt.Sprintf("high-credibility sources disagree: %d supporting, %d contradicting",
				signal.HighCredibilitySupportingCount, signal.HighCredibilityContradictingCount),
		}
	}

	// Guard 5: weak consensus.
	if signal.ConsensusStrength < e.minConsensus {
		if signal.SupportingWeight > 0 && signal.ContradictingWeight > 0 {
			return model.VerdictDecision{
				Verdict:            model.VerdictConflictingExperts,
				Confidence:         confidence,
				MinRequirementsMet: true,
				AbstentionReason: fmt.Sprintf("consensus strength %.2f below %.2f with evidence on both sides",
					signal.ConsensusStrength, e.minConsensus),
			}
		}
		return model.VerdictDecision{
			Verdict:            model.VerdictInsufficient,
			Confidence:         confidence,
			MinRequirementsMet: true,
			AbstentionReason: fmt.Sprintf("consensus strength %.2f below %.2f",
				signal.ConsensusStrength, e.minConsensus),
		}
	}

	// Guard 6: definitive verdict.
	switch {
	case signal.SupportingWeight > signal.ContradictingWeight:
		return model.VerdictDecision{
			Verdict:            model.VerdictSupported,
			Confidence:         confidence,
			MinRequirementsMet: true,
		}
	case signal.ContradictingWeight > signal.SupportingWeight:
		return model.VerdictDecision{
			Verdict:            model.VerdictContradicted,
			Confidence:         confidence,
			MinRequirementsMet: true,
		}
	default:
		// Exactly balanced weights that still passed the consensus guard
		// (e.g. all-neutral evidence). Neither side earned the verdict.
		return model.VerdictDecision{
			Verdict:            model.VerdictUncertain,
			Confidence:         confidence,
			MinRequirementsMet: true,
			AbstentionReason:   "supporting and contradicting weights are balanced",
		}
	}
}

func anyCredibleSource(items []model.EvidenceAssessment, floor float64) bool {
	for _, item := range items {
		if item.Credibility.Credibility >= floor {
			return true
		}
	}
	return false
}
