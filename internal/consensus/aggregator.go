// Package consensus combines per-evidence stance scores with credibility
// weights into the aggregate signal the verdict engine decides on.
package consensus

import "github.com/veridex/veridex/internal/model"

// Aggregator reduces a claim's assessed evidence into one ConsensusSignal.
// Aggregate is a pure function: identical inputs yield identical output.
type Aggregator struct {
	neutralFactor   float64 // weight neutral evidence carries as mild corroboration
	highCredibility float64 // tier-1 threshold for expert-disagreement counting
}

// NewAggregator creates an aggregator with the given tunables
func NewAggregator(neutralFactor, highCredibility float64) *Aggregator {
	return &Aggregator{
		neutralFactor:   neutralFactor,
		highCredibility: highCredibility,
	}
}

// Aggregate computes credibility-weighted supporting and contradicting
// weights over dominant stances, a partial corroboration weight from
// neutral evidence (neutral means "no counter-evidence found", not
// disagreement), and the normalized consensus strength.
func (a *Aggregator) Aggregate(items []model.EvidenceAssessment) model.ConsensusSignal {
	signal := model.ConsensusSignal{TotalSources: len(items)}

	for _, item := range items {
		cred := item.Credibility.Credibility
		high := cred >= a.highCredibility

		switch item.Stance.Dominant() {
		case model.StanceEntailment:
			signal.SupportingWeight += cred * item.Stance.Entailment
			if high {
				signal.HighCredibilitySupportingCount++
			}
		case model.StanceContradiction:
			signal.ContradictingWeight += cred * item.Stance.Contradiction
			if high {
				signal.HighCredibilityContradictingCount++
			}
		case model.StanceNeutral:
			signal.NeutralWeight += cred * item.Stance.Neutral * a.neutralFactor
		}
	}

	denominator := signal.SupportingWeight + signal.ContradictingWeight + signal.NeutralWeight
	if denominator > 0 {
		strength := max(signal.SupportingWeight, signal.ContradictingWeight) / denominator
		if strength > 1 {
			strength = 1
		}
		signal.ConsensusStrength = strength
	}

	return signal
}
