package consensus

import (
	"math"
	"testing"

	"github.com/veridex/veridex/internal/model"
)

func assessment(cred float64, stance model.StanceResult) model.EvidenceAssessment {
	return model.EvidenceAssessment{
		Credibility: model.CredibilityAssessment{Credibility: cred},
		Stance:      stance,
	}
}

func supporting(cred, entailment float64) model.EvidenceAssessment {
	return assessment(cred, model.StanceResult{Entailment: entailment, Contradiction: 0.05, Neutral: 1 - entailment - 0.05})
}

func contradicting(cred, contradiction float64) model.EvidenceAssessment {
	return assessment(cred, model.StanceResult{Contradiction: contradiction, Entailment: 0.05, Neutral: 1 - contradiction - 0.05})
}

func neutral(cred, score float64) model.EvidenceAssessment {
	return assessment(cred, model.StanceResult{Neutral: score, Entailment: (1 - score) / 2, Contradiction: (1 - score) / 2})
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAggregateWeights(t *testing.T) {
	a := NewAggregator(0.4, 0.75)

	items := []model.EvidenceAssessment{
		supporting(0.8, 0.9),    // 0.72 supporting
		contradicting(0.6, 0.8), // 0.48 contradicting
		neutral(0.9, 0.8),       // 0.9*0.8*0.4 = 0.288 neutral
	}

	signal := a.Aggregate(items)

	if !almostEqual(signal.SupportingWeight, 0.72) {
		t.Errorf("SupportingWeight = %v, want 0.72", signal.SupportingWeight)
	}
	if !almostEqual(signal.ContradictingWeight, 0.48) {
		t.Errorf("ContradictingWeight = %v, want 0.48", signal.ContradictingWeight)
	}
	if !almostEqual(signal.NeutralWeight, 0.288) {
		t.Errorf("NeutralWeight = %v, want 0.288", signal.NeutralWeight)
	}
	if signal.TotalSources != 3 {
		t.Errorf("TotalSources = %d, want 3", signal.TotalSources)
	}

	wantStrength := 0.72 / (0.72 + 0.48 + 0.288)
	if !almostEqual(signal.ConsensusStrength, wantStrength) {
		t.Errorf("ConsensusStrength = %v, want %v", signal.ConsensusStrength, wantStrength)
	}
}

func TestAggregateHighCredibilityCounts(t *testing.T) {
	a := NewAggregator(0.4, 0.75)

	items := []model.EvidenceAssessment{
		supporting(0.9, 0.9),    // high cred
		supporting(0.6, 0.9),    // below threshold
		contradicting(0.8, 0.9), // high cred
		contradicting(0.75, 0.9), // exactly at threshold counts
	}

	signal := a.Aggregate(items)
	if signal.HighCredibilitySupportingCount != 1 {
		t.Errorf("HighCredibilitySupportingCount = %d, want 1", signal.HighCredibilitySupportingCount)
	}
	if signal.HighCredibilityContradictingCount != 2 {
		t.Errorf("HighCredibilityContradictingCount = %d, want 2", signal.HighCredibilityContradictingCount)
	}
}

func TestAggregateEmptyAndAllNeutral(t *testing.T) {
	a := NewAggregator(0.4, 0.75)

	t.Run("no evidence", func(t *testing.T) {
		signal := a.Aggregate(nil)
		if signal.ConsensusStrength != 0 {
			t.Errorf("ConsensusStrength = %v, want 0 for empty evidence", signal.ConsensusStrength)
		}
		if signal.TotalSources != 0 {
			t.Errorf("TotalSources = %d, want 0", signal.TotalSources)
		}
	})

	t.Run("all neutral", func(t *testing.T) {
		signal := a.Aggregate([]model.EvidenceAssessment{
			neutral(0.8, 0.9),
			neutral(0.7, 0.9),
		})
		if signal.SupportingWeight != 0 || signal.ContradictingWeight != 0 {
			t.Errorf("neutral-only evidence produced directional weight: %+v", signal)
		}
		if signal.ConsensusStrength != 0 {
			t.Errorf("ConsensusStrength = %v, want 0 when max directional weight is 0", signal.ConsensusStrength)
		}
	})
}

func TestAggregateIdempotent(t *testing.T) {
	a := NewAggregator(0.4, 0.75)
	items := []model.EvidenceAssessment{
		supporting(0.8, 0.9),
		contradicting(0.65, 0.7),
		neutral(0.6, 0.8),
	}

	first := a.Aggregate(items)
	for i := 0; i < 5; i++ {
		if got := a.Aggregate(items); got != first {
			t.Fatalf("aggregation changed across calls: %+v vs %+v", got, first)
		}
	}
}

func TestAggregateGatedEvidenceBarelyMoves(t *testing.T) {
	a := NewAggregator(0.4, 0.75)

	// A gated item is forced near-total neutral; its contribution must be
	// small and strictly neutral.
	signal := a.Aggregate([]model.EvidenceAssessment{
		assessment(0.8, model.GatedStance(0.2)),
	})

	if signal.SupportingWeight != 0 || signal.ContradictingWeight != 0 {
		t.Errorf("gated evidence produced directional weight: %+v", signal)
	}
	if signal.NeutralWeight >= 0.8*0.4 {
		t.Errorf("gated neutral weight %v should stay below a full neutral's", signal.NeutralWeight)
	}
}

func TestAggregateMoreSupportRaisesStrength(t *testing.T) {
	a := NewAggregator(0.4, 0.75)

	base := []model.EvidenceAssessment{
		supporting(0.8, 0.9),
		contradicting(0.6, 0.8),
	}
	more := append([]model.EvidenceAssessment{supporting(0.9, 0.9)}, base...)

	if a.Aggregate(more).ConsensusStrength <= a.Aggregate(base).ConsensusStrength {
		t.Error("adding a supporting source to a support-dominant set must not lower consensus strength")
	}
}
