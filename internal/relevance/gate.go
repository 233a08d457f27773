// Package relevance decides whether an evidence item is topically related
// enough to the claim to be stance-classified at all. Topically unrelated
// evidence must never register as contradiction: absence of support is not
// refutation.
package relevance

import (
	"context"
	"fmt"
	"os"
)

// Similarity is the external semantic-similarity capability: cosine
// similarity over sentence embeddings, in [0,1].
type Similarity interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// Decision is the gate's output for one (claim, evidence) pair
type Decision struct {
	Relevance      float64
	ShouldClassify bool

	// Degraded means the similarity service was unavailable and the gate
	// failed open, treating the item as relevant. An availability/precision
	// trade-off: gating off is better than failing the whole verification.
	Degraded bool
}

// Gate computes claim/evidence relevance against a threshold
type Gate struct {
	sim       Similarity
	threshold float64
	verbose   bool
}

// NewGate creates a relevance gate. A nil similarity function disables
// gating entirely (every item passes, marked degraded).
func NewGate(sim Similarity, threshold float64, verbose bool) *Gate {
	return &Gate{sim: sim, threshold: threshold, verbose: verbose}
}

// Threshold returns the configured relevance threshold
func (g *Gate) Threshold() float64 {
	return g.threshold
}

// Check scores one evidence text against the claim. On similarity-service
// failure the gate fails open rather than failing the claim.
func (g *Gate) Check(ctx context.Context, claimText, evidenceText string) Decision {
	if g.sim == nil {
		return Decision{Relevance: 1.0, ShouldClassify: true, Degraded: true}
	}

	score, err := g.sim.Similarity(ctx, claimText, evidenceText)
	if err != nil {
		if g.verbose {
			fmt.Fprintf(os.Stderr, "relevance gate degraded (similarity unavailable): %v\n", err)
		}
		return Decision{Relevance: 1.0, ShouldClassify: true, Degraded: true}
	}

	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}

	return Decision{
		Relevance:      score,
		ShouldClassify: score >= g.threshold,
	}
}
