// Package nli wraps the external natural-language-inference capabilities
// the engine consumes as black boxes: stance classification between a
// premise and a hypothesis, and semantic similarity between two texts.
package nli

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// StanceScores is the stance model's output: a proper distribution over
// entailment/contradiction/neutral summing to ≈1.0.
type StanceScores struct {
	Entailment    float64 `json:"entailment"`
	Contradiction float64 `json:"contradiction"`
	Neutral       float64 `json:"neutral"`
}

// StanceModel classifies the logical relationship between a premise
// (evidence) and a hypothesis (claim).
type StanceModel interface {
	Name() string
	ClassifyStance(ctx context.Context, premise, hypothesis string) (StanceScores, error)
}

// SimilarityModel scores semantic similarity between two texts in [0,1]
type SimilarityModel interface {
	Name() string
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// Provider supplies both external capabilities from one backend
type Provider interface {
	StanceModel
	SimilarityModel
	IsAvailable(ctx context.Context) bool
}

// Config holds provider configuration
type Config struct {
	Provider       string // openai, ollama, ""
	Model          string
	EmbeddingModel string
	APIKey         string
	BaseURL        string
	Timeout        int // seconds

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// stancePrompt is the strict-JSON contract sent to chat-style backends.
// The model must not add qualifiers absent from the claim text (a claim
// about "its provisions" is not a claim about "all provisions").
const stancePrompt = `You are a natural-language-inference classifier.

Given a CLAIM (hypothesis) and EVIDENCE (premise), score the logical
relationship between them.

Rules:
1. entailment: the evidence logically supports the claim as written.
2. contradiction: the evidence logically refutes the claim as written.
3. neutral: the evidence does not address the claim's truth value.
4. Judge the claim EXACTLY as written. Do not add qualifiers the claim does
   not contain, and do not broaden or narrow its scope before comparing.
5. The three scores must be in [0,1] and sum to 1.0.

Respond with ONLY this JSON object, no other text:
{"entailment": 0.0, "contradiction": 0.0, "neutral": 0.0}`

func stanceUserPrompt(premise, hypothesis string) string {
	return fmt.Sprintf("CLAIM: %s\n\nEVIDENCE: %s", hypothesis, premise)
}

var jsonFence = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// parseStanceJSON extracts a StanceScores object from a model response,
// tolerating markdown fences and surrounding prose, and renormalizes the
// distribution.
func parseStanceJSON(response string) (StanceScores, error) {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```") {
		if m := jsonFence.FindStringSubmatch(response); len(m) > 1 {
			response = m[1]
		}
	}

	var scores StanceScores
	if err := json.Unmarshal([]byte(response), &scores); err != nil {
		start := strings.Index(response, "{")
		end := strings.LastIndex(response, "}")
		if start < 0 || end <= start {
			return StanceScores{}, fmt.Errorf("no JSON object in stance response")
		}
		if err := json.Unmarshal([]byte(response[start:end+1]), &scores); err != nil {
			return StanceScores{}, fmt.Errorf("invalid stance JSON: %w", err)
		}
	}

	return scores.Normalize()
}

// Normalize clamps negatives and rescales the distribution to sum to 1.0.
// An all-zero response is rejected rather than guessed at.
func (s StanceScores) Normalize() (StanceScores, error) {
	s.Entailment = math.Max(0, s.Entailment)
	s.Contradiction = math.Max(0, s.Contradiction)
	s.Neutral = math.Max(0, s.Neutral)

	sum := s.Entailment + s.Contradiction + s.Neutral
	if sum <= 0 {
		return StanceScores{}, fmt.Errorf("degenerate stance distribution (sum %v)", sum)
	}
	s.Entailment /= sum
	s.Contradiction /= sum
	s.Neutral /= sum
	return s, nil
}

// Cosine computes cosine similarity between two embedding vectors, mapped
// from [-1,1] into [0,1].
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, fmt.Errorf("embedding length mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("zero-magnitude embedding")
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cos + 1) / 2, nil
}
