package nli

import (
	"math"
	"testing"
)

func TestParseStanceJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     StanceScores
		wantErr  bool
	}{
		{
			"clean json",
			`{"entailment": 0.8, "contradiction": 0.1, "neutral": 0.1}`,
			StanceScores{Entailment: 0.8, Contradiction: 0.1, Neutral: 0.1},
			false,
		},
		{
			"markdown fenced",
			"```json\n{\"entailment\": 0.7, \"contradiction\": 0.2, \"neutral\": 0.1}\n```",
			StanceScores{Entailment: 0.7, Contradiction: 0.2, Neutral: 0.1},
			false,
		},
		{
			"surrounding prose",
			`Here is my assessment: {"entailment": 0.5, "contradiction": 0.25, "neutral": 0.25} as requested.`,
			StanceScores{Entailment: 0.5, Contradiction: 0.25, Neutral: 0.25},
			false,
		},
		{
			"unnormalized rescaled",
			`{"entailment": 2, "contradiction": 1, "neutral": 1}`,
			StanceScores{Entailment: 0.5, Contradiction: 0.25, Neutral: 0.25},
			false,
		},
		{
			"no json at all",
			"I cannot classify this.",
			StanceScores{},
			true,
		},
		{
			"all zero rejected",
			`{"entailment": 0, "contradiction": 0, "neutral": 0}`,
			StanceScores{},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStanceJSON(tt.response)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseStanceJSON: %v", err)
			}
			if math.Abs(got.Entailment-tt.want.Entailment) > 1e-9 ||
				math.Abs(got.Contradiction-tt.want.Contradiction) > 1e-9 ||
				math.Abs(got.Neutral-tt.want.Neutral) > 1e-9 {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeClampsNegatives(t *testing.T) {
	got, err := StanceScores{Entailment: -0.5, Contradiction: 0.5, Neutral: 0.5}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.Entailment != 0 {
		t.Errorf("Entailment = %v, want 0 (clamped)", got.Entailment)
	}
	sum := got.Entailment + got.Contradiction + got.Neutral
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("sum = %v, want 1.0", sum)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float32
		want    float64
		wantErr bool
	}{
		{"identical vectors", []float32{1, 0, 1}, []float32{1, 0, 1}, 1.0, false},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, 0.0, false},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0.5, false},
		{"length mismatch", []float32{1}, []float32{1, 2}, 0, true},
		{"empty", nil, nil, 0, true},
		{"zero magnitude", []float32{0, 0}, []float32{1, 1}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Cosine: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewProviderUnknown(t *testing.T) {
	if _, err := NewProvider(Config{Provider: "martian"}); err == nil {
		t.Error("unknown provider must error")
	}
}

func TestNewProviderEmptyIsNil(t *testing.T) {
	p, err := NewProvider(Config{})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if p != nil {
		t.Error("empty provider config must yield a nil provider (degraded mode)")
	}
}
