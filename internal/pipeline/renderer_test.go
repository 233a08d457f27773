package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/veridex/veridex/internal/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		ID:          "run-1",
		Source:      "claims.json",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TierVersion: "v1",
		Results: []model.ClaimVerification{
			{
				Claim: model.Claim{Text: "The figure was reported", Type: model.ClaimTypeFactual, IsVerifiable: true},
				Evidence: []model.EvidenceAssessment{
					{
						Evidence:    model.EvidenceItem{SourceName: "reuters.com", URL: "https://reuters.com/a", Title: "T"},
						Credibility: model.CredibilityAssessment{Tier: "news_tier1", Credibility: 0.8},
						Stance:      model.StanceResult{Entailment: 0.9, Contradiction: 0.05, Neutral: 0.05, Relevance: 0.92},
					},
				},
				ExcludedSources: []string{"https://theonion.com/x"},
				Consensus:       model.ConsensusSignal{SupportingWeight: 0.72, ConsensusStrength: 1.0, TotalSources: 1},
				Decision:        model.VerdictDecision{Verdict: model.VerdictSupported, Confidence: 100, MinRequirementsMet: true},
			},
		},
	}
}

func TestRenderJSONRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	if err := NewRenderer(true).RenderJSON(sampleReport(), path); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	var got model.Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if got.ID != "run-1" || len(got.Results) != 1 {
		t.Errorf("round-tripped report = %+v", got)
	}
	if got.Results[0].Decision.Verdict != model.VerdictSupported {
		t.Errorf("verdict = %q", got.Results[0].Decision.Verdict)
	}
}

func TestRenderMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")

	if err := NewRenderer(true).RenderMarkdown(sampleReport(), path); err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	md := string(data)

	for _, want := range []string{
		"# Claim Verification Report",
		"run-1",
		"The figure was reported",
		"supported",
		"reuters.com",
		"news_tier1",
		"theonion.com",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdownFooterToggle(t *testing.T) {
	dir := t.TempDir()

	withPath := filepath.Join(dir, "with.md")
	withoutPath := filepath.Join(dir, "without.md")

	if err := NewRenderer(true).RenderMarkdown(sampleReport(), withPath); err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	if err := NewRenderer(false).RenderMarkdown(sampleReport(), withoutPath); err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}

	withData, _ := os.ReadFile(withPath)
	withoutData, _ := os.ReadFile(withoutPath)

	const marker = "not ground truth"
	if !strings.Contains(string(withData), marker) {
		t.Error("footer missing when enabled")
	}
	if strings.Contains(string(withoutData), marker) {
		t.Error("footer present when disabled")
	}
}
