package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/veridex/veridex/internal/model"
)

// Renderer writes verification reports in the supported output formats
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a report renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the full report as indented JSON. An empty path writes
// to stdout.
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report. An empty path writes to
// stdout.
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var sb strings.Builder

	sb.WriteString("# Claim Verification Report\n\n")
	fmt.Fprintf(&sb, "- **Run ID**: `%s`\n", report.ID)
	if report.Source != "" {
		fmt.Fprintf(&sb, "- **Source**: %s\n", report.Source)
	}
	fmt.Fprintf(&sb, "- **Generated**: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&sb, "- **Tier table**: %s\n", report.TierVersion)
	fmt.Fprintf(&sb, "- **Claims**: %d\n\n", len(report.Results))

	r.writeVerdictTable(&sb, report)

	for i, res := range report.Results {
		fmt.Fprintf(&sb, "## Claim %d\n\n", i+1)
		fmt.Fprintf(&sb, "> %s\n\n", res.Claim.Text)

		fmt.Fprintf(&sb, "**Verdict**: %s (confidence %.0f)\n\n", res.Decision.Verdict, res.Decision.Confidence)
		if res.Decision.AbstentionReason != "" {
			fmt.Fprintf(&sb, "**Reason**: %s\n\n", res.Decision.AbstentionReason)
		}
		if res.DegradedMode {
			sb.WriteString("**Note**: relevance gating was degraded for this claim; all evidence was classified.\n\n")
		}

		fmt.Fprintf(&sb, "Consensus: supporting %.2f, contradicting %.2f, neutral %.2f, strength %.2f\n\n",
			res.Consensus.SupportingWeight, res.Consensus.ContradictingWeight,
			res.Consensus.NeutralWeight, res.Consensus.ConsensusStrength)

		if len(res.Evidence) > 0 {
			sb.WriteString("| Source | Tier | Credibility | Stance | Relevance | Flags |\n")
			sb.WriteString("|--------|------|-------------|--------|-----------|-------|\n")
			for _, ev := range res.Evidence {
				fmt.Fprintf(&sb, "| %s | %s | %.2f | %s | %.2f | %s |\n",
					ev.Evidence.SourceName,
					ev.Credibility.Tier,
					ev.Credibility.Credibility,
					stanceLabel(ev.Stance),
					ev.Stance.Relevance,
					strings.Join(ev.Credibility.RiskFlags, ", "))
			}
			sb.WriteString("\n")
		}

		if len(res.ExcludedSources) > 0 {
			sb.WriteString("Excluded sources:\n\n")
			for _, u := range res.ExcludedSources {
				fmt.Fprintf(&sb, "- %s\n", u)
			}
			sb.WriteString("\n")
		}
	}

	if r.includeFooter {
		sb.WriteString("---\n\n")
		sb.WriteString("Verdicts reflect aggregated source consensus, not ground truth. ")
		sb.WriteString("Abstentions are deliberate: weak or conflicting evidence is reported as such.\n")
	}

	if path == "" {
		_, err := os.Stdout.WriteString(sb.String())
		return err
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderSummary prints a one-screen verdict summary to stdout
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Printf("Verified %d claim(s)\n\n", len(report.Results))

	counts := report.Counts()
	for _, v := range verdictOrder(counts) {
		fmt.Printf("  %-28s %d\n", v, counts[v])
	}
	fmt.Println()

	for i, res := range report.Results {
		marker := " "
		if res.DegradedMode {
			marker = "~"
		}
		fmt.Printf("%s %2d. [%s] %s\n", marker, i+1, res.Decision.Verdict, truncate(res.Claim.Text, 70))
	}
}

func (r *Renderer) writeVerdictTable(sb *strings.Builder, report *model.Report) {
	counts := report.Counts()
	if len(counts) == 0 {
		return
	}
	sb.WriteString("| Verdict | Count |\n|---------|-------|\n")
	for _, v := range verdictOrder(counts) {
		fmt.Fprintf(sb, "| %s | %d |\n", v, counts[v])
	}
	sb.WriteString("\n")
}

func verdictOrder(counts map[model.Verdict]int) []model.Verdict {
	verdicts := make([]model.Verdict, 0, len(counts))
	for v := range counts {
		verdicts = append(verdicts, v)
	}
	sort.Slice(verdicts, func(i, j int) bool { return verdicts[i] < verdicts[j] })
	return verdicts
}

func stanceLabel(s model.StanceResult) string {
	label := string(s.Dominant())
	if s.Gated {
		label += " (gated)"
	}
	if s.Degraded {
		label += " (degraded)"
	}
	return label
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
