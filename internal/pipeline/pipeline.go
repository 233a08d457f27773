// Package pipeline orchestrates the verification of claims: credibility
// resolution, relevance gating, stance classification, consensus
// aggregation, and the verdict decision, in strict downstream order.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/veridex/veridex/internal/cache"
	"github.com/veridex/veridex/internal/consensus"
	"github.com/veridex/veridex/internal/credibility"
	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/nli"
	"github.com/veridex/veridex/internal/numeric"
	"github.com/veridex/veridex/internal/relevance"
	"github.com/veridex/veridex/internal/sanitize"
	"github.com/veridex/veridex/internal/stance"
	"github.com/veridex/veridex/internal/validate"
	"github.com/veridex/veridex/internal/verdict"
)

// ClaimInput is one unit of work: a claim plus its externally retrieved
// evidence list (already deduplicated and domain-capped upstream).
type ClaimInput struct {
	Claim    model.Claim          `json:"claim"`
	Evidence []model.EvidenceItem `json:"evidence"`
}

// VerifyOptions tunes one verification call
type VerifyOptions struct {
	// MinSources lowers the source floor for narrowly-scoped claims.
	// Zero uses the configured default.
	MinSources int
}

// Engine is the verification pipeline. It holds only immutable
// configuration and stateless components; verifications of independent
// claims share no mutable state and run concurrently.
type Engine struct {
	cfg        *model.Config
	resolver   *credibility.Resolver
	gate       *relevance.Gate
	classifier *stance.Classifier
	aggregator *consensus.Aggregator
	decider    *verdict.Engine
	normalizer *numeric.Normalizer
	prober     *validate.Prober
	provider   nli.Provider
}

// NewEngine builds a pipeline from validated configuration. A malformed
// configuration is an error here and fatal to the caller; the engine must
// not start with one.
func NewEngine(cfg *model.Config) (*Engine, error) {
	provider, err := nli.NewProvider(nli.ConfigFromModel(cfg.NLI, cfg.Proxy))
	if err != nil {
		return nil, fmt.Errorf("nli provider: %w", err)
	}
	return newEngine(cfg, provider)
}

func newEngine(cfg *model.Config, provider nli.Provider) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	var store cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			store = cache.NewLayered(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		} else {
			store = cache.NewMemory(cfg.Cache.MemoryTTL)
		}
	}

	resolver, err := credibility.NewResolver(cfg.TierTable, cfg.Thresholds.PrimarySourceBoost, store)
	if err != nil {
		return nil, fmt.Errorf("credibility resolver: %w", err)
	}

	var sim relevance.Similarity
	var stanceModel nli.StanceModel
	if provider != nil {
		sim = provider
		stanceModel = provider
	}

	engine := &Engine{
		cfg:      cfg,
		resolver: resolver,
		gate:     relevance.NewGate(sim, cfg.Thresholds.Relevance, cfg.Output.Verbose),
		classifier: stance.NewClassifier(stanceModel, stance.Options{
			Cache:         store,
			Limiter:       stance.NewLimiter(cfg.NLI.RequestsPerSecond, cfg.NLI.Burst),
			Timeout:       cfg.Concurrency.ClassifyTimeout,
			Workers:       cfg.Concurrency.ClassifyWorkers,
			MaxInputChars: cfg.NLI.MaxInputChars,
			Verbose:       cfg.Output.Verbose,
		}),
		aggregator: consensus.NewAggregator(cfg.Thresholds.NeutralConsensusFactor, cfg.Thresholds.HighCredibility),
		decider:    verdict.NewEngine(cfg.Thresholds.MinSourcesForVerdict, cfg.Thresholds.MinCredibility, cfg.Thresholds.MinConsensusStrength),
		normalizer: numeric.NewNormalizer(cfg.Thresholds.ApproxTolerance, cfg.Thresholds.ExactTolerance),
		provider:   provider,
	}

	if cfg.Validation.Enabled {
		engine.prober = validate.NewProber(cfg.Validation, cfg.Proxy)
	}

	return engine, nil
}

// VerifyClaim runs the full pipeline for one claim. It never returns an
// error: per-item failures degrade locally and the only externally visible
// failure is an abstaining verdict.
func (e *Engine) VerifyClaim(ctx context.Context, claim model.Claim, evidence []model.EvidenceItem, opts VerifyOptions) model.ClaimVerification {
	result := model.ClaimVerification{Claim: claim}

	// Non-verifiable claims short-circuit the whole engine: no evidence
	// processing, fixed terminal decision.
	if !claim.IsVerifiable {
		result.Decision = e.decider.Decide(claim, model.ConsensusSignal{}, nil, verdict.Options{})
		return result
	}

	kept := make([]model.EvidenceItem, 0, len(evidence))
	assessments := make([]model.CredibilityAssessment, 0, len(evidence))

	for _, item := range evidence {
		assessment := e.resolver.ResolveItem(item)
		if assessment.AutoExclude {
			// The one place evidence is discarded outright rather than
			// down-weighted.
			result.ExcludedSources = append(result.ExcludedSources, item.URL)
			continue
		}
		kept = append(kept, item)
		assessments = append(assessments, assessment)
	}

	if e.prober != nil {
		e.mergeProbeFlags(ctx, kept, assessments)
	}

	inputs := make([]stance.Input, len(kept))
	for i, item := range kept {
		title := sanitize.Snippet(item.Title)
		snippet := sanitize.Snippet(item.Text)

		// Hedged numeric claims: rewrite in-tolerance evidence figures to
		// the claim's phrasing before the classifier sees them.
		snippet, _ = e.normalizer.Normalize(claim.Text, snippet)

		gateText := stance.BuildInput(title, snippet, e.cfg.NLI.MaxInputChars)
		decision := e.gate.Check(ctx, claim.Text, gateText)
		if decision.Degraded {
			result.DegradedMode = true
		}

		inputs[i] = stance.Input{
			Title:     title,
			Snippet:   snippet,
			Relevance: decision.Relevance,
			Classify:  decision.ShouldClassify,
		}
	}

	stances := e.classifier.ClassifyBatch(ctx, claim.Text, inputs)

	result.Evidence = make([]model.EvidenceAssessment, len(kept))
	for i := range kept {
		result.Evidence[i] = model.EvidenceAssessment{
			Evidence:    kept[i],
			Credibility: assessments[i],
			Stance:      stances[i],
		}
	}

	result.Consensus = e.aggregator.Aggregate(result.Evidence)
	result.Decision = e.decider.Decide(claim, result.Consensus, result.Evidence, verdict.Options{MinSources: opts.MinSources})

	if e.cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "verdict %s (%.0f) for claim: %.60s\n",
			result.Decision.Verdict, result.Decision.Confidence, claim.Text)
	}

	return result
}

// VerifyAll verifies independent claims concurrently, bounded by the
// configured claim worker count. Claims cancelled mid-flight never reach a
// decision and are omitted from the report rather than returned corrupted.
func (e *Engine) VerifyAll(ctx context.Context, inputs []ClaimInput, opts VerifyOptions) *model.Report {
	results := make([]*model.ClaimVerification, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency.ClaimWorkers)

	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			verification := e.VerifyClaim(gctx, input.Claim, input.Evidence, opts)
			results[i] = &verification
			return nil
		})
	}
	_ = g.Wait()

	report := &model.Report{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		TierVersion: e.cfg.TierTable.Version,
	}
	for _, r := range results {
		if r != nil {
			report.Results = append(report.Results, *r)
		}
	}
	return report
}

// mergeProbeFlags folds link probe outcomes into the per-item risk flags
func (e *Engine) mergeProbeFlags(ctx context.Context, items []model.EvidenceItem, assessments []model.CredibilityAssessment) {
	urls := make([]string, len(items))
	for i, item := range items {
		urls[i] = item.URL
	}

	for i, status := range e.prober.Probe(ctx, urls) {
		assessments[i].RiskFlags = append(assessments[i].RiskFlags, status.RiskFlags()...)
	}
}
