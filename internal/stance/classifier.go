// Package stance wraps the external stance-classification capability with
// batching, input truncation, caching, rate limiting, and timeout fallback.
// It never implements the classification model itself.
package stance

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/veridex/veridex/internal/cache"
	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/nli"
)

// Input is one relevance-gated evidence item to classify
type Input struct {
	Title     string
	Snippet   string
	Relevance float64

	// Classify is the relevance gate's decision. When false the classifier
	// is never invoked and the item is forced neutral; this is the primary
	// defense against false contradictions from off-topic evidence.
	Classify bool
}

// Options configures a Classifier
type Options struct {
	Cache         cache.Cache // optional read-through result cache
	Limiter       *Limiter    // optional model endpoint limiter
	Timeout       time.Duration
	Workers       int
	MaxInputChars int
	Verbose       bool
}

// Classifier batches stance classification over a claim's evidence items
type Classifier struct {
	model nli.StanceModel
	opts  Options
}

const (
	defaultTimeout  = 20 * time.Second
	defaultWorkers  = 8
	defaultMaxChars = 1600
	maxRetries      = 2
)

// NewClassifier creates a classifier wrapper around the given stance model.
// A nil model degrades every item to the uniform fallback distribution.
func NewClassifier(stanceModel nli.StanceModel, opts Options) *Classifier {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = defaultMaxChars
	}
	return &Classifier{model: stanceModel, opts: opts}
}

// ClassifyBatch classifies all inputs against the claim concurrently, up to
// the configured worker bound. It always returns one result per input, in
// input order: gated-out items are forced neutral, failed or timed-out
// items get the degraded fallback. It never returns an error; a single slow
// or failed evidence item must not block the pipeline.
func (c *Classifier) ClassifyBatch(ctx context.Context, claimText string, inputs []Input) []model.StanceResult {
	results := make([]model.StanceResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)

	for i, input := range inputs {
		if !input.Classify {
			results[i] = model.GatedStance(input.Relevance)
			continue
		}

		i, input := i, input
		g.Go(func() error {
			results[i] = c.classifyOne(gctx, claimText, input)
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// classifyOne resolves one (claim, evidence) pair: cache, rate limit, model
// call with retry, per-item timeout, degraded fallback.
func (c *Classifier) classifyOne(ctx context.Context, claimText string, input Input) model.StanceResult {
	if c.model == nil {
		return model.DegradedStance(input.Relevance)
	}

	premise := BuildInput(input.Title, input.Snippet, c.opts.MaxInputChars)

	var cacheKey string
	if c.opts.Cache != nil {
		cacheKey = cache.Key("stance", c.model.Name(), claimText, premise)
		if raw, found := c.opts.Cache.Get(cacheKey); found {
			var scores nli.StanceScores
			if err := json.Unmarshal(raw, &scores); err == nil {
				return c.toResult(scores, input.Relevance)
			}
		}
	}

	itemCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	scores, err := c.callModel(itemCtx, premise, claimText)
	if err != nil {
		if c.opts.Verbose {
			fmt.Fprintf(os.Stderr, "stance classifier degraded for %q: %v\n", input.Title, err)
		}
		return model.DegradedStance(input.Relevance)
	}

	if cacheKey != "" {
		if raw, err := json.Marshal(scores); err == nil {
			_ = c.opts.Cache.Set(cacheKey, raw, 0)
		}
	}

	return c.toResult(scores, input.Relevance)
}

func (c *Classifier) callModel(ctx context.Context, premise, hypothesis string) (nli.StanceScores, error) {
	if c.model == nil {
		return nli.StanceScores{}, fmt.Errorf("no stance model configured")
	}

	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.Wait(ctx, c.model.Name()); err != nil {
			return nli.StanceScores{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var scores nli.StanceScores
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var callErr error
		scores, callErr = c.model.ClassifyStance(ctx, premise, hypothesis)
		if callErr != nil {
			return retry.RetryableError(callErr)
		}
		return nil
	})
	return scores, err
}

func (c *Classifier) toResult(scores nli.StanceScores, relevance float64) model.StanceResult {
	return model.StanceResult{
		Entailment:    scores.Entailment,
		Contradiction: scores.Contradiction,
		Neutral:       scores.Neutral,
		Relevance:     relevance,
	}
}

// BuildInput joins evidence title and snippet (title first) and truncates
// to the model's input bound. Truncation is rune-safe and backs up to a
// sentence or word boundary so a keyword is never stripped of its
// qualifying phrase ("rumored rendering is fake" must not become "fake").
func BuildInput(title, snippet string, maxChars int) string {
	title = strings.TrimSpace(title)
	snippet = strings.TrimSpace(snippet)

	var joined string
	switch {
	case title == "":
		joined = snippet
	case snippet == "":
		joined = title
	default:
		joined = title + ". " + snippet
	}

	return truncateAtBoundary(joined, maxChars)
}

func truncateAtBoundary(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	cut := runes[:maxChars]

	// Prefer a sentence boundary in the tail quarter of the bound.
	for i := len(cut) - 1; i >= maxChars*3/4; i-- {
		switch cut[i] {
		case '.', '!', '?', ';':
			return strings.TrimSpace(string(cut[:i+1]))
		}
	}

	// Otherwise back up to the last whitespace so no word is split.
	for i := len(cut) - 1; i > 0; i-- {
		if cut[i] == ' ' || cut[i] == '\n' || cut[i] == '\t' {
			return strings.TrimSpace(string(cut[:i]))
		}
	}

	return strings.TrimSpace(string(cut))
}
