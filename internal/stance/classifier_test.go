package stance

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/veridex/veridex/internal/cache"
	"github.com/veridex/veridex/internal/nli"
)

// fakeStanceModel implements nli.StanceModel
type fakeStanceModel struct {
	scores nli.StanceScores
	err    error
	delay  time.Duration
	calls  atomic.Int64
}

func (f *fakeStanceModel) Name() string { return "fake-model" }

func (f *fakeStanceModel) ClassifyStance(ctx context.Context, premise, hypothesis string) (nli.StanceScores, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nli.StanceScores{}, ctx.Err()
		}
	}
	if f.err != nil {
		return nli.StanceScores{}, f.err
	}
	return f.scores, nil
}

func TestClassifyBatchPositionalResults(t *testing.T) {
	fake := &fakeStanceModel{scores: nli.StanceScores{Entailment: 0.8, Contradiction: 0.1, Neutral: 0.1}}
	c := NewClassifier(fake, Options{Workers: 4})

	inputs := []Input{
		{Title: "a", Snippet: "evidence a", Relevance: 0.9, Classify: true},
		{Title: "b", Snippet: "evidence b", Relevance: 0.3, Classify: false},
		{Title: "c", Snippet: "evidence c", Relevance: 0.8, Classify: true},
	}

	results := c.ClassifyBatch(context.Background(), "claim", inputs)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].Entailment != 0.8 || results[0].Relevance != 0.9 {
		t.Errorf("result 0 = %+v, want classified with relevance 0.9", results[0])
	}
	if !results[1].Gated {
		t.Error("gated-out input must yield a gated stance")
	}
	if results[1].Neutral != 0.90 {
		t.Errorf("gated neutral = %v, want 0.90", results[1].Neutral)
	}
	if results[2].Entailment != 0.8 {
		t.Errorf("result 2 entailment = %v, want 0.8", results[2].Entailment)
	}
}

func TestClassifyBatchGatedItemsSkipModel(t *testing.T) {
	fake := &fakeStanceModel{scores: nli.StanceScores{Neutral: 1}}
	c := NewClassifier(fake, Options{})

	inputs := []Input{
		{Snippet: "off topic", Relevance: 0.2, Classify: false},
		{Snippet: "also off topic", Relevance: 0.1, Classify: false},
	}
	c.ClassifyBatch(context.Background(), "claim", inputs)

	if n := fake.calls.Load(); n != 0 {
		t.Errorf("model called %d times for gated-out inputs, want 0", n)
	}
}

func TestClassifyTimeoutDegrades(t *testing.T) {
	fake := &fakeStanceModel{
		scores: nli.StanceScores{Entailment: 1},
		delay:  200 * time.Millisecond,
	}
	c := NewClassifier(fake, Options{Timeout: 20 * time.Millisecond})

	results := c.ClassifyBatch(context.Background(), "claim", []Input{
		{Snippet: "slow evidence", Relevance: 0.9, Classify: true},
	})

	got := results[0]
	if !got.Degraded {
		t.Fatal("timed-out item must degrade, not block or fail")
	}
	if got.Entailment != 0.33 || got.Contradiction != 0.33 || got.Neutral != 0.34 {
		t.Errorf("degraded distribution = %v/%v/%v, want 0.33/0.33/0.34",
			got.Entailment, got.Contradiction, got.Neutral)
	}
	if got.Relevance != 0.9 {
		t.Errorf("degraded result must keep relevance, got %v", got.Relevance)
	}
}

func TestClassifyErrorDegradesAfterRetries(t *testing.T) {
	fake := &fakeStanceModel{err: errors.New("backend down")}
	c := NewClassifier(fake, Options{Timeout: 10 * time.Second})

	results := c.ClassifyBatch(context.Background(), "claim", []Input{
		{Snippet: "evidence", Relevance: 0.7, Classify: true},
	})

	if !results[0].Degraded {
		t.Error("persistent model failure must yield the degraded fallback")
	}
	if n := fake.calls.Load(); n != maxRetries+1 {
		t.Errorf("model called %d times, want %d (initial + retries)", n, maxRetries+1)
	}
}

func TestClassifyNilModelDegrades(t *testing.T) {
	c := NewClassifier(nil, Options{})

	results := c.ClassifyBatch(context.Background(), "claim", []Input{
		{Snippet: "evidence", Relevance: 0.5, Classify: true},
	})
	if !results[0].Degraded {
		t.Error("nil model must degrade, not panic")
	}
}

func TestClassifyCacheHitSkipsModel(t *testing.T) {
	fake := &fakeStanceModel{scores: nli.StanceScores{Entailment: 0.7, Contradiction: 0.1, Neutral: 0.2}}
	store := cache.NewMemory(time.Minute)
	c := NewClassifier(fake, Options{Cache: store})

	input := Input{Title: "t", Snippet: "evidence", Relevance: 0.9, Classify: true}

	first := c.ClassifyBatch(context.Background(), "claim", []Input{input})
	second := c.ClassifyBatch(context.Background(), "claim", []Input{input})

	if n := fake.calls.Load(); n != 1 {
		t.Errorf("model called %d times, want 1 (second call cached)", n)
	}
	if first[0].Entailment != second[0].Entailment {
		t.Errorf("cached result differs: %v vs %v", first[0], second[0])
	}
}

func TestBuildInputJoinsTitleFirst(t *testing.T) {
	got := BuildInput("Title here", "Snippet here", 100)
	want := "Title here. Snippet here"
	if got != want {
		t.Errorf("BuildInput = %q, want %q", got, want)
	}

	if got := BuildInput("", "only snippet", 100); got != "only snippet" {
		t.Errorf("BuildInput = %q, want snippet only", got)
	}
	if got := BuildInput("only title", "", 100); got != "only title" {
		t.Errorf("BuildInput = %q, want title only", got)
	}
}

func TestTruncateAtBoundary(t *testing.T) {
	t.Run("under limit unchanged", func(t *testing.T) {
		if got := truncateAtBoundary("short text", 100); got != "short text" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("prefers sentence boundary", func(t *testing.T) {
		text := "First sentence ends here. The rumored rendering is fake and more words follow"
		got := truncateAtBoundary(text, 40)
		if !strings.HasSuffix(got, ".") {
			t.Errorf("expected sentence-boundary cut, got %q", got)
		}
	})

	t.Run("never splits a word", func(t *testing.T) {
		text := strings.Repeat("word ", 100)
		got := truncateAtBoundary(text, 52)
		for _, w := range strings.Fields(got) {
			if w != "word" {
				t.Errorf("split word %q in output", w)
			}
		}
	})

	t.Run("rune safe", func(t *testing.T) {
		text := strings.Repeat("日本語テキスト ", 50)
		got := truncateAtBoundary(text, 30)
		for _, r := range got {
			if r == '�' {
				t.Fatal("truncation produced an invalid rune")
			}
		}
		if len([]rune(got)) > 30 {
			t.Errorf("truncated to %d runes, want <= 30", len([]rune(got)))
		}
	})
}
