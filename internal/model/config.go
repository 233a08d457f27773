package model

import (
	"fmt"
	"time"
)

// TierConfig describes one named credibility tier
type TierConfig struct {
	Credibility float64  `json:"credibility" yaml:"credibility"`
	Domains     []string `json:"domains" yaml:"domains"` // exact or wildcard ("*.edu") patterns
	RiskFlags   []string `json:"risk_flags,omitempty" yaml:"risk_flags,omitempty"`
	AutoExclude bool     `json:"auto_exclude,omitempty" yaml:"auto_exclude,omitempty"`
}

// TierTable is the versioned credibility tier configuration, loaded once at
// process start and treated as immutable for the process lifetime.
type TierTable struct {
	Version string                `json:"version" yaml:"version"`
	Order   []string              `json:"order" yaml:"order"` // strict priority, first match wins
	Tiers   map[string]TierConfig `json:"tiers" yaml:"tiers"`
}

// Well-known tier names referenced by the engine itself
const (
	TierGeneral   = "general"
	TierFactCheck = "fact_check"
	TierNewsTier1 = "news_tier1"
)

// Thresholds holds the tunable decision constants shared by all components
type Thresholds struct {
	Relevance              float64 `json:"relevance" yaml:"relevance"`
	MinSourcesForVerdict   int     `json:"min_sources_for_verdict" yaml:"min_sources_for_verdict"`
	MinCredibility         float64 `json:"min_credibility" yaml:"min_credibility"`
	MinConsensusStrength   float64 `json:"min_consensus_strength" yaml:"min_consensus_strength"`
	HighCredibility        float64 `json:"high_credibility" yaml:"high_credibility"`
	NeutralConsensusFactor float64 `json:"neutral_consensus_factor" yaml:"neutral_consensus_factor"`
	PrimarySourceBoost     float64 `json:"primary_source_boost" yaml:"primary_source_boost"`
	ApproxTolerance        float64 `json:"approx_tolerance" yaml:"approx_tolerance"` // ±15% for "roughly", "about"
	ExactTolerance         float64 `json:"exact_tolerance" yaml:"exact_tolerance"`   // near-exact band for "exactly"
}

// NLIConfig configures the external stance/similarity model provider
type NLIConfig struct {
	Provider       string `json:"provider" yaml:"provider"` // openai, ollama, ""
	Model          string `json:"model" yaml:"model"`
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`
	APIKey         string `json:"-" yaml:"-"`
	BaseURL        string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Timeout        int    `json:"timeout" yaml:"timeout"` // seconds, per request

	// MaxInputChars bounds classifier input (title + snippet joined)
	MaxInputChars int `json:"max_input_chars" yaml:"max_input_chars"`

	// Model endpoint rate limiting
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst"`
}

// ConcurrencyConfig bounds the parallelism of a verification run
type ConcurrencyConfig struct {
	ClaimWorkers    int           `json:"claim_workers" yaml:"claim_workers"`
	ClassifyWorkers int           `json:"classify_workers" yaml:"classify_workers"`
	ClassifyTimeout time.Duration `json:"classify_timeout" yaml:"classify_timeout"` // per evidence item
}

// CacheConfig configures the read-through caches
type CacheConfig struct {
	Enabled   bool          `json:"enabled" yaml:"enabled"`
	Dir       string        `json:"dir,omitempty" yaml:"dir,omitempty"`
	MemoryTTL time.Duration `json:"memory_ttl" yaml:"memory_ttl"`
	DiskTTL   time.Duration `json:"disk_ttl" yaml:"disk_ttl"`
}

// ValidateConfig configures the optional evidence-link prober
type ValidateConfig struct {
	Enabled   bool          `json:"enabled" yaml:"enabled"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
	Workers   int           `json:"workers" yaml:"workers"`
	UserAgent string        `json:"user_agent" yaml:"user_agent"`
}

// ProxyConfig holds outbound proxy settings
type ProxyConfig struct {
	HTTPProxy  string `json:"http_proxy,omitempty" yaml:"http_proxy,omitempty"`
	HTTPSProxy string `json:"https_proxy,omitempty" yaml:"https_proxy,omitempty"`
	NoProxy    string `json:"no_proxy,omitempty" yaml:"no_proxy,omitempty"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `json:"verbose" yaml:"verbose"`
	IncludeFooter bool `json:"include_footer" yaml:"include_footer"`
}

// Config is the single shared, read-only configuration for the engine.
// Loaded once at startup; passed by pointer into each pipeline call.
type Config struct {
	TierTable   TierTable         `json:"tier_table" yaml:"tier_table"`
	Thresholds  Thresholds        `json:"thresholds" yaml:"thresholds"`
	NLI         NLIConfig         `json:"nli" yaml:"nli"`
	Concurrency ConcurrencyConfig `json:"concurrency" yaml:"concurrency"`
	Cache       CacheConfig       `json:"cache" yaml:"cache"`
	Validation  ValidateConfig    `json:"validation" yaml:"validation"`
	Proxy       ProxyConfig       `json:"proxy" yaml:"proxy"`
	Output      OutputConfig      `json:"output" yaml:"output"`
}

// DefaultTierTable returns the built-in credibility tier table
func DefaultTierTable() TierTable {
	return TierTable{
		Version: "v1",
		Order: []string{
			"satire", "blacklist", "state_media", "academic", "scientific",
			"government", "news_tier1", "fact_check", "news_tier2",
			"reference", "general",
		},
		Tiers: map[string]TierConfig{
			"satire": {
				Credibility: 0.0,
				Domains:     []string{"theonion.com", "babylonbee.com", "clickhole.com", "newsthump.com", "thedailymash.co.uk"},
				RiskFlags:   []string{"satire"},
				AutoExclude: true,
			},
			"blacklist": {
				Credibility: 0.0,
				Domains:     []string{},
				RiskFlags:   []string{"blacklisted"},
				AutoExclude: true,
			},
			"state_media": {
				Credibility: 0.3,
				Domains:     []string{"rt.com", "sputniknews.com", "presstv.ir", "cgtn.com", "globaltimes.cn"},
				RiskFlags:   []string{"state_controlled"},
			},
			"academic": {
				Credibility: 0.9,
				Domains:     []string{"*.edu", "*.ac.uk", "arxiv.org", "doi.org", "jstor.org", "scholar.google.com", "pubmed.ncbi.nlm.nih.gov", "semanticscholar.org"},
			},
			"scientific": {
				Credibility: 0.9,
				Domains:     []string{"nature.com", "science.org", "sciencedirect.com", "springer.com", "thelancet.com", "nejm.org", "cell.com", "pnas.org"},
			},
			"government": {
				Credibility: 0.85,
				Domains:     []string{"*.gov", "*.gov.uk", "*.europa.eu", "*.mil", "who.int", "un.org", "oecd.org", "imf.org", "worldbank.org"},
			},
			"news_tier1": {
				Credibility: 0.8,
				Domains:     []string{"reuters.com", "apnews.com", "bbc.com", "bbc.co.uk", "nytimes.com", "wsj.com", "theguardian.com", "ft.com", "economist.com", "bloomberg.com"},
			},
			// Fact-check articles are meta-analysis about some claim, not
			// first-hand evidence. Their ceiling must stay strictly below
			// tier-1 primary news so a single meta-claim cannot outweigh
			// multiple corroborating primary sources. Enforced by Validate.
			"fact_check": {
				Credibility: 0.7,
				Domains:     []string{"snopes.com", "politifact.com", "factcheck.org", "fullfact.org", "leadstories.com", "checkyourfact.com"},
				RiskFlags:   []string{"meta_commentary"},
			},
			"news_tier2": {
				Credibility: 0.65,
				Domains:     []string{"cnn.com", "nbcnews.com", "cbsnews.com", "abcnews.go.com", "usatoday.com", "forbes.com", "businessinsider.com", "axios.com"},
			},
			"reference": {
				Credibility: 0.65,
				Domains:     []string{"wikipedia.org", "britannica.com", "merriam-webster.com"},
			},
			"general": {
				Credibility: 0.6,
				Domains:     []string{}, // catch-all, never matched by pattern
			},
		},
	}
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		TierTable: DefaultTierTable(),
		Thresholds: Thresholds{
			Relevance:              0.65,
			MinSourcesForVerdict:   3,
			MinCredibility:         0.75,
			MinConsensusStrength:   0.65,
			HighCredibility:        0.75,
			NeutralConsensusFactor: 0.4,
			PrimarySourceBoost:     0.25,
			ApproxTolerance:        0.15,
			ExactTolerance:         0.02,
		},
		NLI: NLIConfig{
			Provider:          "",
			Model:             "",
			EmbeddingModel:    "",
			Timeout:           30,
			MaxInputChars:     1600,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Concurrency: ConcurrencyConfig{
			ClaimWorkers:    4,
			ClassifyWorkers: 8,
			ClassifyTimeout: 20 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		Validation: ValidateConfig{
			Enabled:   false,
			Timeout:   10 * time.Second,
			Workers:   20,
			UserAgent: "Veridex/0.1 (+https://github.com/veridex/veridex)",
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}

// Validate checks the configuration for structural errors. A malformed
// configuration is fatal at process startup; the engine must not start
// with one.
func (c *Config) Validate() error {
	if err := c.TierTable.Validate(); err != nil {
		return fmt.Errorf("tier table: %w", err)
	}

	t := c.Thresholds
	for _, check := range []struct {
		name  string
		value float64
	}{
		{"relevance", t.Relevance},
		{"min_credibility", t.MinCredibility},
		{"min_consensus_strength", t.MinConsensusStrength},
		{"high_credibility", t.HighCredibility},
		{"neutral_consensus_factor", t.NeutralConsensusFactor},
		{"approx_tolerance", t.ApproxTolerance},
		{"exact_tolerance", t.ExactTolerance},
	} {
		if check.value < 0 || check.value > 1 {
			return fmt.Errorf("threshold %s must be in [0,1], got %v", check.name, check.value)
		}
	}
	if t.MinSourcesForVerdict < 1 {
		return fmt.Errorf("min_sources_for_verdict must be >= 1, got %d", t.MinSourcesForVerdict)
	}
	if t.PrimarySourceBoost < 0 || t.PrimarySourceBoost > 1 {
		return fmt.Errorf("primary_source_boost must be in [0,1], got %v", t.PrimarySourceBoost)
	}
	return nil
}

// Validate checks the tier table for structural errors
func (tt *TierTable) Validate() error {
	if len(tt.Order) == 0 {
		return fmt.Errorf("empty tier priority order")
	}
	for _, name := range tt.Order {
		if _, ok := tt.Tiers[name]; !ok {
			return fmt.Errorf("tier %q listed in order but not defined", name)
		}
	}
	general, ok := tt.Tiers[TierGeneral]
	if !ok {
		return fmt.Errorf("missing required %q fallback tier", TierGeneral)
	}
	if general.AutoExclude {
		return fmt.Errorf("%q tier must not be auto-exclude", TierGeneral)
	}
	for name, tier := range tt.Tiers {
		if tier.Credibility < 0 || tier.Credibility > 1 {
			return fmt.Errorf("tier %q credibility must be in [0,1], got %v", name, tier.Credibility)
		}
	}
	// Meta-commentary ordering: fact-check ceiling strictly below tier-1
	// primary news, so meta-claims cannot outweigh primary sources.
	fc, hasFC := tt.Tiers[TierFactCheck]
	t1, hasT1 := tt.Tiers[TierNewsTier1]
	if hasFC && hasT1 && fc.Credibility >= t1.Credibility {
		return fmt.Errorf("%s credibility (%v) must be strictly below %s credibility (%v)",
			TierFactCheck, fc.Credibility, TierNewsTier1, t1.Credibility)
	}
	return nil
}
