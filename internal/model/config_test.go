package model

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			"threshold out of range",
			func(c *Config) { c.Thresholds.Relevance = 1.5 },
			"relevance",
		},
		{
			"negative threshold",
			func(c *Config) { c.Thresholds.MinCredibility = -0.1 },
			"min_credibility",
		},
		{
			"min sources below one",
			func(c *Config) { c.Thresholds.MinSourcesForVerdict = 0 },
			"min_sources_for_verdict",
		},
		{
			"boost out of range",
			func(c *Config) { c.Thresholds.PrimarySourceBoost = 2 },
			"primary_source_boost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestTierTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TierTable)
		wantErr string
	}{
		{
			"empty order",
			func(tt *TierTable) { tt.Order = nil },
			"priority order",
		},
		{
			"order references undefined tier",
			func(tt *TierTable) { tt.Order = append(tt.Order, "ghost") },
			"ghost",
		},
		{
			"missing general tier",
			func(tt *TierTable) {
				delete(tt.Tiers, TierGeneral)
				for i, name := range tt.Order {
					if name == TierGeneral {
						tt.Order = append(tt.Order[:i], tt.Order[i+1:]...)
						break
					}
				}
			},
			"general",
		},
		{
			"general must not auto-exclude",
			func(tt *TierTable) {
				g := tt.Tiers[TierGeneral]
				g.AutoExclude = true
				tt.Tiers[TierGeneral] = g
			},
			"auto-exclude",
		},
		{
			"credibility out of range",
			func(tt *TierTable) {
				g := tt.Tiers["academic"]
				g.Credibility = 1.2
				tt.Tiers["academic"] = g
			},
			"academic",
		},
		{
			"fact check must stay below tier1 news",
			func(tt *TierTable) {
				fc := tt.Tiers[TierFactCheck]
				fc.Credibility = 0.85
				tt.Tiers[TierFactCheck] = fc
			},
			"strictly below",
		},
		{
			"fact check equal to tier1 news rejected",
			func(tt *TierTable) {
				fc := tt.Tiers[TierFactCheck]
				fc.Credibility = tt.Tiers[TierNewsTier1].Credibility
				tt.Tiers[TierFactCheck] = fc
			},
			"strictly below",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := DefaultTierTable()
			tt.mutate(&table)
			err := table.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultFactCheckBelowTier1(t *testing.T) {
	table := DefaultTierTable()
	fc := table.Tiers[TierFactCheck].Credibility
	t1 := table.Tiers[TierNewsTier1].Credibility
	if fc >= t1 {
		t.Errorf("fact_check credibility %v must be strictly below news_tier1 %v", fc, t1)
	}
}

func TestStanceDominant(t *testing.T) {
	tests := []struct {
		name   string
		stance StanceResult
		want   Stance
	}{
		{"entailment wins", StanceResult{Entailment: 0.8, Contradiction: 0.1, Neutral: 0.1}, StanceEntailment},
		{"contradiction wins", StanceResult{Entailment: 0.1, Contradiction: 0.7, Neutral: 0.2}, StanceContradiction},
		{"neutral wins", StanceResult{Entailment: 0.2, Contradiction: 0.2, Neutral: 0.6}, StanceNeutral},
		{"entailment contradiction tie resolves neutral", StanceResult{Entailment: 0.45, Contradiction: 0.45, Neutral: 0.1}, StanceNeutral},
		{"uniform degraded resolves neutral", StanceResult{Entailment: 0.33, Contradiction: 0.33, Neutral: 0.34}, StanceNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stance.Dominant(); got != tt.want {
				t.Errorf("Dominant() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGatedStanceIsNeutralDominant(t *testing.T) {
	s := GatedStance(0.3)
	if s.Dominant() != StanceNeutral {
		t.Errorf("gated stance dominant = %q, want neutral", s.Dominant())
	}
	if !s.Gated {
		t.Error("expected Gated flag")
	}
	if s.Entailment > 0.05 || s.Contradiction > 0.05 {
		t.Errorf("gated stance must carry near-zero entailment/contradiction, got %v/%v", s.Entailment, s.Contradiction)
	}
	if s.Relevance != 0.3 {
		t.Errorf("relevance = %v, want 0.3", s.Relevance)
	}
}
