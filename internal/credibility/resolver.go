// Package credibility maps evidence sources to credibility scores, named
// tiers, and risk flags using a process-lifetime tier table.
package credibility

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/veridex/veridex/internal/cache"
	"github.com/veridex/veridex/internal/model"
)

// compiledTier holds one tier's patterns split for fast matching
type compiledTier struct {
	name     string
	config   model.TierConfig
	exact    map[string]bool
	suffixes []string // ".edu" style, from wildcard and bare-domain patterns
}

// Resolver resolves a source domain to a CredibilityAssessment. It is a
// pure lookup against an immutable table; it never returns an error.
type Resolver struct {
	tiers   []compiledTier // strict priority order, first match wins
	general model.TierConfig
	boost   float64
	version string
	cache   cache.Cache // optional read-through tier cache
}

// NewResolver compiles the tier table. The table must already be validated;
// NewResolver validates again so a Resolver can never exist over a
// malformed table.
func NewResolver(table model.TierTable, boost float64, c cache.Cache) (*Resolver, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	r := &Resolver{
		general: table.Tiers[model.TierGeneral],
		boost:   boost,
		version: table.Version,
		cache:   c,
	}

	for _, name := range table.Order {
		if name == model.TierGeneral {
			continue // fallback, never pattern-matched
		}
		tier := table.Tiers[name]
		ct := compiledTier{
			name:   name,
			config: tier,
			exact:  make(map[string]bool, len(tier.Domains)),
		}
		for _, pattern := range tier.Domains {
			pattern = strings.ToLower(strings.TrimSpace(pattern))
			if pattern == "" {
				continue
			}
			if rest, ok := strings.CutPrefix(pattern, "*."); ok {
				ct.suffixes = append(ct.suffixes, "."+rest)
				continue
			}
			// Bare domains match exactly and as a parent of subdomains,
			// so "gov.uk" covers "ons.gov.uk".
			ct.exact[pattern] = true
			ct.suffixes = append(ct.suffixes, "."+pattern)
		}
		r.tiers = append(r.tiers, ct)
	}

	return r, nil
}

// Resolve classifies a source by domain and URL. A malformed URL or unknown
// domain resolves to the general tier; this function never fails.
func (r *Resolver) Resolve(domain, rawURL string) model.CredibilityAssessment {
	host := NormalizeDomain(domain)
	if host == "" {
		host = NormalizeDomain(rawURL)
	}

	name, tier := r.lookupTier(host)
	assessment := model.CredibilityAssessment{
		Tier:        name,
		Credibility: tier.Credibility,
		RiskFlags:   append([]string(nil), tier.RiskFlags...),
		AutoExclude: tier.AutoExclude,
	}

	if r.isPrimarySource(rawURL, "", "") {
		applyBoost(&assessment, r.boost)
	}

	return assessment
}

// ResolveItem classifies one evidence item, additionally inspecting its
// title and snippet for primary-source indicators. The boost and the tier
// lookup are independent and composable.
func (r *Resolver) ResolveItem(item model.EvidenceItem) model.CredibilityAssessment {
	host := NormalizeDomain(item.URL)
	if host == "" {
		host = NormalizeDomain(item.SourceName)
	}

	name, tier := r.lookupTier(host)
	assessment := model.CredibilityAssessment{
		Tier:        name,
		Credibility: tier.Credibility,
		RiskFlags:   append([]string(nil), tier.RiskFlags...),
		AutoExclude: tier.AutoExclude,
	}

	if r.isPrimarySource(item.URL, item.Title, item.Text) {
		applyBoost(&assessment, r.boost)
	}

	return assessment
}

func applyBoost(a *model.CredibilityAssessment, boost float64) {
	a.IsPrimarySource = true
	a.Credibility += boost
	if a.Credibility > 1.0 {
		a.Credibility = 1.0
	}
}

// lookupTier finds the first tier whose patterns match the host, consulting
// the read-through cache when one is configured. Ties are impossible: tiers
// are checked in a strict priority list.
func (r *Resolver) lookupTier(host string) (string, model.TierConfig) {
	if host == "" {
		return model.TierGeneral, r.general
	}

	cacheKey := ""
	if r.cache != nil {
		cacheKey = cache.Key("tier", r.version, host)
		if val, found := r.cache.Get(cacheKey); found {
			name := string(val)
			if name == model.TierGeneral {
				return name, r.general
			}
			for _, ct := range r.tiers {
				if ct.name == name {
					return name, ct.config
				}
			}
		}
	}

	name, tier := r.matchTier(host)
	if r.cache != nil {
		_ = r.cache.Set(cacheKey, []byte(name), 0)
	}
	return name, tier
}

func (r *Resolver) matchTier(host string) (string, model.TierConfig) {
	for _, ct := range r.tiers {
		if ct.exact[host] {
			return ct.name, ct.config
		}
		for _, suffix := range ct.suffixes {
			if strings.HasSuffix(host, suffix) {
				return ct.name, ct.config
			}
		}
	}
	return model.TierGeneral, r.general
}

// NormalizeDomain reduces a domain or URL to a bare lowercase host: scheme,
// "www." prefix, port, path, and credentials are stripped. Malformed input
// yields "" and is treated as unmatched by the caller.
func NormalizeDomain(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ""
	}

	if strings.Contains(raw, "://") {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Host == "" {
			return ""
		}
		raw = parsed.Host
	} else {
		// Bare "host/path" or "host:port" forms
		if idx := strings.IndexAny(raw, "/?#"); idx >= 0 {
			raw = raw[:idx]
		}
	}

	if at := strings.LastIndex(raw, "@"); at >= 0 {
		raw = raw[at+1:]
	}
	if idx := strings.Index(raw, ":"); idx >= 0 {
		raw = raw[:idx]
	}
	raw = strings.TrimPrefix(raw, "www.")
	raw = strings.TrimSuffix(raw, ".")

	if raw == "" || strings.ContainsAny(raw, " \t") {
		return ""
	}
	return raw
}

// Primary-source indicators: original research, government statistical
// releases, official documents.
var (
	doiPattern        = regexp.MustCompile(`\b10\.\d{4,9}/[-._;()/:a-zA-Z0-9]+`)
	govStatsPath      = regexp.MustCompile(`(?i)/(statistics|stats|data|datasets|releases?|publications?)(/|$)`)
	peerReviewPattern = regexp.MustCompile(`(?i)\b(peer[- ]reviewed|randomi[sz]ed controlled trial|systematic review|meta-analysis|official (report|statistics)|court filing)\b`)
)

func (r *Resolver) isPrimarySource(rawURL, title, snippet string) bool {
	if doiPattern.MatchString(rawURL) || doiPattern.MatchString(title) || doiPattern.MatchString(snippet) {
		return true
	}

	if parsed, err := url.Parse(rawURL); err == nil {
		host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
		isGov := strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".gov.uk") || strings.HasSuffix(host, ".mil")
		if isGov && govStatsPath.MatchString(parsed.Path) {
			return true
		}
	}

	return peerReviewPattern.MatchString(title) || peerReviewPattern.MatchString(snippet)
}
