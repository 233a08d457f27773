// Package validate probes evidence URLs for liveness and staleness. It is
// an optional enrichment: probe outcomes become credibility risk flags,
// never verdict inputs on their own, and it retrieves no content.
package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/veridex/veridex/internal/model"
	"github.com/veridex/veridex/internal/util"
)

// LinkStatus is the probe outcome for one evidence URL
type LinkStatus struct {
	URL          string     `json:"url"`
	Accessible   bool       `json:"accessible"`
	StatusCode   int        `json:"status_code,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	AgeDays      *int       `json:"age_days,omitempty"`
	Stale        bool       `json:"stale"`      // > 1 year old
	VeryStale    bool       `json:"very_stale"` // > 3 years old
	Dead         bool       `json:"dead"`       // 404, 410, or unreachable
	Skipped      bool       `json:"skipped"`    // robots.txt disallowed
	Error        string     `json:"error,omitempty"`
}

// RiskFlags converts a probe outcome into credibility risk flags
func (s LinkStatus) RiskFlags() []string {
	var flags []string
	if s.Dead {
		flags = append(flags, "dead_link")
	}
	if s.VeryStale {
		flags = append(flags, "very_stale_source")
	} else if s.Stale {
		flags = append(flags, "stale_source")
	}
	return flags
}

// Prober checks evidence links concurrently with HEAD requests
type Prober struct {
	httpClient *http.Client
	workers    int
	robots     *robotsChecker
	userAgent  string
}

// NewProber creates a link prober
func NewProber(cfg model.ValidateConfig, proxy model.ProxyConfig) *Prober {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 20
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(proxy.HTTPProxy, proxy.HTTPSProxy, proxy.NoProxy),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	return &Prober{
		httpClient: client,
		workers:    workers,
		robots:     newRobotsChecker(client, cfg.UserAgent),
		userAgent:  cfg.UserAgent,
	}
}

// Probe checks all URLs concurrently, bounded by the worker count. Results
// are positional: one LinkStatus per input URL.
func (p *Prober) Probe(ctx context.Context, urls []string) []LinkStatus {
	results := make([]LinkStatus, len(urls))
	if len(urls) == 0 {
		return results
	}

	semaphore := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = LinkStatus{URL: rawURL, Dead: true, Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = p.probeOne(ctx, rawURL)
		}(i, u)
	}

	wg.Wait()
	return results
}

func (p *Prober) probeOne(ctx context.Context, rawURL string) LinkStatus {
	if !p.robots.allowed(ctx, rawURL) {
		return LinkStatus{URL: rawURL, Skipped: true}
	}

	var status LinkStatus
	backoff := retry.WithMaxRetries(2, retry.NewExponential(time.Second))
	_ = retry.Do(ctx, backoff, func(ctx context.Context) error {
		status = p.head(ctx, rawURL)
		if isTransient(status) {
			return retry.RetryableError(fmt.Errorf("transient probe failure: %d %s", status.StatusCode, status.Error))
		}
		return nil
	})
	return status
}

func (p *Prober) head(ctx context.Context, rawURL string) LinkStatus {
	status := LinkStatus{URL: rawURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		status.Error = fmt.Sprintf("create request: %v", err)
		status.Dead = true
		return status
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		status.Error = fmt.Sprintf("request failed: %v", err)
		status.Dead = true
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	status.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		status.Accessible = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		status.Dead = true
	}

	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		if t, err := time.Parse(time.RFC1123, lastModified); err == nil {
			status.LastModified = &t
			ageDays := int(time.Since(t).Hours() / 24)
			status.AgeDays = &ageDays
			status.Stale = ageDays > 365
			status.VeryStale = ageDays > 365*3
		}
	}

	return status
}

func isTransient(status LinkStatus) bool {
	if status.StatusCode >= 500 && status.StatusCode < 600 {
		return true
	}
	if status.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if status.Error != "" {
		msg := strings.ToLower(status.Error)
		return strings.Contains(msg, "timeout") ||
			strings.Contains(msg, "connection refused") ||
			strings.Contains(msg, "connection reset")
	}
	return false
}
