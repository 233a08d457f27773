package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/veridex/veridex/internal/model"
)

func newTestProber(t *testing.T) *Prober {
	t.Helper()
	return NewProber(model.ValidateConfig{
		Enabled:   true,
		Timeout:   2 * time.Second,
		Workers:   4,
		UserAgent: "veridex-test",
	}, model.ProxyConfig{})
}

func TestLinkStatusRiskFlags(t *testing.T) {
	tests := []struct {
		name   string
		status LinkStatus
		want   []string
	}{
		{"healthy", LinkStatus{Accessible: true}, nil},
		{"dead", LinkStatus{Dead: true}, []string{"dead_link"}},
		{"stale", LinkStatus{Accessible: true, Stale: true}, []string{"stale_source"}},
		{"very stale wins", LinkStatus{Accessible: true, Stale: true, VeryStale: true}, []string{"very_stale_source"}},
		{"dead and very stale", LinkStatus{Dead: true, VeryStale: true}, []string{"dead_link", "very_stale_source"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.status.RiskFlags()
			if len(got) != len(tt.want) {
				t.Fatalf("flags = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("flags[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestProbe(t *testing.T) {
	oldDate := time.Now().AddDate(-2, 0, 0).UTC().Format(time.RFC1123)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			w.WriteHeader(http.StatusNotFound)
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/gone":
			w.WriteHeader(http.StatusGone)
		case "/stale":
			w.Header().Set("Last-Modified", oldDate)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	p := newTestProber(t)
	urls := []string{
		server.URL + "/ok",
		server.URL + "/gone",
		server.URL + "/stale",
		server.URL + "/missing",
	}

	results := p.Probe(context.Background(), urls)
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}

	if !results[0].Accessible || results[0].Dead {
		t.Errorf("/ok = %+v, want accessible", results[0])
	}
	if !results[1].Dead {
		t.Errorf("/gone = %+v, want dead", results[1])
	}
	if !results[2].Stale || results[2].VeryStale {
		t.Errorf("/stale = %+v, want stale but not very stale", results[2])
	}
	if results[2].AgeDays == nil || *results[2].AgeDays < 365 {
		t.Errorf("/stale age = %v, want > 365 days", results[2].AgeDays)
	}
	if !results[3].Dead {
		t.Errorf("/missing = %+v, want dead", results[3])
	}
}

func TestProbeRespectsRobots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := newTestProber(t)
	results := p.Probe(context.Background(), []string{
		server.URL + "/private/page",
		server.URL + "/public/page",
	})

	if !results[0].Skipped {
		t.Errorf("disallowed path = %+v, want skipped", results[0])
	}
	if results[1].Skipped || !results[1].Accessible {
		t.Errorf("allowed path = %+v, want probed and accessible", results[1])
	}
}

func TestProbeUnreachableHostIsDead(t *testing.T) {
	// Grab a port that refuses connections by closing the server first.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL + "/x"
	server.Close()

	p := newTestProber(t)
	results := p.Probe(context.Background(), []string{deadURL})
	if !results[0].Dead {
		t.Errorf("unreachable host = %+v, want dead", results[0])
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name   string
		status LinkStatus
		want   bool
	}{
		{"server error", LinkStatus{StatusCode: 503}, true},
		{"rate limited", LinkStatus{StatusCode: 429}, true},
		{"timeout error", LinkStatus{Error: "request failed: context deadline exceeded (Client.Timeout)"}, true},
		{"connection refused", LinkStatus{Error: "request failed: dial tcp: connection refused"}, true},
		{"not found", LinkStatus{StatusCode: 404}, false},
		{"ok", LinkStatus{StatusCode: 200}, false},
		{"hard dns error", LinkStatus{Error: "no such host"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransient(tt.status); got != tt.want {
				t.Errorf("isTransient(%+v) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}
