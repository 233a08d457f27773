package util

import (
	"net/http"
	"net/url"
	"testing"
)

func request(t *testing.T, rawURL string) *http.Request {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse %s: %v", rawURL, err)
	}
	return &http.Request{URL: u}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:3128", "http://sproxy:3128", "internal.example, localhost")

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"http uses http proxy", "http://api.example.com/x", "http://proxy:3128"},
		{"https uses https proxy", "https://api.example.com/x", "http://sproxy:3128"},
		{"no-proxy exact match bypasses", "https://localhost/x", ""},
		{"no-proxy subdomain bypasses", "https://svc.internal.example/x", ""},
		{"no-proxy suffix must be a label boundary", "https://notinternal.example/x", "http://sproxy:3128"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := proxy(request(t, tt.url))
			if err != nil {
				t.Fatalf("proxy func: %v", err)
			}
			if tt.want == "" {
				if got != nil {
					t.Errorf("proxy = %v, want direct", got)
				}
				return
			}
			if got == nil || got.String() != tt.want {
				t.Errorf("proxy = %v, want %s", got, tt.want)
			}
		})
	}
}
