package cricapi

import (
	"net/http"
	"testing"
	"time"
)

func TestNormalizeBaseURLTrimsTrailingSlashAndDefaults(t *testing.T) {
	if got := normalizeBaseURL("https://example.com/v1/"); got != "https://example.com/v1" {
		t.Fatalf("expected trailing slash trimmed, got %s", got)
	}
	if got := normalizeBaseURL(""); got != defaultBaseURL {
		t.Fatalf("expected default base url, got %s", got)
	}
}

func TestResolveHTTPClientDefaultsTimeout(t *testing.T) {
	c, ok := resolveHTTPClient(nil).(*http.Client)
	if !ok {
		t.Fatalf("expected *http.Client")
	}
	if c.Timeout != defaultHTTPTimeout {
		t.Fatalf("expected default timeout %s, got %s", defaultHTTPTimeout, c.Timeout)
	}
}

func TestResolveHTTPClientUsesProvidedClient(t *testing.T) {
	custom := &http.Client{Timeout: time.Second}
	if got := resolveHTTPClient(custom); got != custom {
		t.Fatalf("expected provided client to be used")
	}
}
