package providers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gregjones/httpcache"
)

// DefaultHTTPTimeout bounds every upstream request made by a provider client.
const DefaultHTTPTimeout = 10 * time.Second

// NewCachedHTTPClient returns a client caching responses in memory for ttl,
// regardless of the origin's cache headers, plus the cache for invalidation.
func NewCachedHTTPClient(ttl time.Duration, base http.RoundTripper) (*http.Client, httpcache.Cache) {
	if base == nil {
		base = http.DefaultTransport
	}
	cache := httpcache.NewMemoryCache()
	hc := httpcache.NewTransport(cache)
	hc.Transport = &headerOverrideTransport{
		wrapped: base,
		response: func(resp *http.Response) {
			resp.Header.Del("Pragma")
			resp.Header.Del("Expires")
			resp.Header.Del("Cache-Control")
			resp.Header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(ttl/time.Second)))
		},
	}
	return &http.Client{Transport: hc, Timeout: DefaultHTTPTimeout}, cache
}

// headerOverrideTransport rewrites successful responses before they reach the cache.
type headerOverrideTransport struct {
	wrapped  http.RoundTripper
	response func(resp *http.Response)
}

func (t *headerOverrideTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.wrapped.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if t.response != nil && resp.StatusCode == http.StatusOK {
		t.response(resp)
	}
	return resp, nil
}

// ParseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func ParseRetryAfter(raw string, now time.Time) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
