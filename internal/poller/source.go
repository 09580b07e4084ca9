package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/feed"
)

const (
	defaultHTTPTimeout = 15 * time.Second
	maxArtifactBytes   = 8 << 20
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

func resolveHTTPClient(client *http.Client) httpDoer {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// HTTPSource fetches artifacts over HTTP, bypassing intermediary caches with a
// cache-busting query parameter.
type HTTPSource struct {
	url        string
	httpClient httpDoer
	now        func() time.Time
}

// NewHTTPSource builds a source for the artifact at rawURL.
func NewHTTPSource(rawURL string, client *http.Client) *HTTPSource {
	return &HTTPSource{
		url:        strings.TrimSpace(rawURL),
		httpClient: resolveHTTPClient(client),
		now:        time.Now,
	}
}

// FetchFeed downloads and parses the feed artifact.
func (s *HTTPSource) FetchFeed(ctx context.Context) (feed.Document, error) {
	body, err := s.get(ctx)
	if err != nil {
		return feed.Document{}, err
	}
	return feed.Parse(body)
}

// FetchScores downloads and decodes the score artifact.
func (s *HTTPSource) FetchScores(ctx context.Context) (matches.ScoreArtifact, error) {
	body, err := s.get(ctx)
	if err != nil {
		return matches.ScoreArtifact{}, err
	}
	var artifact matches.ScoreArtifact
	if err := json.Unmarshal(body, &artifact); err != nil {
		return matches.ScoreArtifact{}, fmt.Errorf("decode score artifact: %w", err)
	}
	return artifact, nil
}

func (s *HTTPSource) get(ctx context.Context) ([]byte, error) {
	target, err := s.bustedURL()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: unexpected status %d: %s", s.url, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes))
}

func (s *HTTPSource) bustedURL() (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", fmt.Errorf("invalid artifact url %q: %w", s.url, err)
	}
	q := u.Query()
	q.Set("_", strconv.FormatInt(s.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
