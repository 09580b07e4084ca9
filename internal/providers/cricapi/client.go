package cricapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/providers"
)

// Config controls how the CricAPI client reaches the upstream API.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	// CacheTTL enables an in-memory response cache when no HTTPClient is given.
	CacheTTL time.Duration
}

// Client fetches match and series data from CricAPI and maps them to domain models.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpDoer
	cache      httpcache.Cache
	now        func() time.Time
}

// NewClient constructs a CricAPI client with the provided configuration.
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL: normalizeBaseURL(cfg.BaseURL),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		now:     time.Now,
	}
	if cfg.HTTPClient == nil && cfg.CacheTTL > 0 {
		client, cache := providers.NewCachedHTTPClient(cfg.CacheTTL, nil)
		c.httpClient = client
		c.cache = cache
	} else {
		c.httpClient = resolveHTTPClient(cfg.HTTPClient)
	}
	return c
}

// FetchMatch retrieves the current state of one match.
func (c *Client) FetchMatch(ctx context.Context, matchID string) (matches.ScoreRecord, error) {
	var info matchInfo
	if err := c.get(ctx, "match_info", matchID, &info); err != nil {
		return matches.ScoreRecord{}, err
	}
	if info.ID == "" {
		info.ID = matchID
	}
	return mapMatch(info), nil
}

// FetchSeries retrieves every fixture of a series. Entries that cannot be
// mapped are skipped; the error reports only transport or upstream failures.
func (c *Client) FetchSeries(ctx context.Context, competition, seriesID string) ([]matches.Fixture, error) {
	var info seriesInfo
	if err := c.get(ctx, "series_info", seriesID, &info); err != nil {
		return nil, err
	}
	out := make([]matches.Fixture, 0, len(info.MatchList))
	for _, m := range info.MatchList {
		f, err := mapFixture(m, competition)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint, id string, dest any) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: %s api key not set", providers.ErrProviderUnavailable, providerName)
	}
	req, err := c.buildRequest(ctx, endpoint, id)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &providers.RateLimitError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			RetryAfter: providers.ParseRetryAfter(resp.Header.Get("Retry-After"), c.now()),
			Message:    "cricapi rate limited",
		}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("cricapi: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// Read to EOF so the cache stores the body before it may be invalidated.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("cricapi: read %s: %w", endpoint, err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.invalidate(req)
		return fmt.Errorf("cricapi: decode %s: %w", endpoint, err)
	}
	if env.Status != statusSuccess {
		// Failure bodies arrive with 200 and must not be served from cache.
		c.invalidate(req)
		return classifyFailure(env)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return &providers.FailureError{Provider: providerName, Reason: "empty data"}
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("cricapi: decode %s data: %w", endpoint, err)
	}
	return nil
}

func (c *Client) buildRequest(ctx context.Context, endpoint, id string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("apikey", c.apiKey)
	q.Set("id", id)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) invalidate(req *http.Request) {
	if c.cache != nil {
		c.cache.Delete(req.URL.String())
	}
}

// classifyFailure maps a failure envelope to a quota error or a plain failure.
func classifyFailure(env envelope) error {
	reason := strings.TrimSpace(env.Reason)
	lower := strings.ToLower(reason)
	if strings.Contains(lower, "limit") || strings.Contains(lower, "quota") || strings.Contains(lower, "blocked") {
		rl := &providers.RateLimitError{Provider: providerName, Message: reason}
		if env.Info != nil && env.Info.HitsLimit > 0 {
			rl.Remaining = fmt.Sprintf("%d/%d", max(env.Info.HitsLimit-env.Info.HitsToday, 0), env.Info.HitsLimit)
		}
		return rl
	}
	return &providers.FailureError{Provider: providerName, Reason: reason}
}
