// Package youtube lists the live and scheduled broadcasts of county channels
// through the YouTube Data API.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gregjones/httpcache"

	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/providers"
)

// Config controls how the client reaches the Data API.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	// CacheTTL caches channel lookups in memory when no HTTPClient is given.
	// Upload and video listings are always fetched fresh.
	CacheTTL time.Duration
}

// Client maps Data API listings to broadcasts.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpDoer
	cache      httpcache.Cache
	now        func() time.Time
}

// NewClient constructs a client with the provided configuration.
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

// FetchChannelStreams inspects the channel's most recent uploads. A video is
// live once it has started and not ended, and upcoming while its scheduled
// start lies ahead. Everything else is dropped.
func (c *Client) FetchChannelStreams(ctx context.Context, channelID string) ([]matches.Broadcast, error) {
	playlist, err := c.uploadsPlaylist(ctx, channelID)
	if err != nil {
		return nil, err
	}
	ids, err := c.recentUploads(ctx, playlist)
	if err != nil {
		return nil, err
	}
	now := c.now()
	var out []matches.Broadcast
	for start := 0; start < len(ids); start += maxResults {
		end := min(start+maxResults, len(ids))
		var list videoList
		params := url.Values{
			"part": {"snippet,liveStreamingDetails"},
			"id":   {strings.Join(ids[start:end], ",")},
		}
		if err := c.get(ctx, "videos", params, false, &list); err != nil {
			return nil, err
		}
		for _, v := range list.Items {
			if b, ok := classify(v, now); ok {
				out = append(out, b)
			}
		}
	}
	return out, nil
}

func (c *Client) uploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	var list channelList
	params := url.Values{"part": {"contentDetails"}, "id": {channelID}}
	if err := c.get(ctx, "channels", params, true, &list); err != nil {
		return "", err
	}
	if len(list.Items) == 0 || list.Items[0].ContentDetails.RelatedPlaylists.Uploads == "" {
		return "", &providers.FailureError{Provider: providerName, Reason: "channel not found: " + channelID}
	}
	return list.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

func (c *Client) recentUploads(ctx context.Context, playlistID string) ([]string, error) {
	var list playlistItemList
	params := url.Values{
		"part":       {"contentDetails"},
		"playlistId": {playlistID},
		"maxResults": {fmt.Sprint(maxResults)},
	}
	if err := c.get(ctx, "playlistItems", params, false, &list); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		if id := item.ContentDetails.VideoID; id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func classify(v video, now time.Time) (matches.Broadcast, bool) {
	d := v.LiveStreamingDetails
	if d == nil || d.ActualEndTime != "" {
		return matches.Broadcast{}, false
	}
	b := matches.Broadcast{
		VideoID:        v.ID,
		Title:          v.Snippet.Title,
		ChannelID:      v.Snippet.ChannelID,
		Description:    v.Snippet.Description,
		PublishedAt:    parseTime(v.Snippet.PublishedAt),
		ScheduledStart: parseTime(d.ScheduledStartTime),
	}
	switch {
	case d.ActualStartTime != "":
		b.Live = true
		return b, true
	case b.ScheduledStart.After(now):
		return b, true
	default:
		return matches.Broadcast{}, false
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// get decodes one listing into dest. Requests that are not cacheable bypass
// the response cache so live state is never served stale.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, cacheable bool, dest any) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: %s api key not set", providers.ErrProviderUnavailable, providerName)
	}
	req, err := c.buildRequest(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if !cacheable {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Read to EOF so the cache stores the body before it may be invalidated.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("youtube: read %s: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.invalidate(req)
		return c.classifyStatus(resp, body)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		c.invalidate(req)
		return fmt.Errorf("youtube: decode %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) buildRequest(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	for k, v := range params {
		q[k] = v
	}
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) invalidate(req *http.Request) {
	if c.cache != nil {
		c.cache.Delete(req.URL.String())
	}
}

// quotaReasons are the error reasons the Data API reports for exhausted quota.
var quotaReasons = map[string]struct{}{
	"quotaExceeded":         {},
	"dailyLimitExceeded":    {},
	"rateLimitExceeded":     {},
	"userRateLimitExceeded": {},
}

// classifyStatus maps an error response to a rate limit, a final failure or,
// for server errors, a plain retryable error.
func (c *Client) classifyStatus(resp *http.Response, body []byte) error {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)
	msg := strings.TrimSpace(parsed.Error.Message)
	reason := ""
	if len(parsed.Error.Errors) > 0 {
		reason = parsed.Error.Errors[0].Reason
	}
	_, quota := quotaReasons[reason]
	switch {
	case resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode == http.StatusForbidden && quota):
		if msg == "" {
			msg = "youtube quota exhausted"
		}
		return &providers.RateLimitError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			RetryAfter: providers.ParseRetryAfter(resp.Header.Get("Retry-After"), c.now()),
			Message:    msg,
		}
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("youtube: unexpected status %d: %s", resp.StatusCode, msg)
	default:
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return &providers.FailureError{Provider: providerName, Reason: msg}
	}
}
