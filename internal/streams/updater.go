// Package streams writes the feed artifact from county channel broadcasts
// joined to the day's fixtures.
package streams

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"countycricket-live/internal/artifacts"
	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/feed"
	"countycricket-live/internal/logging"
	"countycricket-live/internal/metrics"
	"countycricket-live/internal/providers"
	"countycricket-live/internal/timeutil"
)

const (
	defaultConcurrency = 4
	// DefaultOtherCompetition lists broadcasts that match no fixture.
	DefaultOtherCompetition = "Other Streams"
	providerLabel           = "streams"
)

// ErrAllChannelsFailed is returned when no channel could be listed.
var ErrAllChannelsFailed = errors.New("streams: every channel lookup failed")

// FixtureLoader reads the fixtures written for a date.
type FixtureLoader interface {
	LoadFixtures(date string) ([]matches.Fixture, error)
}

// FeedLoader reads the feed artifact currently published.
type FeedLoader interface {
	LoadFeed() (feed.Document, error)
}

// FeedWriter persists the feed artifact.
type FeedWriter interface {
	WriteFeed(doc feed.Document) (bool, error)
}

// Result summarises one update.
type Result struct {
	Channels  int
	Failed    int
	Live      int
	Upcoming  int
	Unmatched int
	NewLive   []string
	Changed   bool
}

// Updater lists every channel's broadcasts and writes the joined feed.
type Updater struct {
	provider    providers.StreamProvider
	channels    []matches.Channel
	fixtures    FixtureLoader
	writer      FeedWriter
	previous    FeedLoader
	publisher   artifacts.Publisher
	logger      *slog.Logger
	metrics     *metrics.Recorder
	concurrency int
	other       string
	loc         *time.Location
	now         func() time.Time
}

// Option customises an Updater.
type Option func(*Updater)

// WithConcurrency bounds the number of channel lookups in flight.
func WithConcurrency(n int) Option {
	return func(u *Updater) {
		if n > 0 {
			u.concurrency = n
		}
	}
}

// WithPrevious compares each run against the published feed so unchanged
// content keeps its timestamp and newly live streams can be reported.
func WithPrevious(l FeedLoader) Option {
	return func(u *Updater) { u.previous = l }
}

// WithPublisher uploads the feed after it is written.
func WithPublisher(p artifacts.Publisher) Option {
	return func(u *Updater) { u.publisher = p }
}

// WithOtherCompetition names the competition for unmatched broadcasts.
func WithOtherCompetition(name string) Option {
	return func(u *Updater) {
		if name != "" {
			u.other = name
		}
	}
}

// WithLocation sets the calendar used to pick today's fixtures.
func WithLocation(loc *time.Location) Option {
	return func(u *Updater) {
		if loc != nil {
			u.loc = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(u *Updater) {
		if now != nil {
			u.now = now
		}
	}
}

// New constructs an updater.
func New(provider providers.StreamProvider, channels []matches.Channel, fixtures FixtureLoader, writer FeedWriter, logger *slog.Logger, recorder *metrics.Recorder, opts ...Option) *Updater {
	u := &Updater{
		provider:    provider,
		channels:    channels,
		fixtures:    fixtures,
		writer:      writer,
		logger:      logger,
		metrics:     recorder,
		concurrency: defaultConcurrency,
		other:       DefaultOtherCompetition,
		loc:         time.UTC,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Run lists every channel, joins the broadcasts to today's fixtures and
// writes the feed. Missing fixtures and failed channels are logged and
// skipped. A cancelled context, an unwritable feed or a run in which every
// channel failed return an error.
func (u *Updater) Run(ctx context.Context) (Result, error) {
	if u.provider == nil || u.writer == nil {
		return Result{}, errors.New("streams: updater not configured")
	}
	start := time.Now()
	now := u.now()
	date := timeutil.FormatDate(timeutil.Today(now, u.loc))

	var fixtures []matches.Fixture
	if u.fixtures != nil {
		loaded, err := u.fixtures.LoadFixtures(date)
		if err != nil {
			logging.Warn(u.logger, "no fixtures for today, listing streams only", "date", date, logging.FieldError, err)
		}
		fixtures = loaded
	}

	byChannel, failed := u.collect(ctx)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	res := Result{Channels: len(u.channels), Failed: failed}
	if len(u.channels) > 0 && failed == len(u.channels) {
		return res, ErrAllChannelsFailed
	}

	names := make(map[string]string, len(u.channels))
	for _, ch := range u.channels {
		names[ch.ChannelID] = ch.Name
	}
	doc := Join(fixtures, byChannel, names, date, u.other, now)
	u.tally(&res, doc)

	if u.previous != nil {
		if prev, err := u.previous.LoadFeed(); err == nil {
			res.NewLive = newlyLive(prev, doc)
			doc = keepTimestampIfUnchanged(prev, doc)
		}
	}

	changed, err := u.writer.WriteFeed(doc)
	if err != nil {
		return res, fmt.Errorf("write feed: %w", err)
	}
	res.Changed = changed
	if changed {
		u.publish(ctx, doc)
	}

	for _, id := range res.NewLive {
		logging.Info(u.logger, "stream went live", logging.FieldVideoID, id)
	}
	logging.Info(u.logger, "feed artifact written",
		logging.FieldCount, res.Live+res.Upcoming,
		"live", res.Live,
		"unmatched", res.Unmatched,
		"failed", res.Failed,
		"changed", res.Changed,
		logging.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (u *Updater) collect(ctx context.Context) (map[string][]matches.Broadcast, int) {
	var (
		mu        sync.Mutex
		byChannel = make(map[string][]matches.Broadcast, len(u.channels))
		failed    int
		group     errgroup.Group
	)
	group.SetLimit(u.concurrency)
	for _, ch := range u.channels {
		group.Go(func() error {
			begin := time.Now()
			bs, err := u.provider.FetchChannelStreams(ctx, ch.ChannelID)
			if u.metrics != nil {
				u.metrics.RecordProviderAttempt(providerLabel, time.Since(begin), err)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				logging.Warn(u.logger, "channel lookup failed",
					"channel", ch.Name,
					"channel_id", ch.ChannelID,
					logging.FieldError, err,
				)
				return nil
			}
			byChannel[ch.ChannelID] = append(byChannel[ch.ChannelID], bs...)
			return nil
		})
	}
	_ = group.Wait()
	return byChannel, failed
}

func (u *Updater) tally(res *Result, doc feed.Document) {
	for _, c := range doc.Competitions {
		for _, m := range c.Matches {
			if m.IsLive() {
				res.Live++
			} else {
				res.Upcoming++
			}
			if c.Name == u.other {
				res.Unmatched++
			}
		}
	}
}

func (u *Updater) publish(ctx context.Context, doc feed.Document) {
	if u.publisher == nil {
		return
	}
	data, err := feed.Encode(doc)
	if err == nil {
		err = u.publisher.Publish(ctx, artifacts.FeedFile, data)
	}
	if err != nil {
		logging.Warn(u.logger, "feed artifact publish failed", logging.FieldError, err)
	}
}

// newlyLive returns the live video ids of next that prev did not carry.
func newlyLive(prev, next feed.Document) []string {
	seen := make(map[string]struct{})
	for _, c := range prev.Competitions {
		for _, m := range c.Matches {
			if m.IsLive() {
				seen[m.VideoID()] = struct{}{}
			}
		}
	}
	var out []string
	for _, c := range next.Competitions {
		for _, m := range c.Matches {
			if !m.IsLive() {
				continue
			}
			if _, ok := seen[m.VideoID()]; !ok {
				out = append(out, m.VideoID())
			}
		}
	}
	return out
}

// keepTimestampIfUnchanged reuses prev's timestamp when the content is the
// same, so an unchanged feed renders byte-identical and is not rewritten.
func keepTimestampIfUnchanged(prev, next feed.Document) feed.Document {
	candidate := next
	candidate.GeneratedAt = prev.GeneratedAt
	a, errA := feed.Encode(prev)
	b, errB := feed.Encode(candidate)
	if errA != nil || errB != nil || string(a) != string(b) {
		return next
	}
	return candidate
}
