// Package fixtures pulls upcoming county fixtures and writes one artifact per match day.
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/logging"
	"countycricket-live/internal/providers"
	"countycricket-live/internal/timeutil"
)

// Series names one upstream series and the competition it belongs to.
type Series struct {
	Competition string
	ID          string
}

// DefaultSeries lists the County Championship divisions.
var DefaultSeries = []Series{
	{Competition: "County Championship Division One", ID: "9362b075-d007-478c-b4a9-e08b9306caef"},
	{Competition: "County Championship Division Two", ID: "4cdcd4af-0d19-439d-afc3-c2e75d8a8e53"},
}

// DefaultTimezone is the calendar used to decide which days have passed.
const DefaultTimezone = "Europe/London"

const oneDayLabel = "One Day Match"

// ChannelLookup resolves a team name to its channel.
type ChannelLookup interface {
	Lookup(team string) (matches.Channel, bool)
}

// DayWriter persists the fixtures of a single day.
type DayWriter interface {
	WriteFixtureDay(date string, fixtures []matches.Fixture) error
}

// Result summarises one extraction.
type Result struct {
	Fixtures int
	Days     int
	Failed   int
}

// Extractor fetches series fixtures and writes them grouped by day.
type Extractor struct {
	provider providers.FixtureProvider
	channels ChannelLookup
	writer   DayWriter
	logger   *slog.Logger
	series   []Series
	loc      *time.Location
	now      func() time.Time
}

// Option customises an Extractor.
type Option func(*Extractor)

// WithSeries replaces the series to extract.
func WithSeries(series ...Series) Option {
	return func(e *Extractor) {
		if len(series) > 0 {
			e.series = series
		}
	}
}

// WithLocation sets the calendar location. A nil location is ignored.
func WithLocation(loc *time.Location) Option {
	return func(e *Extractor) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithClock overrides the current time source.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs an extractor. channels may be nil, in which case fixtures carry no channel.
func New(provider providers.FixtureProvider, channels ChannelLookup, writer DayWriter, logger *slog.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		provider: provider,
		channels: channels,
		writer:   writer,
		logger:   logger,
		series:   DefaultSeries,
		loc:      providers.ResolveTimezone(DefaultTimezone),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run fetches every series, drops finished fixtures, and writes one file per
// remaining match day. A series that fails is skipped; Run fails only when
// every series fails or a day cannot be written.
func (e *Extractor) Run(ctx context.Context) (Result, error) {
	if e.provider == nil || e.writer == nil {
		return Result{}, errors.New("fixtures: extractor not configured")
	}
	var (
		all     []matches.Fixture
		res     Result
		lastErr error
	)
	for _, s := range e.series {
		got, err := e.provider.FetchSeries(ctx, s.Competition, s.ID)
		if err != nil {
			res.Failed++
			lastErr = err
			logging.Warn(e.logger, "series fetch failed",
				"series", s.ID,
				"competition", s.Competition,
				logging.FieldError, err,
			)
			continue
		}
		all = append(all, got...)
	}
	if res.Failed > 0 && res.Failed == len(e.series) {
		return res, fmt.Errorf("fetch fixtures: %w", lastErr)
	}

	e.annotate(all)
	days := GroupByDay(all, timeutil.Today(e.now(), e.loc))
	dates := make([]string, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	for _, d := range dates {
		if err := e.writer.WriteFixtureDay(d, days[d]); err != nil {
			return res, fmt.Errorf("write fixtures %s: %w", d, err)
		}
		res.Fixtures += len(days[d])
	}
	res.Days = len(dates)
	logging.Info(e.logger, "fixtures written",
		logging.FieldCount, res.Fixtures,
		"days", res.Days,
	)
	return res, nil
}

func (e *Extractor) annotate(fixtures []matches.Fixture) {
	if e.channels == nil {
		return
	}
	for i := range fixtures {
		if fixtures[i].ChannelID != "" {
			continue
		}
		if ch, ok := e.channels.Lookup(fixtures[i].HomeTeam); ok {
			fixtures[i].ChannelID = ch.ChannelID
		} else {
			logging.Debug(e.logger, "no channel for team", "team", fixtures[i].HomeTeam)
		}
	}
}

// GroupByDay expands fixtures into one entry per match day on or after today.
// Fixtures that ended before today are dropped. Multi-day fixtures are labelled
// "Day N of M" counting from their start date.
func GroupByDay(fixtures []matches.Fixture, today time.Time) map[string][]matches.Fixture {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	out := make(map[string][]matches.Fixture)
	for _, f := range fixtures {
		start, err := timeutil.ParseDate(f.StartDate)
		if err != nil {
			continue
		}
		end, err := timeutil.ParseDate(f.EndDate)
		if err != nil || end.Before(start) {
			end = start
		}
		if end.Before(today) {
			continue
		}
		total := int(end.Sub(start).Hours()/24) + 1
		for n, day := 1, start; !day.After(end); n, day = n+1, day.AddDate(0, 0, 1) {
			if day.Before(today) {
				continue
			}
			entry := f
			if total > 1 {
				entry.Day = fmt.Sprintf("Day %d of %d", n, total)
			} else {
				entry.Day = oneDayLabel
			}
			date := timeutil.FormatDate(day)
			out[date] = append(out[date], entry)
		}
	}
	return out
}
