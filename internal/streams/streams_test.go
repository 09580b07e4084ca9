package streams

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"countycricket-live/internal/artifacts"
	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/feed"
	"countycricket-live/internal/metrics"
	"countycricket-live/internal/testutil"
	"countycricket-live/internal/teststubs"
)

const testDate = "2026-06-12"

var testChannels = []matches.Channel{
	{Name: "Surrey", ChannelID: "UC-surrey"},
	{Name: "Kent", ChannelID: "UC-kent"},
}

func testNow() time.Time {
	return testutil.MustParseRFC3339(testDate + "T10:00:00Z")
}

func liveBroadcast(channel, id string, published time.Time) matches.Broadcast {
	return matches.Broadcast{VideoID: id, Title: "Live " + id, ChannelID: channel, PublishedAt: published, Live: true}
}

func upcomingBroadcast(channel, id string, start time.Time) matches.Broadcast {
	return matches.Broadcast{VideoID: id, Title: "Soon " + id, ChannelID: channel, ScheduledStart: start}
}

func findMatch(t *testing.T, doc feed.Document, comp, id string) matches.Match {
	t.Helper()
	for _, c := range doc.Competitions {
		if c.Name != comp {
			continue
		}
		for _, m := range c.Matches {
			if m.ID == id {
				return m
			}
		}
	}
	t.Fatalf("match %s not found under %q in %+v", id, comp, doc.Competitions)
	return matches.Match{}
}

func TestJoinClaimsLiveBroadcastBeforeUpcoming(t *testing.T) {
	now := testNow()
	fixtures := []matches.Fixture{
		{MatchID: "m1", Competition: "Division One", HomeTeam: "Surrey", AwayTeam: "Kent", StartTimeGMT: "10:30", Day: "Day 2 of 4", ChannelID: "UC-surrey"},
	}
	byChannel := map[string][]matches.Broadcast{
		"UC-surrey": {
			upcomingBroadcast("UC-surrey", "next", now.Add(24*time.Hour)),
			liveBroadcast("UC-surrey", "on-air", now.Add(-time.Hour)),
		},
	}

	doc := Join(fixtures, byChannel, map[string]string{"UC-surrey": "Surrey"}, testDate, DefaultOtherCompetition, now)

	m := findMatch(t, doc, "Division One", "m1")
	if m.VideoID() != "on-air" || m.Status != "Day 2 of 4" {
		t.Fatalf("expected live broadcast claimed with day label, got %+v", m)
	}
	if want := testutil.MustParseRFC3339(testDate + "T10:30:00Z"); !m.StartTime.Equal(want) {
		t.Fatalf("expected fixture start %s, got %s", want, m.StartTime)
	}
	left := findMatch(t, doc, DefaultOtherCompetition, "next")
	if left.HomeTeam != "Surrey" || left.IsLive() {
		t.Fatalf("expected unclaimed upcoming stream under other streams, got %+v", left)
	}
	if doc.Version != feed.CurrentVersion || !doc.GeneratedAt.Equal(now) {
		t.Fatalf("unexpected document header %+v", doc)
	}
}

func TestJoinUpcomingOnlyFixtureHasNoVideoID(t *testing.T) {
	now := testNow()
	fixtures := []matches.Fixture{
		{MatchID: "m2", Competition: "Division Two", HomeTeam: "Kent", StartTimeGMT: "11:00", ChannelID: "UC-kent"},
	}
	byChannel := map[string][]matches.Broadcast{
		"UC-kent": {upcomingBroadcast("UC-kent", "later", now.Add(time.Hour))},
	}

	doc := Join(fixtures, byChannel, nil, testDate, DefaultOtherCompetition, now)

	m := findMatch(t, doc, "Division Two", "m2")
	if m.IsLive() || m.VideoID() != "" {
		t.Fatalf("expected upcoming stream without a video id, got %+v", m.Stream)
	}
	if m.Stream == nil || m.Stream.Title != "Soon later" {
		t.Fatalf("expected stream title carried, got %+v", m.Stream)
	}
	for _, c := range doc.Competitions {
		if c.Name == DefaultOtherCompetition {
			t.Fatalf("expected claimed broadcast not to be listed again, got %+v", c)
		}
	}
}

func TestJoinOrdersFixturesAndCompetitions(t *testing.T) {
	now := testNow()
	fixtures := []matches.Fixture{
		{MatchID: "b", Competition: "Division One", StartTimeGMT: "11:00", ChannelID: "UC-surrey"},
		{MatchID: "a", Competition: "Division One", StartTimeGMT: "10:00", ChannelID: "UC-surrey"},
		{MatchID: "c", Competition: "", StartTimeGMT: "10:00"},
	}
	byChannel := map[string][]matches.Broadcast{
		"UC-surrey": {liveBroadcast("UC-surrey", "only", now)},
	}

	doc := Join(fixtures, byChannel, nil, testDate, "Other", now)

	if len(doc.Competitions) != 2 || doc.Competitions[0].Name != "Division One" || doc.Competitions[1].Name != "Other" {
		t.Fatalf("expected competitions sorted by name, got %+v", doc.Competitions)
	}
	div := doc.Competitions[0].Matches
	if div[0].ID != "a" || div[0].VideoID() != "only" || div[1].IsLive() {
		t.Fatalf("expected earliest fixture to claim the stream, got %+v", div)
	}
}

func newUpdater(t *testing.T, provider *teststubs.StubProvider, fixtures []matches.Fixture, opts ...Option) (*Updater, *artifacts.FSStore) {
	t.Helper()
	dir := t.TempDir()
	writer := artifacts.NewWriter(dir, 7)
	if fixtures != nil {
		if err := writer.WriteFixtureDay(testDate, fixtures); err != nil {
			t.Fatalf("write fixtures: %v", err)
		}
	}
	store := artifacts.NewFSStore(dir)
	opts = append([]Option{WithClock(testutil.NowAt(testNow())), WithPrevious(store)}, opts...)
	return New(provider, testChannels, store, writer, nil, metrics.NewRecorder(), opts...), store
}

func TestUpdaterWritesJoinedFeed(t *testing.T) {
	now := testNow()
	provider := &teststubs.StubProvider{Broadcasts: map[string][]matches.Broadcast{
		"UC-surrey": {liveBroadcast("UC-surrey", "sur-live", now.Add(-time.Hour))},
		"UC-kent":   {liveBroadcast("UC-kent", "kent-extra", now.Add(-2*time.Hour))},
	}}
	fixtures := []matches.Fixture{
		{MatchID: "m1", Competition: "Division One", HomeTeam: "Surrey", StartTimeGMT: "10:30", ChannelID: "UC-surrey"},
	}
	publisher := &teststubs.StubPublisher{}
	u, store := newUpdater(t, provider, fixtures, WithPublisher(publisher))

	res, err := u.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Channels != 2 || res.Failed != 0 || res.Live != 2 || res.Unmatched != 1 || !res.Changed {
		t.Fatalf("unexpected result %+v", res)
	}
	doc, err := store.LoadFeed()
	if err != nil {
		t.Fatalf("load feed: %v", err)
	}
	if m := findMatch(t, doc, "Division One", "m1"); m.VideoID() != "sur-live" {
		t.Fatalf("expected fixture to carry its channel stream, got %+v", m)
	}
	if m := findMatch(t, doc, DefaultOtherCompetition, "kent-extra"); m.HomeTeam != "Kent" {
		t.Fatalf("expected unmatched stream named after its channel, got %+v", m)
	}
	if _, ok := publisher.Published[artifacts.FeedFile]; !ok {
		t.Fatalf("expected changed feed to be published, got %v", publisher.Published)
	}
}

func TestUpdaterSkipsFailedChannels(t *testing.T) {
	now := testNow()
	provider := &teststubs.StubProvider{
		Broadcasts: map[string][]matches.Broadcast{
			"UC-surrey": {liveBroadcast("UC-surrey", "sur-live", now)},
		},
		Errs: map[string]error{"UC-kent": errors.New("quota exceeded")},
	}
	logger, buf := testutil.NewBufferLogger()
	dir := t.TempDir()
	u := New(provider, testChannels, nil, artifacts.NewWriter(dir, 7), logger, nil, WithClock(testutil.NowAt(now)))

	res, err := u.Run(context.Background())
	if err != nil {
		t.Fatalf("expected partial failure to be tolerated, got %v", err)
	}
	if res.Failed != 1 || res.Live != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(buf.String(), "channel lookup failed") {
		t.Fatalf("expected failed channel to be logged, got %s", buf.String())
	}
}

func TestUpdaterFailsWhenEveryChannelFails(t *testing.T) {
	provider := &teststubs.StubProvider{Err: errors.New("api down")}
	u, store := newUpdater(t, provider, nil)

	_, err := u.Run(context.Background())
	if !errors.Is(err, ErrAllChannelsFailed) {
		t.Fatalf("expected ErrAllChannelsFailed, got %v", err)
	}
	if _, loadErr := store.LoadFeed(); loadErr == nil {
		t.Fatalf("expected no feed written when every channel failed")
	}
}

func TestUpdaterToleratesMissingFixtures(t *testing.T) {
	provider := &teststubs.StubProvider{Broadcasts: map[string][]matches.Broadcast{
		"UC-surrey": {upcomingBroadcast("UC-surrey", "later", testNow().Add(time.Hour))},
	}}
	u, _ := newUpdater(t, provider, nil)

	res, err := u.Run(context.Background())
	if err != nil {
		t.Fatalf("expected missing fixtures to be tolerated, got %v", err)
	}
	if res.Upcoming != 1 || res.Unmatched != 1 {
		t.Fatalf("expected stream listed under other streams, got %+v", res)
	}
}

func TestUpdaterReportsNewlyLiveAndKeepsUnchangedFeed(t *testing.T) {
	now := testNow()
	provider := &teststubs.StubProvider{Broadcasts: map[string][]matches.Broadcast{
		"UC-surrey": {liveBroadcast("UC-surrey", "sur-live", now.Add(-time.Hour))},
	}}
	dir := t.TempDir()
	writer := artifacts.NewWriter(dir, 7)
	store := artifacts.NewFSStore(dir)
	clock := now
	u := New(provider, testChannels, store, writer, nil, nil,
		WithPrevious(store),
		WithClock(func() time.Time { return clock }),
	)

	first, err := u.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first.NewLive) != 0 {
		t.Fatalf("expected no comparison without a previous feed, got %v", first.NewLive)
	}

	provider.Broadcasts["UC-kent"] = []matches.Broadcast{liveBroadcast("UC-kent", "kent-live", now)}
	clock = now.Add(5 * time.Minute)
	second, err := u.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.NewLive) != 1 || second.NewLive[0] != "kent-live" || !second.Changed {
		t.Fatalf("expected kent stream reported as newly live, got %+v", second)
	}

	clock = now.Add(10 * time.Minute)
	third, err := u.Run(context.Background())
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third.Changed || len(third.NewLive) != 0 {
		t.Fatalf("expected unchanged rerun to keep the feed, got %+v", third)
	}
	doc, err := store.LoadFeed()
	if err != nil {
		t.Fatalf("load feed: %v", err)
	}
	if !doc.GeneratedAt.Equal(now.Add(5 * time.Minute)) {
		t.Fatalf("expected timestamp of the last change, got %s", doc.GeneratedAt)
	}
}

func TestUpdaterStopsOnCancelledContext(t *testing.T) {
	provider := &teststubs.StubProvider{}
	u, _ := newUpdater(t, provider, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := u.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestUpdaterRequiresProviderAndWriter(t *testing.T) {
	if _, err := New(nil, nil, nil, nil, nil, nil).Run(context.Background()); err == nil {
		t.Fatalf("expected error for unconfigured updater")
	}
}
