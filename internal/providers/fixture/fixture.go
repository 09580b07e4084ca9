package fixture

import (
	"context"
	"strings"
	"time"

	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/providers"
)

const providerName = "fixture"

// Provider returns deterministic county cricket data for local runs and tests.
type Provider struct {
	now func() time.Time
}

// New creates a fixture provider with a time source.
func New() *Provider {
	return &Provider{
		now: time.Now,
	}
}

var records = map[string]matches.ScoreRecord{
	"fixture-1": {
		ID:           "fixture-1",
		Name:         "Essex vs Kent, County Championship Division One",
		Status:       "Essex opt to bat",
		MatchStarted: true,
		Innings: []matches.Innings{
			{Innings: "Essex Inning 1", Runs: 245, Wickets: 6, Overs: 78.2},
		},
	},
	"fixture-2": {
		ID:           "fixture-2",
		Name:         "Surrey vs Durham, County Championship Division One",
		Status:       "Surrey won by 4 wickets",
		MatchStarted: true,
		MatchEnded:   true,
		Innings: []matches.Innings{
			{Innings: "Durham Inning 1", Runs: 301, Wickets: 10, Overs: 96.4},
			{Innings: "Surrey Inning 1", Runs: 305, Wickets: 6, Overs: 88},
		},
	},
}

// FetchMatch returns a canned record. Ids starting with "missing" fail the
// way the upstream does for unknown matches; other unknown ids are reported
// as not started.
func (p *Provider) FetchMatch(ctx context.Context, matchID string) (matches.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return matches.ScoreRecord{}, err
	}
	if rec, ok := records[matchID]; ok {
		rec.Innings = append([]matches.Innings(nil), rec.Innings...)
		return rec, nil
	}
	if matchID == "" || strings.HasPrefix(matchID, "missing") {
		return matches.ScoreRecord{}, &providers.FailureError{Provider: providerName, Reason: "match not found"}
	}
	return matches.ScoreRecord{ID: matchID, Status: "Match not started"}, nil
}

// FetchSeries returns one four-day fixture that started yesterday, one that
// finished last week and one one-day fixture tomorrow.
func (p *Provider) FetchSeries(ctx context.Context, competition, seriesID string) ([]matches.Fixture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	today := p.now().UTC().Truncate(24 * time.Hour)
	day := func(offset int) string { return today.AddDate(0, 0, offset).Format("2006-01-02") }

	out := []matches.Fixture{
		{
			MatchID:      seriesID + "-1",
			HomeTeam:     "Essex",
			AwayTeam:     "Kent",
			Venue:        "Cloudfm County Ground, Chelmsford",
			StartDate:    day(-1),
			EndDate:      day(2),
			StartTimeGMT: "10:30",
		},
		{
			MatchID:      seriesID + "-2",
			HomeTeam:     "Surrey",
			AwayTeam:     "Durham",
			Venue:        "Kia Oval, London",
			StartDate:    day(-8),
			EndDate:      day(-5),
			StartTimeGMT: "10:30",
		},
		{
			MatchID:      seriesID + "-3",
			HomeTeam:     "Lancashire",
			AwayTeam:     "Yorkshire",
			Venue:        "Emirates Old Trafford, Manchester",
			StartDate:    day(1),
			EndDate:      day(1),
			StartTimeGMT: "13:00",
		},
	}
	for i := range out {
		out[i].Competition = competition
	}
	return out, nil
}

// FetchChannelStreams returns one live broadcast that started an hour ago and
// one scheduled for tomorrow. Channel ids starting with "missing" fail.
func (p *Provider) FetchChannelStreams(ctx context.Context, channelID string) ([]matches.Broadcast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if channelID == "" || strings.HasPrefix(channelID, "missing") {
		return nil, &providers.FailureError{Provider: providerName, Reason: "channel not found"}
	}
	now := p.now().UTC()
	return []matches.Broadcast{
		{
			VideoID:     "live-" + channelID,
			Title:       "Live cricket from " + channelID,
			ChannelID:   channelID,
			PublishedAt: now.Add(-time.Hour),
			Live:        true,
		},
		{
			VideoID:        "next-" + channelID,
			Title:          "Tomorrow's play from " + channelID,
			ChannelID:      channelID,
			ScheduledStart: now.Add(24 * time.Hour),
		},
	}, nil
}
