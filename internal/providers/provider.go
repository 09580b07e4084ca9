package providers

import (
	"context"

	"countycricket-live/internal/domain/matches"
)

// ScoreProvider looks up the current state of a single match.
type ScoreProvider interface {
	FetchMatch(ctx context.Context, matchID string) (matches.ScoreRecord, error)
}

// FixtureProvider lists the fixtures of a series.
// The competition name is stamped onto every returned fixture.
type FixtureProvider interface {
	FetchSeries(ctx context.Context, competition, seriesID string) ([]matches.Fixture, error)
}

// DataProvider combines all provider capabilities.
type DataProvider interface {
	ScoreProvider
	FixtureProvider
}

// StreamProvider lists the live and scheduled broadcasts of one channel.
type StreamProvider interface {
	FetchChannelStreams(ctx context.Context, channelID string) ([]matches.Broadcast, error)
}
