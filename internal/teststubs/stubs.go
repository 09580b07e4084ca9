package teststubs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"countycricket-live/internal/domain/matches"
)

// ErrNoRecord is returned by StubProvider for unknown match ids.
var ErrNoRecord = errors.New("stub: no record")

// StubProvider is a test double for providers.DataProvider and providers.StreamProvider.
type StubProvider struct {
	Records    map[string]matches.ScoreRecord
	Fixtures   map[string][]matches.Fixture   // keyed by series id
	Broadcasts map[string][]matches.Broadcast // keyed by channel id
	Errs       map[string]error               // keyed by match, series or channel id
	Err        error
	Calls      atomic.Int32
	Notify     chan struct{}

	mu         sync.Mutex
	seen       []string
	notifyOnce sync.Once
}

// FetchMatch returns the configured record for matchID while tracking calls.
func (s *StubProvider) FetchMatch(ctx context.Context, matchID string) (matches.ScoreRecord, error) {
	if err := s.track(ctx, matchID); err != nil {
		return matches.ScoreRecord{}, err
	}
	rec, ok := s.Records[matchID]
	if !ok {
		return matches.ScoreRecord{}, ErrNoRecord
	}
	return rec, nil
}

// FetchSeries returns the configured fixtures for seriesID, stamped with competition.
func (s *StubProvider) FetchSeries(ctx context.Context, competition, seriesID string) ([]matches.Fixture, error) {
	if err := s.track(ctx, seriesID); err != nil {
		return nil, err
	}
	src := s.Fixtures[seriesID]
	out := make([]matches.Fixture, len(src))
	for i, f := range src {
		f.Competition = competition
		out[i] = f
	}
	return out, nil
}

// FetchChannelStreams returns the configured broadcasts for channelID.
func (s *StubProvider) FetchChannelStreams(ctx context.Context, channelID string) ([]matches.Broadcast, error) {
	if err := s.track(ctx, channelID); err != nil {
		return nil, err
	}
	return append([]matches.Broadcast(nil), s.Broadcasts[channelID]...), nil
}

// Seen returns the ids requested so far, in call order.
func (s *StubProvider) Seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func (s *StubProvider) track(ctx context.Context, id string) error {
	if s.Notify != nil {
		s.notifyOnce.Do(func() { close(s.Notify) })
	}
	s.Calls.Add(1)
	s.mu.Lock()
	s.seen = append(s.seen, id)
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Err != nil {
		return s.Err
	}
	return s.Errs[id]
}

// StubPublisher is a test double for artifacts.Publisher.
type StubPublisher struct {
	mu        sync.Mutex
	Published map[string][]byte // keyed by object key
	Err       error
}

// Publish records the payload for verification in tests.
func (p *StubPublisher) Publish(ctx context.Context, key string, data []byte) error {
	_ = ctx
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Published == nil {
		p.Published = make(map[string][]byte)
	}
	p.Published[key] = append([]byte(nil), data...)
	return nil
}
