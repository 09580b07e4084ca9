package streams

import (
	"sort"
	"strings"
	"time"

	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/feed"
)

// Join builds the feed document for one fixture day. Each fixture takes the
// first unclaimed live broadcast on its home channel, or else the earliest
// unclaimed upcoming one. Broadcasts that no fixture claims are listed under
// the other competition, named after their channel.
func Join(fixtures []matches.Fixture, byChannel map[string][]matches.Broadcast, names map[string]string, date, other string, at time.Time) feed.Document {
	pools := make(map[string]*pool, len(byChannel))
	for id, bs := range byChannel {
		pools[id] = newPool(bs)
	}

	ordered := append([]matches.Fixture(nil), fixtures...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].StartTimeGMT != ordered[j].StartTimeGMT {
			return ordered[i].StartTimeGMT < ordered[j].StartTimeGMT
		}
		return ordered[i].MatchID < ordered[j].MatchID
	})

	byComp := make(map[string][]matches.Match)
	for _, f := range ordered {
		comp := f.Competition
		if comp == "" {
			comp = other
		}
		m := matches.Match{
			ID:          f.MatchID,
			Competition: comp,
			HomeTeam:    f.HomeTeam,
			AwayTeam:    f.AwayTeam,
			Venue:       f.Venue,
			StartTime:   fixtureStart(date, f.StartTimeGMT),
			Status:      f.Day,
		}
		if p := pools[f.ChannelID]; p != nil {
			if b, ok := p.claim(); ok {
				m.Stream = b.Stream()
			}
		}
		byComp[comp] = append(byComp[comp], m)
	}

	channelIDs := make([]string, 0, len(pools))
	for id := range pools {
		channelIDs = append(channelIDs, id)
	}
	sort.Strings(channelIDs)
	var leftovers []matches.Match
	for _, id := range channelIDs {
		for _, b := range pools[id].rest() {
			name := names[id]
			if name == "" {
				name = id
			}
			start := b.ScheduledStart
			if b.Live && !b.PublishedAt.IsZero() {
				start = b.PublishedAt
			}
			leftovers = append(leftovers, matches.Match{
				ID:          b.VideoID,
				Competition: other,
				HomeTeam:    name,
				StartTime:   start,
				Stream:      b.Stream(),
			})
		}
	}
	sort.SliceStable(leftovers, func(i, j int) bool {
		return leftovers[i].StartTime.Before(leftovers[j].StartTime)
	})
	if len(leftovers) > 0 {
		byComp[other] = append(byComp[other], leftovers...)
	}

	doc := feed.Document{Version: feed.CurrentVersion, GeneratedAt: at.UTC()}
	for name, ms := range byComp {
		doc.Competitions = append(doc.Competitions, feed.CompetitionFeed{Name: name, Matches: ms})
	}
	sort.Slice(doc.Competitions, func(i, j int) bool {
		return doc.Competitions[i].Name < doc.Competitions[j].Name
	})
	return doc
}

func fixtureStart(date, clock string) time.Time {
	t, err := feed.ParseTime(strings.TrimSpace(date + " " + clock))
	if err != nil {
		return time.Time{}
	}
	return t
}

// pool hands out one channel's broadcasts, live ones first.
type pool struct {
	items   []matches.Broadcast
	claimed []bool
}

func newPool(bs []matches.Broadcast) *pool {
	items := append([]matches.Broadcast(nil), bs...)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Live != b.Live {
			return a.Live
		}
		if a.Live {
			return a.PublishedAt.Before(b.PublishedAt)
		}
		return a.ScheduledStart.Before(b.ScheduledStart)
	})
	return &pool{items: items, claimed: make([]bool, len(items))}
}

func (p *pool) claim() (matches.Broadcast, bool) {
	for i, b := range p.items {
		if !p.claimed[i] {
			p.claimed[i] = true
			return b, true
		}
	}
	return matches.Broadcast{}, false
}

func (p *pool) rest() []matches.Broadcast {
	var out []matches.Broadcast
	for i, b := range p.items {
		if !p.claimed[i] {
			out = append(out, b)
		}
	}
	return out
}
