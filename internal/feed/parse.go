package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"countycricket-live/internal/domain/matches"
)

var (
	// ErrUnsupportedVersion is returned for feed versions without a parser.
	ErrUnsupportedVersion = errors.New("feed: unsupported version")
	// ErrDuplicateCompetition is returned when two competitions share a name.
	ErrDuplicateCompetition = errors.New("feed: duplicate competition")
)

// flatVersion identifies the unversioned document holding flat
// liveStreams and upcomingMatches lists with no competitions.
const flatVersion = 0

type versionHeader struct {
	Version         *int            `json:"version"`
	LiveStreams     json.RawMessage `json:"liveStreams"`
	UpcomingMatches json.RawMessage `json:"upcomingMatches"`
}

type parserFunc func(data []byte) (Document, error)

var parsers = map[int]parserFunc{
	flatVersion: parseFlat,
	1:           parseV1,
	2: parseV2,
}

// Parse decodes a feed artifact. Documents without a version key predate
// versioning: the flat stream-list shape is recognised by its keys and
// anything else is treated as version 1.
func Parse(data []byte) (Document, error) {
	var hdr versionHeader
	if err := json.Unmarshal(data, &hdr); err != nil {
		return Document{}, fmt.Errorf("feed: decode header: %w", err)
	}
	version := 1
	switch {
	case hdr.Version != nil:
		version = *hdr.Version
	case hdr.LiveStreams != nil || hdr.UpcomingMatches != nil:
		version = flatVersion
	}
	parse, ok := parsers[version]
	if !ok || (hdr.Version != nil && version == flatVersion) {
		return Document{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	doc, err := parse(data)
	if err != nil {
		return Document{}, err
	}
	doc.Version = version
	sort.SliceStable(doc.Competitions, func(i, j int) bool {
		return doc.Competitions[i].Name < doc.Competitions[j].Name
	})
	return doc, nil
}

// ParseTime parses a timezone-qualified timestamp, assuming GMT when the zone is absent.
func ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// version 2: competitions keyed by name, each with match records.

type v2Document struct {
	LastUpdated  string                   `json:"lastUpdated"`
	Competitions map[string]v2Competition `json:"competitions"`
}

type v2Competition struct {
	Name    string    `json:"name"`
	Matches []v2Match `json:"matches"`
}

type v2Match struct {
	ID           string    `json:"id"`
	Venue        string    `json:"venue"`
	StartTime    string    `json:"startTime"`
	HomeTeam     string    `json:"homeTeam"`
	AwayTeam     string    `json:"awayTeam"`
	Scores       *v2Scores `json:"scores"`
	Status       string    `json:"status"`
	Stream       *v2Stream `json:"stream"`
	MatchStarted *bool     `json:"matchStarted"`
	MatchEnded   *bool     `json:"matchEnded"`
}

type v2Scores struct {
	Innings []matches.Innings `json:"innings"`
}

type v2Stream struct {
	VideoID     string `json:"videoId"`
	Title       string `json:"title"`
	ChannelID   string `json:"channelId"`
	Description string `json:"description,omitempty"`
}

func parseV2(data []byte) (Document, error) {
	var raw v2Document
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("feed v2: %w", err)
	}
	generated, err := ParseTime(raw.LastUpdated)
	if err != nil {
		return Document{}, fmt.Errorf("feed v2: lastUpdated: %w", err)
	}
	doc := Document{GeneratedAt: generated}
	seen := make(map[string]string, len(raw.Competitions))
	for key, c := range raw.Competitions {
		name := c.Name
		if name == "" {
			name = key
		}
		if other, dup := seen[name]; dup {
			return Document{}, fmt.Errorf("%w: %q under keys %q and %q", ErrDuplicateCompetition, name, other, key)
		}
		seen[name] = key
		cf := CompetitionFeed{Name: name, Matches: make([]matches.Match, 0, len(c.Matches))}
		for _, rm := range c.Matches {
			m, err := rm.toMatch(name)
			if err != nil {
				return Document{}, err
			}
			cf.Matches = append(cf.Matches, m)
		}
		doc.Competitions = append(doc.Competitions, cf)
	}
	return doc, nil
}

func (rm v2Match) toMatch(competition string) (matches.Match, error) {
	start, err := ParseTime(rm.StartTime)
	if err != nil {
		return matches.Match{}, fmt.Errorf("feed v2: match %s: startTime: %w", rm.ID, err)
	}
	m := matches.Match{
		ID:          rm.ID,
		Competition: competition,
		HomeTeam:    rm.HomeTeam,
		AwayTeam:    rm.AwayTeam,
		Venue:       rm.Venue,
		StartTime:   start,
		Status:      rm.Status,
		Ended:       rm.MatchEnded != nil && *rm.MatchEnded,
	}
	if rm.Scores != nil {
		m.Innings = rm.Scores.Innings
	}
	if rm.Stream != nil && *rm.Stream != (v2Stream{}) {
		m.Stream = &matches.Stream{
			VideoID:     rm.Stream.VideoID,
			Title:       rm.Stream.Title,
			ChannelID:   rm.Stream.ChannelID,
			Description: rm.Stream.Description,
		}
	}
	return m, nil
}

// version 1: top-level keys are competitions holding live and upcoming stream entries.

type v1Division struct {
	Live     []v1Stream `json:"live"`
	Upcoming []v1Stream `json:"upcoming"`
}

type v1Stream struct {
	VideoID            string    `json:"videoId"`
	Title              string    `json:"title"`
	ChannelID          string    `json:"channelId"`
	Description        string    `json:"description"`
	StartTime          string    `json:"startTime"`
	ScheduledStartTime string    `json:"scheduledStartTime"`
	Fixture            v1Fixture `json:"fixture"`
}

type v1Fixture struct {
	MatchID      string `json:"match_id"`
	HomeTeam     string `json:"home_team"`
	AwayTeam     string `json:"away_team"`
	Venue        string `json:"venue"`
	StartDate    string `json:"start_date"`
	StartTimeGMT string `json:"start_time_gmt"`
}

var v1ReservedKeys = map[string]struct{}{
	"version":     {},
	"lastUpdated": {},
	"lastChanged": {},
}

func parseV1(data []byte) (Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return Document{}, fmt.Errorf("feed v1: %w", err)
	}
	var doc Document
	if rawTS, ok := top["lastUpdated"]; ok {
		var ts string
		if err := json.Unmarshal(rawTS, &ts); err != nil {
			return Document{}, fmt.Errorf("feed v1: lastUpdated: %w", err)
		}
		generated, err := ParseTime(ts)
		if err != nil {
			return Document{}, fmt.Errorf("feed v1: lastUpdated: %w", err)
		}
		doc.GeneratedAt = generated
	}
	for name, raw := range top {
		if _, reserved := v1ReservedKeys[name]; reserved {
			continue
		}
		var div v1Division
		if err := json.Unmarshal(raw, &div); err != nil {
			return Document{}, fmt.Errorf("feed v1: competition %q: %w", name, err)
		}
		cf := CompetitionFeed{Name: name, Matches: make([]matches.Match, 0, len(div.Live)+len(div.Upcoming))}
		for _, s := range div.Live {
			m, err := s.toMatch(name, true)
			if err != nil {
				return Document{}, err
			}
			cf.Matches = append(cf.Matches, m)
		}
		for _, s := range div.Upcoming {
			m, err := s.toMatch(name, false)
			if err != nil {
				return Document{}, err
			}
			cf.Matches = append(cf.Matches, m)
		}
		doc.Competitions = append(doc.Competitions, cf)
	}
	return doc, nil
}

// toMatch converts a v1 stream entry. Upcoming entries keep their channel and
// title but never a video id, so the live rule stays a pure function of the id.
func (s v1Stream) toMatch(competition string, live bool) (matches.Match, error) {
	rawStart := s.StartTime
	if rawStart == "" {
		rawStart = s.ScheduledStartTime
	}
	if rawStart == "" && s.Fixture.StartDate != "" {
		rawStart = strings.TrimSpace(s.Fixture.StartDate + " " + s.Fixture.StartTimeGMT)
	}
	start, err := ParseTime(rawStart)
	if err != nil {
		return matches.Match{}, fmt.Errorf("feed v1: match %s: start time: %w", s.Fixture.MatchID, err)
	}
	stream := &matches.Stream{Title: s.Title, ChannelID: s.ChannelID, Description: s.Description}
	if live {
		stream.VideoID = s.VideoID
	}
	if *stream == (matches.Stream{}) {
		stream = nil
	}
	return matches.Match{
		ID:          s.Fixture.MatchID,
		Competition: competition,
		HomeTeam:    s.Fixture.HomeTeam,
		AwayTeam:    s.Fixture.AwayTeam,
		Venue:       s.Fixture.Venue,
		StartTime:   start,
		Stream:      stream,
	}, nil
}

// flat: one list of live streams and one of upcoming broadcasts, with no
// fixture data. Each entry becomes a match keyed by its video id, grouped
// under a single competition.

// FlatCompetition names the competition that flat documents are grouped under.
const FlatCompetition = "County Cricket Streams"

type flatDocument struct {
	LastUpdated     string       `json:"lastUpdated"`
	LiveStreams     []flatStream `json:"liveStreams"`
	UpcomingMatches []flatStream `json:"upcomingMatches"`
}

type flatStream struct {
	VideoID            string `json:"videoId"`
	Title              string `json:"title"`
	ChannelName        string `json:"channelName"`
	ChannelID          string `json:"channelId"`
	Description        string `json:"description"`
	PublishedAt        string `json:"publishedAt"`
	ScheduledStartTime string `json:"scheduledStartTime"`
}

func parseFlat(data []byte) (Document, error) {
	var raw flatDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("feed flat: %w", err)
	}
	generated, err := ParseTime(raw.LastUpdated)
	if err != nil {
		return Document{}, fmt.Errorf("feed flat: lastUpdated: %w", err)
	}
	cf := CompetitionFeed{Name: FlatCompetition, Matches: make([]matches.Match, 0, len(raw.LiveStreams)+len(raw.UpcomingMatches))}
	for _, s := range raw.LiveStreams {
		m, err := s.toMatch(s.PublishedAt, true)
		if err != nil {
			return Document{}, err
		}
		cf.Matches = append(cf.Matches, m)
	}
	for _, s := range raw.UpcomingMatches {
		m, err := s.toMatch(s.ScheduledStartTime, false)
		if err != nil {
			return Document{}, err
		}
		cf.Matches = append(cf.Matches, m)
	}
	return Document{GeneratedAt: generated, Competitions: []CompetitionFeed{cf}}, nil
}

func (s flatStream) toMatch(rawStart string, live bool) (matches.Match, error) {
	if s.VideoID == "" {
		return matches.Match{}, fmt.Errorf("feed flat: stream %q has no videoId", s.Title)
	}
	start, err := ParseTime(rawStart)
	if err != nil {
		return matches.Match{}, fmt.Errorf("feed flat: stream %s: start time: %w", s.VideoID, err)
	}
	stream := &matches.Stream{Title: s.Title, ChannelID: s.ChannelID, Description: s.Description}
	if live {
		stream.VideoID = s.VideoID
	}
	return matches.Match{
		ID:          s.VideoID,
		Competition: FlatCompetition,
		HomeTeam:    s.ChannelName,
		StartTime:   start,
		Stream:      stream,
	}, nil
}
