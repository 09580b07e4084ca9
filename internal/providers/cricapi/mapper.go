package cricapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"countycricket-live/internal/domain/matches"
)

func mapMatch(m matchInfo) matches.ScoreRecord {
	rec := matches.ScoreRecord{
		ID:           m.ID,
		Name:         m.Name,
		Status:       strings.TrimSpace(m.Status),
		MatchStarted: m.MatchStarted,
		MatchEnded:   m.MatchEnded,
	}
	for _, s := range m.Score {
		rec.Innings = append(rec.Innings, matches.Innings{
			Innings: s.Inning,
			Runs:    s.Runs,
			Wickets: s.Wickets,
			Overs:   s.Overs,
		})
	}
	return rec
}

// mapFixture converts a series entry. Upstream times are GMT without a zone.
func mapFixture(m seriesMatch, competition string) (matches.Fixture, error) {
	if len(m.Teams) < 2 {
		return matches.Fixture{}, fmt.Errorf("match %s: expected two teams, got %d", m.ID, len(m.Teams))
	}
	raw := m.DateTimeGMT
	if raw == "" {
		raw = m.Date
	}
	start, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return matches.Fixture{}, fmt.Errorf("match %s: start time %q: %w", m.ID, raw, err)
	}
	start = start.UTC()
	end := start.AddDate(0, 0, matchDays(competition, m.MatchType)-1)
	return matches.Fixture{
		MatchID:      m.ID,
		Competition:  competition,
		HomeTeam:     strings.TrimSpace(m.Teams[0]),
		AwayTeam:     strings.TrimSpace(m.Teams[1]),
		Venue:        m.Venue,
		StartDate:    start.Format("2006-01-02"),
		EndDate:      end.Format("2006-01-02"),
		StartTimeGMT: start.Format("15:04"),
		Start:        start,
	}, nil
}

// matchDays is four for first-class fixtures and one otherwise.
func matchDays(competition, matchType string) int {
	if strings.EqualFold(matchType, "test") || strings.Contains(strings.ToLower(competition), "championship") {
		return fourDayMatchDays
	}
	return 1
}
