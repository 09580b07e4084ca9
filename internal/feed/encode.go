package feed

import (
	"encoding/json"
	"time"

	"countycricket-live/internal/domain/matches"
)

// Encode renders a document in the current feed version.
func Encode(doc Document) ([]byte, error) {
	out := struct {
		Version      int                      `json:"version"`
		LastUpdated  string                   `json:"lastUpdated"`
		Competitions map[string]v2Competition `json:"competitions"`
	}{
		Version:      CurrentVersion,
		LastUpdated:  doc.GeneratedAt.UTC().Format(time.RFC3339),
		Competitions: make(map[string]v2Competition, len(doc.Competitions)),
	}
	for _, c := range doc.Competitions {
		rc := v2Competition{Name: c.Name, Matches: make([]v2Match, 0, len(c.Matches))}
		for _, m := range c.Matches {
			rc.Matches = append(rc.Matches, fromMatch(m))
		}
		out.Competitions[c.Name] = rc
	}
	return json.MarshalIndent(out, "", "  ")
}

func fromMatch(m matches.Match) v2Match {
	ended := m.Ended
	rm := v2Match{
		ID:         m.ID,
		Venue:      m.Venue,
		HomeTeam:   m.HomeTeam,
		AwayTeam:   m.AwayTeam,
		Status:     m.Status,
		MatchEnded: &ended,
	}
	if !m.StartTime.IsZero() {
		rm.StartTime = m.StartTime.UTC().Format(time.RFC3339)
	}
	if len(m.Innings) > 0 {
		rm.Scores = &v2Scores{Innings: m.Innings}
	}
	if m.Stream != nil {
		rm.Stream = &v2Stream{
			VideoID:     m.Stream.VideoID,
			Title:       m.Stream.Title,
			ChannelID:   m.Stream.ChannelID,
			Description: m.Stream.Description,
		}
	}
	return rm
}
