package testutil

import (
	"time"

	"countycricket-live/internal/domain/matches"
)

// LiveFeedJSON is a version 2 feed with one live match (video abc123) and one upcoming match.
const LiveFeedJSON = `{
  "version": 2,
  "lastUpdated": "2024-05-01T09:00:00Z",
  "competitions": {
    "County Championship Division One": {
      "name": "County Championship Division One",
      "matches": [
        {"id": "m-live", "homeTeam": "Essex", "awayTeam": "Kent", "venue": "Chelmsford",
         "startTime": "2024-05-01T10:00:00Z", "status": "Essex opt to bat",
         "stream": {"videoId": "abc123", "title": "Essex v Kent", "channelId": "chan-essex"}},
        {"id": "m-next", "homeTeam": "Surrey", "awayTeam": "Durham", "venue": "The Oval",
         "startTime": "2024-05-02T10:30:00Z", "status": "Match not started"}
      ]
    }
  }
}`

// SampleMatch returns a match fixture; a non-empty videoID makes it live.
func SampleMatch(id, videoID string) matches.Match {
	m := matches.Match{
		ID:          id,
		Competition: "County Championship Division One",
		HomeTeam:    "Home " + id,
		AwayTeam:    "Away " + id,
		Venue:       "Ground",
		StartTime:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Status:      "Match not started",
	}
	if videoID != "" {
		m.Stream = &matches.Stream{VideoID: videoID, Title: m.HomeTeam + " v " + m.AwayTeam}
	}
	return m
}

// SampleViewModel builds a single-competition view model with one live match per video id.
func SampleViewModel(videoIDs ...string) matches.ViewModel {
	vm := matches.NewViewModel()
	comp := matches.Competition{Name: "County Championship Division One", Live: []matches.Match{}, Upcoming: []matches.Match{}}
	for _, id := range videoIDs {
		comp.Live = append(comp.Live, SampleMatch("m-"+id, id))
	}
	comp.Upcoming = append(comp.Upcoming, SampleMatch("m-upcoming", ""))
	vm.Competitions[comp.Name] = comp
	return vm
}
