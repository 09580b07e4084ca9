package matches

import "time"

// Innings captures one innings of a cricket score.
type Innings struct {
	Innings string  `json:"innings"`
	Runs    int     `json:"runs"`
	Wickets int     `json:"wickets"`
	Overs   float64 `json:"overs"`
}

// Stream describes the embedded live stream attached to a match.
type Stream struct {
	VideoID     string `json:"videoId,omitempty"`
	Title       string `json:"title,omitempty"`
	ChannelID   string `json:"channelId,omitempty"`
	Description string `json:"description,omitempty"`
}

// Match is the canonical match shape shared by the feed, the poller and the generator.
type Match struct {
	ID          string    `json:"id"`
	Competition string    `json:"competition"`
	HomeTeam    string    `json:"homeTeam"`
	AwayTeam    string    `json:"awayTeam"`
	Venue       string    `json:"venue"`
	StartTime   time.Time `json:"startTime"`
	Status      string    `json:"status"`
	Innings     []Innings `json:"innings,omitempty"`
	Stream      *Stream   `json:"stream,omitempty"`
	Ended       bool      `json:"ended"`
}

// IsLive reports whether the match carries a live stream video id.
func (m Match) IsLive() bool {
	return m.Stream != nil && m.Stream.VideoID != ""
}

// VideoID returns the stream video id or an empty string.
func (m Match) VideoID() string {
	if m.Stream == nil {
		return ""
	}
	return m.Stream.VideoID
}

// Competition groups the live and upcoming matches of a single competition.
type Competition struct {
	Name     string  `json:"name"`
	Live     []Match `json:"live"`
	Upcoming []Match `json:"upcoming"`
}

// ViewModel maps competition names to their matches.
type ViewModel struct {
	GeneratedAt  time.Time              `json:"generatedAt"`
	Competitions map[string]Competition `json:"competitions"`
}

// NewViewModel returns an empty view model.
func NewViewModel() ViewModel {
	return ViewModel{Competitions: make(map[string]Competition)}
}

// LiveMatches returns every live match across competitions, ordered by competition name.
func (vm ViewModel) LiveMatches() []Match {
	var out []Match
	for _, name := range vm.CompetitionNames() {
		out = append(out, vm.Competitions[name].Live...)
	}
	return out
}

// MatchCount returns the total number of matches in the view model.
func (vm ViewModel) MatchCount() int {
	total := 0
	for _, c := range vm.Competitions {
		total += len(c.Live) + len(c.Upcoming)
	}
	return total
}

// ScoreRecord is the per-match entry written by the score generator.
type ScoreRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	Status       string    `json:"status"`
	MatchStarted bool      `json:"matchStarted"`
	MatchEnded   bool      `json:"matchEnded"`
	Innings      []Innings `json:"innings,omitempty"`
}

// ScoreArtifact is the consolidated score document.
type ScoreArtifact struct {
	LastUpdated time.Time              `json:"lastUpdated"`
	Scores      map[string]ScoreRecord `json:"scores"`
}

// Fixture is a scheduled match pulled from the upstream series listing.
type Fixture struct {
	MatchID      string    `json:"match_id"`
	Competition  string    `json:"competition"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	Venue        string    `json:"venue"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	StartTimeGMT string    `json:"start_time_gmt"`
	Start        time.Time `json:"-"`
	Day          string    `json:"day,omitempty"`
	ChannelID    string    `json:"channel_id,omitempty"`
}

// Channel maps a county to its streaming channel.
type Channel struct {
	Name      string   `json:"name"`
	ChannelID string   `json:"youtubeChannelId"`
	Nicknames []string `json:"nicknames,omitempty"`
}

// Broadcast is a live or scheduled video on a county's channel.
type Broadcast struct {
	VideoID        string
	Title          string
	ChannelID      string
	Description    string
	PublishedAt    time.Time
	ScheduledStart time.Time
	Live           bool
}

// Stream converts the broadcast into a match stream. Only a live broadcast
// keeps its video id.
func (b Broadcast) Stream() *Stream {
	s := &Stream{Title: b.Title, ChannelID: b.ChannelID, Description: b.Description}
	if b.Live {
		s.VideoID = b.VideoID
	}
	return s
}
