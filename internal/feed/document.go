package feed

import (
	"time"

	"countycricket-live/internal/domain/matches"
)

// CurrentVersion is the feed version written by this repository.
const CurrentVersion = 2

// Document is the canonical, version-independent form of a feed artifact.
type Document struct {
	Version      int
	GeneratedAt  time.Time
	Competitions []CompetitionFeed
}

// CompetitionFeed is one competition and its raw match records.
type CompetitionFeed struct {
	Name    string
	Matches []matches.Match
}

// MatchIDs returns the distinct match ids referenced anywhere in the document, in first-seen order.
func (d Document) MatchIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, c := range d.Competitions {
		for _, m := range c.Matches {
			if m.ID == "" {
				continue
			}
			if _, ok := seen[m.ID]; ok {
				continue
			}
			seen[m.ID] = struct{}{}
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// MatchCount returns the number of match records in the document.
func (d Document) MatchCount() int {
	n := 0
	for _, c := range d.Competitions {
		n += len(c.Matches)
	}
	return n
}

// ApplyScores overlays status, innings and ended flags from a score artifact.
// Matches without a score record are left as they are.
func (d Document) ApplyScores(artifact matches.ScoreArtifact) Document {
	if len(artifact.Scores) == 0 {
		return d
	}
	out := Document{Version: d.Version, GeneratedAt: d.GeneratedAt}
	for _, c := range d.Competitions {
		cf := CompetitionFeed{Name: c.Name, Matches: make([]matches.Match, len(c.Matches))}
		for i, m := range c.Matches {
			if rec, ok := artifact.Scores[m.ID]; ok {
				if rec.Status != "" {
					m.Status = rec.Status
				}
				if len(rec.Innings) > 0 {
					m.Innings = append([]matches.Innings(nil), rec.Innings...)
				}
				m.Ended = m.Ended || rec.MatchEnded
			}
			cf.Matches[i] = m
		}
		out.Competitions = append(out.Competitions, cf)
	}
	return out
}

// BuildViewModel groups matches per competition into live and upcoming sets.
// A match is live when it carries a stream video id. Both sets are sorted with
// non-ended matches first, each group by home team.
func BuildViewModel(doc Document) matches.ViewModel {
	vm := matches.NewViewModel()
	vm.GeneratedAt = doc.GeneratedAt
	for _, c := range doc.Competitions {
		comp, ok := vm.Competitions[c.Name]
		if !ok {
			comp = matches.Competition{Name: c.Name, Live: []matches.Match{}, Upcoming: []matches.Match{}}
		}
		for _, m := range c.Matches {
			if m.Competition == "" {
				m.Competition = c.Name
			}
			if m.IsLive() {
				comp.Live = append(comp.Live, m)
			} else {
				comp.Upcoming = append(comp.Upcoming, m)
			}
		}
		vm.Competitions[c.Name] = comp
	}
	for name, comp := range vm.Competitions {
		matches.SortMatches(comp.Live)
		matches.SortMatches(comp.Upcoming)
		vm.Competitions[name] = comp
	}
	return vm
}
