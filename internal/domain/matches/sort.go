package matches

import (
	"sort"
	"strings"
)

// SortMatches orders matches in place: non-ended first, ended last, each group by home team.
func SortMatches(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Ended != ms[j].Ended {
			return !ms[i].Ended
		}
		return strings.ToLower(ms[i].HomeTeam) < strings.ToLower(ms[j].HomeTeam)
	})
}

// CompetitionNames returns the competition names in lexical order.
func (vm ViewModel) CompetitionNames() []string {
	names := make([]string, 0, len(vm.Competitions))
	for name := range vm.Competitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
