// Package channels resolves county team names to their streaming channels.
package channels

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"countycricket-live/internal/domain/matches"
)

// Directory holds the county channel list keyed by lower-cased alias.
type Directory struct {
	byAlias  map[string]matches.Channel
	aliases  []string
	channels []matches.Channel
}

// Load reads a channels file: a JSON object mapping county keys to channels.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]matches.Channel
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("channels %s: %w", path, err)
	}
	return New(raw), nil
}

// New builds a directory. Each channel is reachable by its key, its name and its nicknames.
func New(byKey map[string]matches.Channel) *Directory {
	d := &Directory{byAlias: make(map[string]matches.Channel)}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ch := byKey[k]
		if ch.ChannelID == "" {
			continue
		}
		d.channels = append(d.channels, ch)
		d.add(k, ch)
		d.add(ch.Name, ch)
		for _, n := range ch.Nicknames {
			d.add(n, ch)
		}
	}
	sort.Strings(d.aliases)
	return d
}

func (d *Directory) add(alias string, ch matches.Channel) {
	alias = strings.ToLower(strings.TrimSpace(alias))
	if alias == "" {
		return
	}
	if _, ok := d.byAlias[alias]; ok {
		return
	}
	d.byAlias[alias] = ch
	d.aliases = append(d.aliases, alias)
}

// Channels returns every listed channel in key order.
func (d *Directory) Channels() []matches.Channel {
	if d == nil {
		return nil
	}
	return append([]matches.Channel(nil), d.channels...)
}

// Len returns the number of distinct aliases.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.aliases)
}

// Lookup finds the channel for a team name. An exact alias wins; otherwise the
// closest alias containing the team name, then the longest alias contained in it.
func (d *Directory) Lookup(team string) (matches.Channel, bool) {
	if d == nil {
		return matches.Channel{}, false
	}
	q := strings.ToLower(strings.TrimSpace(team))
	if q == "" {
		return matches.Channel{}, false
	}
	if ch, ok := d.byAlias[q]; ok {
		return ch, true
	}
	if ranks := fuzzy.RankFind(q, d.aliases); len(ranks) > 0 {
		sort.Sort(ranks)
		return d.byAlias[ranks[0].Target], true
	}
	best := ""
	for _, alias := range d.aliases {
		if fuzzy.Match(alias, q) && len(alias) > len(best) {
			best = alias
		}
	}
	if best == "" {
		return matches.Channel{}, false
	}
	return d.byAlias[best], true
}
