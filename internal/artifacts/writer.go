package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/feed"
	"countycricket-live/internal/timeutil"
)

// Writer persists JSON artifacts atomically and keeps the fixtures manifest pruned.
type Writer struct {
	basePath      string
	retentionDays int
	now           func() time.Time
}

// NewWriter constructs a writer rooted at basePath. Fixture days older than
// retentionDays are pruned whenever a new day is written.
func NewWriter(basePath string, retentionDays int) *Writer {
	if retentionDays <= 0 {
		retentionDays = 14
	}
	return &Writer{
		basePath:      basePath,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// BasePath exposes the writer root path.
func (w *Writer) BasePath() string {
	if w == nil {
		return ""
	}
	return w.basePath
}

// WriteJSON renders payload and replaces name under the base path. Identical
// content is left untouched and reported as unchanged.
func (w *Writer) WriteJSON(name string, payload any) (bool, error) {
	if w == nil {
		return false, fmt.Errorf("artifact writer not configured")
	}
	if name == "" {
		return false, fmt.Errorf("artifact name required")
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return false, err
	}
	return writeAtomic(filepath.Join(w.basePath, name), data)
}

// WriteScores writes the consolidated score artifact.
func (w *Writer) WriteScores(artifact matches.ScoreArtifact) (bool, error) {
	if artifact.Scores == nil {
		artifact.Scores = map[string]matches.ScoreRecord{}
	}
	return w.WriteJSON(ScoresFile, artifact)
}

// WriteFeed renders doc in the current feed version and replaces the feed artifact.
func (w *Writer) WriteFeed(doc feed.Document) (bool, error) {
	if w == nil {
		return false, fmt.Errorf("artifact writer not configured")
	}
	data, err := feed.Encode(doc)
	if err != nil {
		return false, err
	}
	return writeAtomic(filepath.Join(w.basePath, FeedFile), data)
}

// WriteFixtureDay writes the fixtures of one date (YYYY-MM-DD) and refreshes the manifest.
func (w *Writer) WriteFixtureDay(date string, fixtures []matches.Fixture) error {
	if date == "" {
		return fmt.Errorf("date required")
	}
	if _, err := timeutil.ParseDate(date); err != nil {
		return fmt.Errorf("fixture date %q: %w", date, err)
	}
	if fixtures == nil {
		fixtures = []matches.Fixture{}
	}
	sort.SliceStable(fixtures, func(i, j int) bool {
		return fixtures[i].StartTimeGMT < fixtures[j].StartTimeGMT
	})
	if _, err := w.WriteJSON(filepath.Join(fixturesDir, date+".json"), fixtures); err != nil {
		return err
	}
	return w.updateManifest(date)
}

func writeAtomic(target string, data []byte) (bool, error) {
	if existing, err := os.ReadFile(target); err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return false, err
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return false, err
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return false, err
	}
	return true, nil
}

func (w *Writer) updateManifest(date string) error {
	m, _ := readManifest(manifestPath(w.basePath), w.retentionDays)
	now := w.now().UTC()

	dates, err := w.listDates()
	if err != nil {
		return err
	}
	if !containsDate(dates, date) {
		dates = append(dates, date)
	}
	m.Fixtures.Dates = w.pruneOldFixtures(dates, now)
	m.Fixtures.LastRefreshed = now
	m.Retention.FixtureDays = w.retentionDays

	return writeManifest(w.basePath, m, now)
}

func containsDate(dates []string, date string) bool {
	for _, d := range dates {
		if d == date {
			return true
		}
	}
	return false
}

func (w *Writer) listDates() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(w.basePath, fixturesDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" || name == manifestFile {
			continue
		}
		dates = append(dates, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(dates)
	return dates, nil
}

func (w *Writer) pruneOldFixtures(dates []string, now time.Time) []string {
	cutoff := timeutil.Today(now, time.UTC).AddDate(0, 0, -w.retentionDays)
	keep := []string{}
	for _, d := range dates {
		parsed, err := timeutil.ParseDate(d)
		if err != nil {
			continue
		}
		if parsed.Before(cutoff) {
			_ = os.Remove(FixturePath(w.basePath, d))
			continue
		}
		keep = append(keep, d)
	}
	sort.Strings(keep)
	return keep
}
