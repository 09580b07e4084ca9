package artifacts

import (
	"fmt"
	"path/filepath"
)

const (
	// FeedFile is the feed artifact consumed by the dashboard and the score generator.
	FeedFile = "streams.json"
	// ScoresFile is the consolidated score artifact.
	ScoresFile   = "scores.json"
	fixturesDir  = "fixtures"
	manifestFile = "manifest.json"
)

// DataDir returns the artifact directory under a public directory.
func DataDir(publicDir string) string {
	return filepath.Join(publicDir, "data")
}

// FixturePath builds the path to the fixtures of a given date.
func FixturePath(basePath, date string) string {
	return filepath.Join(basePath, fixturesDir, fmt.Sprintf("%s.json", date))
}
