package artifacts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Manifest tracks which fixture days are on disk.
type Manifest struct {
	Version     int          `json:"version"`
	GeneratedAt time.Time    `json:"generatedAt"`
	Retention   Retention    `json:"retention"`
	Fixtures    FixturesMeta `json:"fixtures"`
}

type Retention struct {
	FixtureDays int `json:"fixtureDays"`
}

type FixturesMeta struct {
	Dates         []string  `json:"dates"`
	LastRefreshed time.Time `json:"lastRefreshed"`
}

func defaultManifest(retentionDays int) Manifest {
	return Manifest{
		Version: 1,
		Retention: Retention{
			FixtureDays: retentionDays,
		},
		Fixtures: FixturesMeta{
			Dates: []string{},
		},
	}
}

func manifestPath(basePath string) string {
	return filepath.Join(basePath, fixturesDir, manifestFile)
}

func readManifest(path string, retentionDays int) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return defaultManifest(retentionDays), err
	}
	defer f.Close()
	var m Manifest
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return defaultManifest(retentionDays), err
	}
	return m, nil
}

func writeManifest(basePath string, m Manifest, now time.Time) error {
	m.GeneratedAt = now.UTC()
	path := manifestPath(basePath)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	_, err = writeAtomic(path, data)
	return err
}
