package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/feed"
)

// FSStore loads artifacts from the filesystem.
type FSStore struct {
	basePath string
}

// NewFSStore constructs an FS-backed artifact store rooted at basePath.
func NewFSStore(basePath string) *FSStore {
	return &FSStore{basePath: basePath}
}

// LoadFeed reads and parses the feed artifact.
func (s *FSStore) LoadFeed() (feed.Document, error) {
	data, err := s.read(FeedFile)
	if err != nil {
		return feed.Document{}, err
	}
	doc, err := feed.Parse(data)
	if err != nil {
		return feed.Document{}, fmt.Errorf("%s: %w", FeedFile, err)
	}
	return doc, nil
}

// LoadScores reads the consolidated score artifact.
func (s *FSStore) LoadScores() (matches.ScoreArtifact, error) {
	var artifact matches.ScoreArtifact
	if err := s.decode(ScoresFile, &artifact); err != nil {
		return matches.ScoreArtifact{}, err
	}
	return artifact, nil
}

// LoadFixtures reads the fixtures written for date (YYYY-MM-DD).
func (s *FSStore) LoadFixtures(date string) ([]matches.Fixture, error) {
	if date == "" {
		return nil, errors.New("fixture date required")
	}
	var out []matches.Fixture
	if err := s.decode(filepath.Join(fixturesDir, date+".json"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadManifest reads the fixtures manifest.
func (s *FSStore) LoadManifest() (Manifest, error) {
	if s == nil {
		return Manifest{}, errors.New("artifact store not configured")
	}
	return readManifest(manifestPath(s.basePath), 0)
}

func (s *FSStore) read(name string) ([]byte, error) {
	if s == nil {
		return nil, errors.New("artifact store not configured")
	}
	return os.ReadFile(filepath.Join(s.basePath, name))
}

func (s *FSStore) decode(name string, payload any) error {
	data, err := s.read(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, payload); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
