// Package scores builds the consolidated score artifact from the feed artifact.
package scores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"countycricket-live/internal/artifacts"
	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/feed"
	"countycricket-live/internal/logging"
	"countycricket-live/internal/metrics"
	"countycricket-live/internal/providers"
)

const defaultConcurrency = 4

// FeedLoader reads the feed artifact.
type FeedLoader interface {
	LoadFeed() (feed.Document, error)
}

// ScoreWriter persists the consolidated artifact.
type ScoreWriter interface {
	WriteScores(artifact matches.ScoreArtifact) (bool, error)
}

// Result summarises one generator run.
type Result struct {
	Requested int
	Written   int
	Failed    int
	Changed   bool
}

// Generator looks up every match referenced by the feed and writes one score artifact.
type Generator struct {
	loader      FeedLoader
	provider    providers.ScoreProvider
	writer      ScoreWriter
	publisher   artifacts.Publisher
	logger      *slog.Logger
	metrics     *metrics.Recorder
	concurrency int
	now         func() time.Time
}

// Option customises a Generator.
type Option func(*Generator)

// WithConcurrency bounds the number of lookups in flight.
func WithConcurrency(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithPublisher uploads the artifact after it is written.
func WithPublisher(p artifacts.Publisher) Option {
	return func(g *Generator) { g.publisher = p }
}

// WithClock overrides the generation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// New constructs a generator.
func New(loader FeedLoader, provider providers.ScoreProvider, writer ScoreWriter, logger *slog.Logger, recorder *metrics.Recorder, opts ...Option) *Generator {
	g := &Generator{
		loader:      loader,
		provider:    provider,
		writer:      writer,
		logger:      logger,
		metrics:     recorder,
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run reads the feed, performs one lookup per distinct match id and writes the
// artifact. Failed lookups are logged and omitted. Only an unreadable feed, an
// unwritable artifact or a cancelled context return an error.
func (g *Generator) Run(ctx context.Context) (Result, error) {
	if g.loader == nil || g.writer == nil || g.provider == nil {
		return Result{}, errors.New("scores: generator not configured")
	}
	start := time.Now()

	doc, err := g.loader.LoadFeed()
	if err != nil {
		return Result{}, fmt.Errorf("read feed: %w", err)
	}
	ids := doc.MatchIDs()
	res := Result{Requested: len(ids)}

	records := g.lookup(ctx, ids)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	res.Written = len(records)
	res.Failed = len(ids) - len(records)

	artifact := matches.ScoreArtifact{
		LastUpdated: g.now().UTC(),
		Scores:      records,
	}
	changed, err := g.writer.WriteScores(artifact)
	if err != nil {
		return res, fmt.Errorf("write scores: %w", err)
	}
	res.Changed = changed

	g.publish(ctx, artifact)

	logging.Info(g.logger, "score artifact written",
		logging.FieldCount, res.Written,
		"failed", res.Failed,
		"changed", res.Changed,
		logging.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (g *Generator) lookup(ctx context.Context, ids []string) map[string]matches.ScoreRecord {
	var (
		mu      sync.Mutex
		records = make(map[string]matches.ScoreRecord, len(ids))
		group   errgroup.Group
	)
	group.SetLimit(g.concurrency)
	for _, id := range ids {
		group.Go(func() error {
			rec, err := g.provider.FetchMatch(ctx, id)
			if g.metrics != nil {
				g.metrics.RecordScoreLookup(err)
			}
			if err != nil {
				logging.Warn(g.logger, "score lookup failed",
					logging.FieldMatchID, id,
					logging.FieldError, err,
				)
				return nil
			}
			if rec.ID == "" {
				rec.ID = id
			}
			mu.Lock()
			records[id] = rec
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()
	return records
}

func (g *Generator) publish(ctx context.Context, artifact matches.ScoreArtifact) {
	if g.publisher == nil {
		return
	}
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err == nil {
		err = g.publisher.Publish(ctx, artifacts.ScoresFile, data)
	}
	if err != nil {
		logging.Warn(g.logger, "score artifact publish failed", logging.FieldError, err)
	}
}
