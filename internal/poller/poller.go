package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/feed"
	"countycricket-live/internal/logging"
	"countycricket-live/internal/metrics"
)

const defaultInterval = 2 * time.Minute

// ErrStale is returned by Refresh when a newer refresh already applied its result.
var ErrStale = errors.New("poller: stale response dropped")

// FeedSource loads the current feed document.
type FeedSource interface {
	FetchFeed(ctx context.Context) (feed.Document, error)
}

// ScoreSource loads the consolidated score artifact.
type ScoreSource interface {
	FetchScores(ctx context.Context) (matches.ScoreArtifact, error)
}

// ViewSink receives the outcome of each applied refresh.
type ViewSink interface {
	SetViewModel(vm matches.ViewModel)
	SetError(err error, at time.Time)
}

// Listener is notified with the view model produced by a successful refresh.
type Listener func(vm matches.ViewModel)

// Poller refreshes the feed on an interval and publishes the resulting view model.
type Poller struct {
	source    FeedSource
	scores    ScoreSource
	sink      ViewSink
	logger    *slog.Logger
	metrics   *metrics.Recorder
	interval  time.Duration
	now       func() time.Time
	listeners []Listener

	seqMu       sync.Mutex
	issued      uint64
	inflightSeq uint64
	cancel      context.CancelFunc

	applyMu sync.Mutex
	applied uint64

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool

	statusMu sync.RWMutex
	status   Status
}

// Status describes the recent health of the poller loop.
type Status struct {
	ConsecutiveFailures int
	LastError           string
	LastAttempt         time.Time
	LastSuccess         time.Time
	Sequence            uint64
}

// IsReady reports whether the poller has had a recent success and is not failing repeatedly.
func (s Status) IsReady() bool {
	if s.LastSuccess.IsZero() {
		return false
	}
	return s.ConsecutiveFailures < 3
}

// Option customises a Poller.
type Option func(*Poller)

// WithScores overlays the score artifact onto each fetched feed.
func WithScores(src ScoreSource) Option {
	return func(p *Poller) { p.scores = src }
}

// WithListener registers a callback for successful refreshes.
func WithListener(l Listener) Option {
	return func(p *Poller) {
		if l != nil {
			p.listeners = append(p.listeners, l)
		}
	}
}

// New constructs a Poller with sane defaults.
func New(source FeedSource, sink ViewSink, logger *slog.Logger, recorder *metrics.Recorder, interval time.Duration, opts ...Option) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	p := &Poller{
		source:   source,
		sink:     sink,
		logger:   logger,
		metrics:  recorder,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling until the context is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	p.startMu.Lock()
	if p.started {
		p.startMu.Unlock()
		return
	}
	p.started = true
	p.startMu.Unlock()

	p.ticker = time.NewTicker(p.interval)

	go func() {
		p.logInfo("poller started", slog.Int64(logging.FieldDurationMS, p.interval.Milliseconds()))
		// Initial fetch so the dashboard has data on boot.
		_ = p.Refresh(ctx)

		for {
			select {
			case <-ctx.Done():
				p.stopTicker()
				p.logInfo("poller stopped")
				return
			case <-p.done:
				p.stopTicker()
				p.logInfo("poller stopped")
				return
			case <-p.ticker.C:
				_ = p.Refresh(ctx)
			}
		}
	}()
}

// Stop halts the polling loop and aborts any in-flight refresh.
func (p *Poller) Stop(ctx context.Context) error {
	_ = ctx
	p.stopOnce.Do(func() {
		close(p.done)
		p.stopTicker()
		p.seqMu.Lock()
		if p.cancel != nil {
			p.cancel()
			p.cancel = nil
		}
		p.seqMu.Unlock()
	})
	return nil
}

// Refresh fetches the feed once. Starting a refresh aborts the previous
// in-flight one. A result is applied only if no newer refresh has applied
// first; a failure keeps the current view model and raises the error flag.
// A refresh whose own ctx ends first returns ctx.Err() and records nothing.
func (p *Poller) Refresh(ctx context.Context) error {
	seq, rctx, release := p.begin(ctx)
	defer release()

	start := p.now()
	p.recordAttempt(start)

	vm, err := p.load(rctx)
	if err != nil && ctx.Err() != nil {
		// The caller gave up; that says nothing about the feed.
		p.logDebug("feed refresh abandoned by caller", logging.FieldSequence, seq, logging.FieldError, ctx.Err())
		return ctx.Err()
	}
	if p.metrics != nil {
		p.metrics.RecordPollerCycle(time.Since(start), err)
	}

	p.applyMu.Lock()
	defer p.applyMu.Unlock()
	if p.isStale(seq, err) {
		if p.metrics != nil {
			p.metrics.RecordStaleResponse()
		}
		p.logDebug("poller dropped stale response", logging.FieldSequence, seq)
		return ErrStale
	}
	p.applied = seq

	if err != nil {
		p.recordFailure(err, start)
		if p.sink != nil {
			p.sink.SetError(err, p.now())
		}
		p.logError("feed refresh failed", err,
			logging.FieldSequence, seq,
			logging.FieldDurationMS, time.Since(start).Milliseconds(),
		)
		return err
	}

	p.recordSuccess(start, seq)
	if p.sink != nil {
		p.sink.SetViewModel(vm)
	}
	for _, l := range p.listeners {
		l(vm)
	}
	p.logInfo("feed refreshed",
		logging.FieldSequence, seq,
		logging.FieldCount, vm.MatchCount(),
		logging.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return nil
}

// begin issues the next sequence number and cancels the previous in-flight refresh.
func (p *Poller) begin(ctx context.Context) (uint64, context.Context, func()) {
	p.seqMu.Lock()
	defer p.seqMu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	p.issued++
	seq := p.issued
	rctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.inflightSeq = seq
	return seq, rctx, func() {
		p.seqMu.Lock()
		if p.inflightSeq == seq {
			p.cancel = nil
		}
		p.seqMu.Unlock()
		cancel()
	}
}

// isStale must be called with applyMu held. Results older than the last
// applied one are dropped, as are failures of a refresh that was superseded.
func (p *Poller) isStale(seq uint64, err error) bool {
	if seq <= p.applied {
		return true
	}
	if err == nil {
		return false
	}
	p.seqMu.Lock()
	latest := p.issued
	p.seqMu.Unlock()
	return seq < latest
}

func (p *Poller) load(ctx context.Context) (matches.ViewModel, error) {
	if p.source == nil {
		return matches.ViewModel{}, errors.New("poller: feed source not configured")
	}
	doc, err := p.source.FetchFeed(ctx)
	if err != nil {
		return matches.ViewModel{}, err
	}
	if p.scores != nil {
		artifact, scoreErr := p.scores.FetchScores(ctx)
		if scoreErr != nil {
			p.logWarn("score overlay unavailable", scoreErr)
		} else {
			doc = doc.ApplyScores(artifact)
		}
	}
	return feed.BuildViewModel(doc), nil
}

func (p *Poller) stopTicker() {
	if p.ticker != nil {
		p.ticker.Stop()
	}
}

func (p *Poller) logInfo(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Poller) logDebug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Poller) logWarn(msg string, err error, attrs ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, append(attrs, logging.FieldError, err)...)
	}
}

func (p *Poller) logError(msg string, err error, attrs ...any) {
	if p.logger != nil {
		p.logger.Error(msg, append(attrs, logging.FieldError, err)...)
	}
}

func (p *Poller) recordAttempt(at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.LastAttempt = at
}

func (p *Poller) recordSuccess(at time.Time, seq uint64) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.ConsecutiveFailures = 0
	p.status.LastError = ""
	p.status.LastSuccess = at
	p.status.Sequence = seq
}

func (p *Poller) recordFailure(err error, at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.ConsecutiveFailures++
	if err != nil {
		p.status.LastError = err.Error()
	}
	p.status.LastAttempt = at
}

// Status returns a snapshot of the poller's recent health.
func (p *Poller) Status() Status {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.status
}
