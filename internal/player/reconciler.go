package player

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/logging"
	"countycricket-live/internal/metrics"
	"countycricket-live/internal/session"
)

const (
	defaultDebounce  = 500 * time.Millisecond
	defaultMuteDelay = 250 * time.Millisecond
)

// Config tunes reconciler timing. Zero values fall back to defaults; negative
// values disable the delay.
type Config struct {
	Debounce  time.Duration
	MuteDelay time.Duration
}

// Reconciler keeps exactly one player per live video id and applies the
// autoplay policy to players once they are ready.
type Reconciler struct {
	session   *session.Session
	factory   WidgetFactory
	logger    *slog.Logger
	metrics   *metrics.Recorder
	debounce  time.Duration
	muteDelay time.Duration
	now       func() time.Time

	reconcileMu sync.Mutex

	// policyMu orders readiness against toggles so a player never misses
	// the preference in force when it became ready.
	policyMu sync.Mutex

	timerMu sync.Mutex
	timer   *time.Timer
	pending matches.ViewModel

	delayed sync.WaitGroup
}

// New constructs a Reconciler.
func New(sess *session.Session, factory WidgetFactory, logger *slog.Logger, recorder *metrics.Recorder, cfg Config) *Reconciler {
	return &Reconciler{
		session:   sess,
		factory:   factory,
		logger:    logger,
		metrics:   recorder,
		debounce:  resolveDelay(cfg.Debounce, defaultDebounce),
		muteDelay: resolveDelay(cfg.MuteDelay, defaultMuteDelay),
		now:       time.Now,
	}
}

func resolveDelay(d, fallback time.Duration) time.Duration {
	switch {
	case d == 0:
		return fallback
	case d < 0:
		return 0
	default:
		return d
	}
}

// Schedule reconciles vm after the debounce window. A later call within the
// window replaces vm and restarts the window.
func (r *Reconciler) Schedule(vm matches.ViewModel) {
	if r.debounce <= 0 {
		r.Reconcile(vm)
		return
	}
	r.timerMu.Lock()
	defer r.timerMu.Unlock()
	r.pending = vm
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, r.fire)
}

func (r *Reconciler) fire() {
	r.timerMu.Lock()
	vm := r.pending
	r.timer = nil
	r.timerMu.Unlock()
	r.Reconcile(vm)
}

// Reconcile creates a pending player for every live video id without one.
// Existing players are never recreated or destroyed. It returns the number
// of players created.
func (r *Reconciler) Reconcile(vm matches.ViewModel) int {
	r.reconcileMu.Lock()
	defer r.reconcileMu.Unlock()

	created := 0
	for _, m := range vm.LiveMatches() {
		videoID := m.VideoID()
		if r.session.HasHandle(videoID) {
			continue
		}
		target := TargetFor(videoID)
		w, err := r.factory.Create(target, videoID)
		if err == nil && w == nil {
			err = errors.New("factory returned no widget")
		}
		if err != nil {
			r.widgetError("create", videoID, err)
			continue
		}
		if _, ok := r.session.AddHandle(videoID, target, w, r.now()); ok {
			created++
			r.logDebug("player created", logging.FieldVideoID, videoID, logging.FieldMatchID, m.ID)
		}
	}
	if r.metrics != nil {
		r.metrics.RecordReconcile(created)
	}
	if created > 0 {
		r.logInfo("players reconciled", logging.FieldCount, created)
	}
	return created
}

// MarkReady records that the player for videoID can accept commands and
// applies the current autoplay preference to it. Repeated signals are ignored.
func (r *Reconciler) MarkReady(videoID string) error {
	r.policyMu.Lock()
	defer r.policyMu.Unlock()
	h, transitioned := r.session.MarkReady(videoID)
	if !transitioned {
		if !r.session.HasHandle(videoID) {
			return fmt.Errorf("%w: %s", ErrUnknownPlayer, videoID)
		}
		return nil
	}
	if r.session.Autoplay() {
		r.start(h)
	}
	return nil
}

// ToggleAutoplay flips and persists the preference, then applies it to every
// ready player. A failing player is logged and skipped. The returned error
// only reports a persistence failure; the new preference is applied anyway.
func (r *Reconciler) ToggleAutoplay() (bool, error) {
	r.policyMu.Lock()
	defer r.policyMu.Unlock()
	enabled, err := r.session.ToggleAutoplay()
	if err != nil {
		r.logWarn("autoplay preference not persisted", err)
	}
	ready := r.session.ReadyHandles()
	for _, h := range ready {
		if enabled {
			r.start(h)
		} else {
			r.stop(h)
		}
	}
	r.logInfo("autoplay toggled", logging.FieldAutoplay, enabled, logging.FieldCount, len(ready))
	return enabled, err
}

// Close cancels a pending debounce and waits for delayed mutes.
func (r *Reconciler) Close() {
	r.timerMu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.timerMu.Unlock()
	r.delayed.Wait()
}

// start plays the widget and mutes it after the mute delay.
func (r *Reconciler) start(h session.Handle) {
	w := h.Widget()
	if !r.call("play", h.VideoID, w.Play) {
		return
	}
	r.session.SetPlayback(h.VideoID, true, false)
	if r.muteDelay <= 0 {
		r.mute(h)
		return
	}
	r.delayed.Add(1)
	time.AfterFunc(r.muteDelay, func() {
		defer r.delayed.Done()
		r.policyMu.Lock()
		defer r.policyMu.Unlock()
		// Autoplay may have been switched off during the delay.
		if r.session.Autoplay() {
			r.mute(h)
		}
	})
}

func (r *Reconciler) mute(h session.Handle) {
	if r.call("mute", h.VideoID, h.Widget().Mute) {
		r.session.SetPlayback(h.VideoID, true, true)
	}
}

// stop unmutes then pauses the widget.
func (r *Reconciler) stop(h session.Handle) {
	w := h.Widget()
	unmuted := r.call("unmute", h.VideoID, w.Unmute)
	paused := r.call("pause", h.VideoID, w.Pause)
	if unmuted && paused {
		r.session.SetPlayback(h.VideoID, false, false)
	}
}

// call invokes one widget operation, containing errors and panics to that widget.
func (r *Reconciler) call(op, videoID string, fn func() error) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.widgetError(op, videoID, fmt.Errorf("panic: %v", rec))
			ok = false
		}
	}()
	if err := fn(); err != nil {
		r.widgetError(op, videoID, err)
		return false
	}
	return true
}

func (r *Reconciler) widgetError(op, videoID string, err error) {
	if r.metrics != nil {
		r.metrics.RecordWidgetError(op)
	}
	r.logWarn("player operation failed", err, logging.FieldOperation, op, logging.FieldVideoID, videoID)
}

func (r *Reconciler) logInfo(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Reconciler) logDebug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func (r *Reconciler) logWarn(msg string, err error, attrs ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, append(attrs, logging.FieldError, err)...)
	}
}
