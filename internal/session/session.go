package session

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/prefs"
)

// Session owns the dashboard state shared by the poller, the reconciler and
// the HTTP surface: the autoplay preference, the current view model with its
// error flag, and the player handles.
type Session struct {
	mu       sync.RWMutex
	store    prefs.Store
	autoplay bool

	view     matches.ViewModel
	hasView  bool
	feedErr  string
	failedAt time.Time

	handles map[string]*Handle
}

// Snapshot is a consistent copy of the view state.
type Snapshot struct {
	ViewModel matches.ViewModel
	HasData   bool
	Error     bool
	ErrorText string
	FailedAt  time.Time
	Autoplay  bool
}

// New builds a session, restoring the autoplay preference from store.
// A missing or unreadable preference means autoplay is off.
func New(store prefs.Store) *Session {
	if store == nil {
		store = prefs.NewMemoryStore()
	}
	s := &Session{
		store:   store,
		view:    matches.NewViewModel(),
		handles: make(map[string]*Handle),
	}
	if raw, ok := store.Get(prefs.AutoplayKey); ok {
		if enabled, err := strconv.ParseBool(raw); err == nil {
			s.autoplay = enabled
		}
	}
	return s
}

// Autoplay reports the current autoplay preference.
func (s *Session) Autoplay() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoplay
}

// SetAutoplay updates the preference and persists it. The in-memory value
// changes even when persistence fails; the error is returned for reporting.
func (s *Session) SetAutoplay(enabled bool) error {
	s.mu.Lock()
	s.autoplay = enabled
	s.mu.Unlock()
	if err := s.store.Set(prefs.AutoplayKey, strconv.FormatBool(enabled)); err != nil {
		return fmt.Errorf("persist autoplay preference: %w", err)
	}
	return nil
}

// ToggleAutoplay flips the preference and returns the new value.
func (s *Session) ToggleAutoplay() (bool, error) {
	s.mu.Lock()
	enabled := !s.autoplay
	s.autoplay = enabled
	s.mu.Unlock()
	if err := s.store.Set(prefs.AutoplayKey, strconv.FormatBool(enabled)); err != nil {
		return enabled, fmt.Errorf("persist autoplay preference: %w", err)
	}
	return enabled, nil
}

// SetViewModel replaces the view model and clears the error flag.
func (s *Session) SetViewModel(vm matches.ViewModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = vm
	s.hasView = true
	s.feedErr = ""
	s.failedAt = time.Time{}
}

// SetError raises the error flag and keeps the current view model.
func (s *Session) SetError(err error, at time.Time) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedErr = err.Error()
	s.failedAt = at
}

// ViewModel returns the current view model and whether one was ever loaded.
func (s *Session) ViewModel() (matches.ViewModel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view, s.hasView
}

// Snapshot returns the view state under a single lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ViewModel: s.view,
		HasData:   s.hasView,
		Error:     s.feedErr != "",
		ErrorText: s.feedErr,
		FailedAt:  s.failedAt,
		Autoplay:  s.autoplay,
	}
}

// AddHandle registers a new pending handle. It returns false and leaves the
// existing handle untouched when one is already known for videoID.
func (s *Session) AddHandle(videoID, target string, w Widget, now time.Time) (Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.handles[videoID]; ok {
		return *existing, false
	}
	h := &Handle{VideoID: videoID, Target: target, State: Pending, CreatedAt: now, widget: w}
	s.handles[videoID] = h
	return *h, true
}

// HasHandle reports whether a handle exists for videoID.
func (s *Session) HasHandle(videoID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.handles[videoID]
	return ok
}

// Handle returns a copy of the handle for videoID.
func (s *Session) Handle(videoID string) (Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handles[videoID]
	if !ok {
		return Handle{}, false
	}
	return *h, true
}

// MarkReady moves a pending handle to Ready. The second result is true only
// for the call that performed the transition.
func (s *Session) MarkReady(videoID string) (Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[videoID]
	if !ok {
		return Handle{}, false
	}
	if h.State == Ready {
		return *h, false
	}
	h.State = Ready
	return *h, true
}

// SetPlayback records the last applied playback state for a handle.
func (s *Session) SetPlayback(videoID string, playing, muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.handles[videoID]; ok {
		h.Playing = playing
		h.Muted = muted
	}
}

// Handles returns copies of all handles ordered by video id.
func (s *Session) Handles() []Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Handle, 0, len(s.handles))
	for _, h := range s.handles {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VideoID < out[j].VideoID })
	return out
}

// ReadyHandles returns copies of the Ready handles ordered by video id.
func (s *Session) ReadyHandles() []Handle {
	all := s.Handles()
	ready := all[:0]
	for _, h := range all {
		if h.IsReady() {
			ready = append(ready, h)
		}
	}
	return ready
}
