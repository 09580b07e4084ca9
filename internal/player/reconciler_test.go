package player

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"countycricket-live/internal/domain/matches"
	"countycricket-live/internal/metrics"
	"countycricket-live/internal/prefs"
	"countycricket-live/internal/session"
)

type fakeWidget struct {
	mu      sync.Mutex
	calls   []string
	fail    map[string]error
	panicOn string
}

func (w *fakeWidget) record(op string) error {
	if op == w.panicOn {
		panic("widget exploded")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, op)
	return w.fail[op]
}

func (w *fakeWidget) Play() error   { return w.record("play") }
func (w *fakeWidget) Pause() error  { return w.record("pause") }
func (w *fakeWidget) Mute() error   { return w.record("mute") }
func (w *fakeWidget) Unmute() error { return w.record("unmute") }

func (w *fakeWidget) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

type fakeFactory struct {
	mu      sync.Mutex
	widgets map[string]*fakeWidget
	targets map[string]string
	fail    map[string]error
	created int
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		widgets: make(map[string]*fakeWidget),
		targets: make(map[string]string),
		fail:    make(map[string]error),
	}
}

func (f *fakeFactory) Create(target, videoID string) (Widget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[videoID]; err != nil {
		return nil, err
	}
	w, ok := f.widgets[videoID]
	if !ok {
		w = &fakeWidget{}
		f.widgets[videoID] = w
	}
	f.targets[videoID] = target
	f.created++
	return w, nil
}

func (f *fakeFactory) widget(id string) *fakeWidget {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.widgets[id]
}

func liveVM(videoIDs ...string) matches.ViewModel {
	vm := matches.NewViewModel()
	comp := matches.Competition{Name: "Div"}
	for i, id := range videoIDs {
		comp.Live = append(comp.Live, matches.Match{
			ID:     fmt.Sprintf("m%d", i),
			Stream: &matches.Stream{VideoID: id},
		})
	}
	comp.Upcoming = []matches.Match{{ID: "later", Stream: &matches.Stream{ChannelID: "chan"}}}
	vm.Competitions["Div"] = comp
	return vm
}

func newTestReconciler(autoplay bool) (*Reconciler, *fakeFactory, *session.Session, *metrics.Recorder) {
	store := prefs.NewMemoryStore()
	if autoplay {
		_ = store.Set(prefs.AutoplayKey, "true")
	}
	sess := session.New(store)
	factory := newFakeFactory()
	rec := metrics.NewRecorder()
	r := New(sess, factory, nil, rec, Config{Debounce: -1, MuteDelay: -1})
	return r, factory, sess, rec
}

func TestReconcileCreatesOnePlayerPerLiveVideo(t *testing.T) {
	r, factory, sess, rec := newTestReconciler(false)

	if got := r.Reconcile(liveVM("a", "b", "a")); got != 2 {
		t.Fatalf("expected 2 players created, got %d", got)
	}
	if got := r.Reconcile(liveVM("a", "b", "c")); got != 1 {
		t.Fatalf("expected only the new video to be created, got %d", got)
	}
	if factory.created != 3 {
		t.Fatalf("expected factory to be called once per video, got %d", factory.created)
	}
	if factory.targets["c"] != "player-c" {
		t.Fatalf("unexpected target %q", factory.targets["c"])
	}
	for _, h := range sess.Handles() {
		if h.State != session.Pending {
			t.Fatalf("expected new handles to be pending, got %+v", h)
		}
	}
	if d := rec.Dashboard(); d.Reconciles != 2 || d.WidgetsCreated != 3 {
		t.Fatalf("unexpected reconcile metrics %+v", d)
	}
}

func TestReconcileNeverDestroysMissingVideos(t *testing.T) {
	r, _, sess, _ := newTestReconciler(false)
	r.Reconcile(liveVM("a", "b"))
	r.Reconcile(liveVM("b"))
	if len(sess.Handles()) != 2 {
		t.Fatalf("expected handles to outlive the view model, got %d", len(sess.Handles()))
	}
}

func TestReconcileSkipsFailedCreateAndRetriesLater(t *testing.T) {
	r, factory, sess, rec := newTestReconciler(false)
	factory.fail["b"] = errors.New("embed script missing")

	if got := r.Reconcile(liveVM("a", "b")); got != 1 {
		t.Fatalf("expected 1 created, got %d", got)
	}
	if sess.HasHandle("b") {
		t.Fatalf("expected failed create not to register a handle")
	}
	delete(factory.fail, "b")
	if got := r.Reconcile(liveVM("a", "b")); got != 1 {
		t.Fatalf("expected retry to create b, got %d", got)
	}
	if rec.Dashboard().WidgetErrors != 1 {
		t.Fatalf("expected create failure to be counted")
	}
}

func TestMarkReadyWithAutoplayDisabledLeavesPlayerIdle(t *testing.T) {
	r, factory, sess, _ := newTestReconciler(false)
	r.Reconcile(liveVM("a"))

	if err := r.MarkReady("a"); err != nil {
		t.Fatalf("mark ready: %v", err)
	}
	if calls := factory.widget("a").Calls(); len(calls) != 0 {
		t.Fatalf("expected no commands, got %v", calls)
	}
	h, _ := sess.Handle("a")
	if h.State != session.Ready || h.Playing || h.Muted {
		t.Fatalf("unexpected handle %+v", h)
	}
}

func TestMarkReadyWithAutoplayEnabledPlaysThenMutes(t *testing.T) {
	r, factory, sess, _ := newTestReconciler(true)
	r.Reconcile(liveVM("a"))

	if err := r.MarkReady("a"); err != nil {
		t.Fatalf("mark ready: %v", err)
	}
	if calls := factory.widget("a").Calls(); !reflect.DeepEqual(calls, []string{"play", "mute"}) {
		t.Fatalf("expected play then mute, got %v", calls)
	}
	h, _ := sess.Handle("a")
	if !h.Playing || !h.Muted {
		t.Fatalf("expected playing muted handle, got %+v", h)
	}

	// A repeated readiness signal does not replay the policy.
	_ = r.MarkReady("a")
	if calls := factory.widget("a").Calls(); len(calls) != 2 {
		t.Fatalf("expected no further commands, got %v", calls)
	}
}

func TestMarkReadyUnknownVideo(t *testing.T) {
	r, _, _, _ := newTestReconciler(true)
	if err := r.MarkReady("ghost"); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("expected ErrUnknownPlayer, got %v", err)
	}
}

func TestToggleAppliesToReadyPlayersOnly(t *testing.T) {
	r, factory, sess, _ := newTestReconciler(false)
	r.Reconcile(liveVM("a", "b"))
	_ = r.MarkReady("a")

	enabled, err := r.ToggleAutoplay()
	if err != nil || !enabled {
		t.Fatalf("expected enabled, got %v err=%v", enabled, err)
	}
	if calls := factory.widget("a").Calls(); !reflect.DeepEqual(calls, []string{"play", "mute"}) {
		t.Fatalf("expected ready player to start muted, got %v", calls)
	}
	if calls := factory.widget("b").Calls(); len(calls) != 0 {
		t.Fatalf("expected pending player untouched, got %v", calls)
	}

	enabled, _ = r.ToggleAutoplay()
	if enabled {
		t.Fatalf("expected disabled after second toggle")
	}
	if calls := factory.widget("a").Calls(); !reflect.DeepEqual(calls, []string{"play", "mute", "unmute", "pause"}) {
		t.Fatalf("expected unmute then pause, got %v", calls)
	}
	if sess.Autoplay() {
		t.Fatalf("expected preference disabled")
	}
	h, _ := sess.Handle("a")
	if h.Playing || h.Muted {
		t.Fatalf("expected stopped handle, got %+v", h)
	}
}

func TestToggleIsolatesWidgetFailures(t *testing.T) {
	r, factory, _, rec := newTestReconciler(false)
	r.Reconcile(liveVM("a", "b", "c"))
	factory.widget("a").fail = map[string]error{"play": errors.New("player destroyed")}
	factory.widget("b").panicOn = "play"
	for _, id := range []string{"a", "b", "c"} {
		_ = r.MarkReady(id)
	}

	if _, err := r.ToggleAutoplay(); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if calls := factory.widget("c").Calls(); !reflect.DeepEqual(calls, []string{"play", "mute"}) {
		t.Fatalf("expected healthy widget to be started, got %v", calls)
	}
	if calls := factory.widget("a").Calls(); !reflect.DeepEqual(calls, []string{"play"}) {
		t.Fatalf("expected failed play not to be followed by mute, got %v", calls)
	}
	if got := rec.Dashboard().WidgetErrors; got != 2 {
		t.Fatalf("expected 2 widget errors, got %d", got)
	}
}

func TestToggleTwiceFromEnabledRestartsMutedPlayers(t *testing.T) {
	r, factory, sess, _ := newTestReconciler(true)
	r.Reconcile(liveVM("a", "b"))
	_ = r.MarkReady("a")
	_ = r.MarkReady("b")
	for _, id := range []string{"a", "b"} {
		if h, _ := sess.Handle(id); !h.Playing || !h.Muted {
			t.Fatalf("expected %s playing muted before toggling, got %+v", id, h)
		}
	}

	if enabled, _ := r.ToggleAutoplay(); enabled {
		t.Fatalf("expected first toggle to disable autoplay")
	}
	if enabled, _ := r.ToggleAutoplay(); !enabled {
		t.Fatalf("expected second toggle to enable autoplay")
	}
	for _, id := range []string{"a", "b"} {
		want := []string{"play", "mute", "unmute", "pause", "play", "mute"}
		if calls := factory.widget(id).Calls(); !reflect.DeepEqual(calls, want) {
			t.Fatalf("%s: expected %v, got %v", id, want, calls)
		}
		if h, _ := sess.Handle(id); !h.Playing || !h.Muted {
			t.Fatalf("expected %s playing muted after two toggles, got %+v", id, h)
		}
	}
}

func TestReadinessAndTogglesAgreeUnderConcurrency(t *testing.T) {
	r, factory, sess, _ := newTestReconciler(false)
	ids := make([]string, 20)
	for i := range ids {
		ids[i] = fmt.Sprintf("v%d", i)
	}
	r.Reconcile(liveVM(ids...))

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			_ = r.MarkReady(id)
		}(id)
		go func() {
			defer wg.Done()
			_, _ = r.ToggleAutoplay()
		}()
	}
	wg.Wait()

	// Every ready player must reflect the final preference.
	enabled := sess.Autoplay()
	for _, id := range ids {
		h, _ := sess.Handle(id)
		if !h.IsReady() {
			t.Fatalf("expected %s ready", id)
		}
		if h.Playing != enabled || h.Muted != enabled {
			t.Fatalf("%s: expected playing=%v muted=%v, got %+v (calls %v)", id, enabled, enabled, h, factory.widget(id).Calls())
		}
	}
}

func TestTogglePersistsPreference(t *testing.T) {
	store := prefs.NewMemoryStore()
	sess := session.New(store)
	r := New(sess, newFakeFactory(), nil, nil, Config{Debounce: -1, MuteDelay: -1})
	_, _ = r.ToggleAutoplay()
	if v, _ := store.Get(prefs.AutoplayKey); v != "true" {
		t.Fatalf("expected persisted preference, got %q", v)
	}
}

func TestScheduleDebouncesToLastViewModel(t *testing.T) {
	sess := session.New(nil)
	factory := newFakeFactory()
	r := New(sess, factory, nil, nil, Config{Debounce: 20 * time.Millisecond, MuteDelay: -1})
	defer r.Close()

	r.Schedule(liveVM("first"))
	r.Schedule(liveVM("second"))

	deadline := time.Now().Add(time.Second)
	for !sess.HasHandle("second") {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for debounced reconcile")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if sess.HasHandle("first") {
		t.Fatalf("expected superseded view model not to be reconciled")
	}
}

func TestDelayedMuteHappensAfterPlay(t *testing.T) {
	store := prefs.NewMemoryStore()
	_ = store.Set(prefs.AutoplayKey, "true")
	sess := session.New(store)
	factory := newFakeFactory()
	r := New(sess, factory, nil, nil, Config{Debounce: -1, MuteDelay: 10 * time.Millisecond})

	r.Reconcile(liveVM("a"))
	_ = r.MarkReady("a")
	if calls := factory.widget("a").Calls(); !reflect.DeepEqual(calls, []string{"play"}) {
		t.Fatalf("expected play before the mute delay, got %v", calls)
	}
	r.Close()
	if calls := factory.widget("a").Calls(); !reflect.DeepEqual(calls, []string{"play", "mute"}) {
		t.Fatalf("expected mute after the delay, got %v", calls)
	}
}

func TestDelayedMuteSkippedWhenAutoplayTurnedOff(t *testing.T) {
	store := prefs.NewMemoryStore()
	_ = store.Set(prefs.AutoplayKey, "true")
	sess := session.New(store)
	factory := newFakeFactory()
	r := New(sess, factory, nil, nil, Config{Debounce: -1, MuteDelay: 30 * time.Millisecond})

	r.Reconcile(liveVM("a"))
	_ = r.MarkReady("a")
	_, _ = r.ToggleAutoplay()
	r.Close()

	if calls := factory.widget("a").Calls(); !reflect.DeepEqual(calls, []string{"play", "unmute", "pause"}) {
		t.Fatalf("expected pending mute to be dropped, got %v", calls)
	}
}

func TestConfigDefaults(t *testing.T) {
	r := New(session.New(nil), newFakeFactory(), nil, nil, Config{})
	if r.debounce != defaultDebounce || r.muteDelay != defaultMuteDelay {
		t.Fatalf("unexpected defaults %s %s", r.debounce, r.muteDelay)
	}
}
