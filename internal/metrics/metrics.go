package metrics

import (
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

type providerStats struct {
	calls           int
	errors          int
	rateLimitHits   int
	lastRetryAfter  time.Duration
	lastCallLatency time.Duration
}

type dashboardStats struct {
	refreshes       int
	refreshErrors   int
	staleResponses  int
	reconciles      int
	widgetsCreated  int
	widgetErrors    int
	lookupsOK       int
	lookupsFailed   int
	lastRefreshTime time.Duration
}

// Recorder captures lightweight, in-memory metrics about provider calls and the
// dashboard loops, and forwards them to OpenTelemetry when configured.
type Recorder struct {
	mu        sync.Mutex
	stats     map[string]*providerStats
	dashboard dashboardStats
	otel      *otelInstruments
}

// NewRecorder returns an in-memory recorder without telemetry export.
func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats: make(map[string]*providerStats),
		otel:  otel,
	}
}

// RecordProviderAttempt increments counters for a provider call and stores the last observed latency.
func (r *Recorder) RecordProviderAttempt(provider string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats := r.ensureStatsLocked(provider)
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordProviderAttempt(provider, duration, err)
	}
}

// RecordRateLimit tracks that a provider response hit a rate limit and stores the last Retry-After.
func (r *Recorder) RecordRateLimit(provider string, retryAfter time.Duration) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats := r.ensureStatsLocked(provider)
	stats.rateLimitHits++
	if retryAfter > 0 {
		stats.lastRetryAfter = retryAfter
	}
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordRateLimit(provider, retryAfter)
	}
}

// ProviderCalls returns the total attempts recorded for a provider.
func (r *Recorder) ProviderCalls(provider string) int {
	return r.Snapshot(provider).Calls
}

// ProviderErrors returns the total failed attempts recorded for a provider.
func (r *Recorder) ProviderErrors(provider string) int {
	return r.Snapshot(provider).Errors
}

// RateLimitHits returns the number of rate limit events seen for a provider.
func (r *Recorder) RateLimitHits(provider string) int {
	return r.Snapshot(provider).RateLimitHits
}

// LastRetryAfter returns the most recent Retry-After recorded for a provider.
func (r *Recorder) LastRetryAfter(provider string) time.Duration {
	return r.Snapshot(provider).LastRetryAfter
}

// LastCallLatency returns the last recorded latency for a provider call.
func (r *Recorder) LastCallLatency(provider string) time.Duration {
	return r.Snapshot(provider).LastCallLatency
}

// Snapshot is a copy of the stats recorded for one provider.
type Snapshot struct {
	Calls           int
	Errors          int
	RateLimitHits   int
	LastRetryAfter  time.Duration
	LastCallLatency time.Duration
}

// Snapshot returns a copy of the current stats for the provider.
func (r *Recorder) Snapshot(provider string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	stats := r.snapshot(provider)
	return Snapshot{
		Calls:           stats.calls,
		Errors:          stats.errors,
		RateLimitHits:   stats.rateLimitHits,
		LastRetryAfter:  stats.lastRetryAfter,
		LastCallLatency: stats.lastCallLatency,
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// RecordPollerCycle tracks feed refresh cycles and errors.
func (r *Recorder) RecordPollerCycle(duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.dashboard.refreshes++
	r.dashboard.lastRefreshTime = duration
	if err != nil {
		r.dashboard.refreshErrors++
	}
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordPoller(duration, err)
	}
}

// RecordStaleResponse tracks feed responses dropped by the sequence guard.
func (r *Recorder) RecordStaleResponse() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.dashboard.staleResponses++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordCounter(r.otel.staleResponses, 1)
	}
}

// RecordReconcile tracks a reconcile pass and how many widgets it created.
func (r *Recorder) RecordReconcile(created int) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.dashboard.reconciles++
	r.dashboard.widgetsCreated += created
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordCounter(r.otel.reconciles, 1)
		if created > 0 {
			r.otel.recordCounter(r.otel.widgetsCreated, int64(created))
		}
	}
}

// RecordWidgetError tracks a failed widget control call.
func (r *Recorder) RecordWidgetError(operation string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.dashboard.widgetErrors++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordCounter(r.otel.widgetErrors, 1, attribute.String(AttrOperation, operation))
	}
}

// RecordScoreLookup tracks a per-match score lookup outcome.
func (r *Recorder) RecordScoreLookup(err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	r.mu.Lock()
	if err != nil {
		r.dashboard.lookupsFailed++
		outcome = "error"
	} else {
		r.dashboard.lookupsOK++
	}
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordCounter(r.otel.scoreLookups, 1, attribute.String(AttrOutcome, outcome))
	}
}

// DashboardSnapshot is a copy of the dashboard loop counters.
type DashboardSnapshot struct {
	Refreshes          int
	RefreshErrors      int
	StaleResponses     int
	Reconciles         int
	WidgetsCreated     int
	WidgetErrors       int
	LookupsOK          int
	LookupsFailed      int
	LastRefreshLatency time.Duration
}

// Dashboard returns a copy of the dashboard loop counters.
func (r *Recorder) Dashboard() DashboardSnapshot {
	if r == nil {
		return DashboardSnapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.dashboard
	return DashboardSnapshot{
		Refreshes:          d.refreshes,
		RefreshErrors:      d.refreshErrors,
		StaleResponses:     d.staleResponses,
		Reconciles:         d.reconciles,
		WidgetsCreated:     d.widgetsCreated,
		WidgetErrors:       d.widgetErrors,
		LookupsOK:          d.lookupsOK,
		LookupsFailed:      d.lookupsFailed,
		LastRefreshLatency: d.lastRefreshTime,
	}
}

// ensureStatsLocked must be called with r.mu held.
func (r *Recorder) ensureStatsLocked(provider string) *providerStats {
	stats, ok := r.stats[provider]
	if !ok {
		stats = &providerStats{}
		r.stats[provider] = stats
	}
	return stats
}

func (r *Recorder) snapshot(provider string) providerStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stats, ok := r.stats[provider]; ok && stats != nil {
		return *stats
	}
	return providerStats{}
}
