package config

import "time"

const (
	envPort              = "PORT"
	envPollInterval      = "POLL_INTERVAL"
	envFeedURL           = "FEED_URL"
	envScoresURL         = "SCORES_URL"
	envPublicDir         = "PUBLIC_DIR"
	envPrefsFile         = "PREFS_FILE"
	envReconcileDebounce = "RECONCILE_DEBOUNCE"
	envMuteDelay         = "MUTE_DELAY"
	envCORSOrigins       = "CORS_ALLOWED_ORIGINS"
	envProvider          = "SCORE_PROVIDER"
	envCricAPIBaseURL    = "CRICKET_API_BASE_URL"
	envCricAPIKey        = "CRICKET_API_KEY"
	envCricAPIInterval   = "CRICKET_API_MIN_INTERVAL"
	envCricAPICacheTTL   = "CRICKET_API_CACHE_TTL"
	envLookupConcurrency = "SCORE_LOOKUP_CONCURRENCY"
	envChannelsFile      = "CHANNELS_FILE"
	envStreamProvider    = "STREAM_PROVIDER"
	envYouTubeBaseURL    = "YOUTUBE_API_BASE_URL"
	envGoogleAPIKey      = "GOOGLE_API_KEY"
	envYouTubeInterval   = "YOUTUBE_MIN_INTERVAL"
	envYouTubeCacheTTL   = "YOUTUBE_CACHE_TTL"
	envStreamConcurrency = "STREAM_LOOKUP_CONCURRENCY"
	envOtherStreams      = "OTHER_STREAMS_COMPETITION"
	envS3Bucket          = "ARTIFACT_S3_BUCKET"
	envS3Prefix          = "ARTIFACT_S3_PREFIX"
	envFixtureSync       = "FIXTURE_SYNC_ENABLED"
	envFixtureSyncHour   = "FIXTURE_SYNC_HOUR_UTC"
	envFixtureRetention  = "FIXTURE_RETENTION_DAYS"
	envFixtureTimezone   = "FIXTURE_TIMEZONE"
	envAdminToken        = "ADMIN_TOKEN"
	envMetricsPort       = "METRICS_PORT"
	envMetricsOn         = "METRICS_ENABLED"
	envOtelEndpoint      = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService       = "OTEL_SERVICE_NAME"
	envOtelInsecure      = "OTEL_EXPORTER_OTLP_INSECURE"

	defaultPort = "4000"
	// Most recent dashboard revision refreshed every two minutes.
	defaultPollInterval      = 2 * Duration(time.Minute)
	defaultFeedURL           = "http://localhost:4000/data/streams.json"
	defaultPublicDir         = "public"
	defaultPrefsFile         = "data/preferences.json"
	defaultReconcileDebounce = 500 * Duration(time.Millisecond)
	defaultMuteDelay         = 250 * Duration(time.Millisecond)
	defaultCORSOrigins       = "*"
	defaultProvider          = "cricapi"
	defaultCricAPIBaseURL    = "https://api.cricapi.com/v1"
	// Free CricAPI tier allows a modest request rate; keep lookups spaced.
	defaultCricAPIInterval   = Duration(time.Second)
	defaultCricAPICacheTTL   = Duration(time.Minute)
	defaultLookupConcurrency = 4
	defaultChannelsFile      = "channels.json"
	defaultStreamProvider    = "youtube"
	defaultYouTubeBaseURL    = "https://www.googleapis.com/youtube/v3"
	// Each channel costs three quota units per run; spacing keeps bursts polite.
	defaultYouTubeInterval   = 200 * Duration(time.Millisecond)
	defaultYouTubeCacheTTL   = 6 * Duration(time.Hour)
	defaultStreamConcurrency = 4
	defaultOtherStreams      = "Other Streams"
	defaultFixtureSyncHour   = 2
	defaultFixtureRetention  = 14
	defaultFixtureTimezone   = "Europe/London"
	defaultMetricsPort       = "9090"
	defaultServiceName       = "countycricket-live"
)
