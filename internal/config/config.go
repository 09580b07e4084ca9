package config

// Config holds runtime configuration for the dashboard service and the offline tools.
type Config struct {
	Port      string
	PublicDir string
	Dashboard DashboardConfig
	CricAPI   CricAPIConfig
	Streams   StreamsConfig
	Artifacts ArtifactsConfig
	Fixtures  FixturesConfig
	Metrics   MetricsConfig
}

// DashboardConfig controls the feed poller and player reconciler.
type DashboardConfig struct {
	FeedURL           string
	ScoresURL         string
	PollInterval      Duration
	PrefsFile         string
	ReconcileDebounce Duration
	MuteDelay         Duration
	CORSOrigins       []string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Port:      envOrDefault(envPort, defaultPort),
		PublicDir: envOrDefault(envPublicDir, defaultPublicDir),
		Dashboard: loadDashboard(),
		CricAPI:   loadCricAPI(),
		Streams:   loadStreams(),
		Artifacts: loadArtifacts(),
		Fixtures:  loadFixtures(),
		Metrics:   loadMetrics(),
	}
}

func loadDashboard() DashboardConfig {
	return DashboardConfig{
		FeedURL:           envOrDefault(envFeedURL, defaultFeedURL),
		ScoresURL:         envOrDefault(envScoresURL, ""),
		PollInterval:      durationEnvOrDefault(envPollInterval, defaultPollInterval),
		PrefsFile:         envOrDefault(envPrefsFile, defaultPrefsFile),
		ReconcileDebounce: durationEnvOrDefault(envReconcileDebounce, defaultReconcileDebounce),
		MuteDelay:         durationEnvOrDefault(envMuteDelay, defaultMuteDelay),
		CORSOrigins:       listEnvOrDefault(envCORSOrigins, defaultCORSOrigins),
	}
}
