package config

// StreamsConfig controls the stream updater that writes the feed artifact.
type StreamsConfig struct {
	Provider     string
	BaseURL      string
	APIKey       string
	MinInterval  Duration
	CacheTTL     Duration
	Concurrency  int
	OtherStreams string
}

func loadStreams() StreamsConfig {
	return StreamsConfig{
		Provider:     envOrDefault(envStreamProvider, defaultStreamProvider),
		BaseURL:      envOrDefault(envYouTubeBaseURL, defaultYouTubeBaseURL),
		APIKey:       envOrDefault(envGoogleAPIKey, ""),
		MinInterval:  durationEnvOrDefault(envYouTubeInterval, defaultYouTubeInterval),
		CacheTTL:     durationEnvOrDefault(envYouTubeCacheTTL, defaultYouTubeCacheTTL),
		Concurrency:  intEnvOrDefault(envStreamConcurrency, defaultStreamConcurrency),
		OtherStreams: envOrDefault(envOtherStreams, defaultOtherStreams),
	}
}
