package config

// CricAPIConfig controls how we talk to the cricket data API.
type CricAPIConfig struct {
	Provider          string
	BaseURL           string
	APIKey            string
	MinInterval       Duration
	CacheTTL          Duration
	LookupConcurrency int
	ChannelsFile      string
}

func loadCricAPI() CricAPIConfig {
	return CricAPIConfig{
		Provider:          envOrDefault(envProvider, defaultProvider),
		BaseURL:           envOrDefault(envCricAPIBaseURL, defaultCricAPIBaseURL),
		APIKey:            envOrDefault(envCricAPIKey, ""),
		MinInterval:       durationEnvOrDefault(envCricAPIInterval, defaultCricAPIInterval),
		CacheTTL:          durationEnvOrDefault(envCricAPICacheTTL, defaultCricAPICacheTTL),
		LookupConcurrency: intEnvOrDefault(envLookupConcurrency, defaultLookupConcurrency),
		ChannelsFile:      envOrDefault(envChannelsFile, defaultChannelsFile),
	}
}
