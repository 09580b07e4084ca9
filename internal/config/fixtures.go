package config

// FixturesConfig controls fixture extraction and the admin refresh endpoint.
type FixturesConfig struct {
	SyncEnabled   bool
	DailyHourUTC  int
	RetentionDays int
	Timezone      string
	AdminToken    string
}

func loadFixtures() FixturesConfig {
	return FixturesConfig{
		SyncEnabled:   boolEnvOrDefault(envFixtureSync, false),
		DailyHourUTC:  hourEnvOrDefault(envFixtureSyncHour, defaultFixtureSyncHour),
		RetentionDays: intEnvOrDefault(envFixtureRetention, defaultFixtureRetention),
		Timezone:      envOrDefault(envFixtureTimezone, defaultFixtureTimezone),
		AdminToken:    envOrDefault(envAdminToken, ""),
	}
}
