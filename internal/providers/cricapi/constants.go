package cricapi

import "countycricket-live/internal/providers"

const (
	providerName       = "cricapi"
	defaultBaseURL     = "https://api.cricapi.com/v1"
	defaultHTTPTimeout = providers.DefaultHTTPTimeout
	fourDayMatchDays   = 4
	statusSuccess      = "success"
)
