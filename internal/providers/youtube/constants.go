package youtube

import "countycricket-live/internal/providers"

const (
	providerName       = "youtube"
	defaultBaseURL     = "https://www.googleapis.com/youtube/v3"
	defaultHTTPTimeout = providers.DefaultHTTPTimeout
	// maxResults is the page and batch ceiling of the Data API.
	maxResults = 50
)
