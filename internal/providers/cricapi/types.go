package cricapi

import "encoding/json"

// envelope wraps every CricAPI response.
type envelope struct {
	Status string          `json:"status"`
	Reason string          `json:"reason"`
	Data   json.RawMessage `json:"data"`
	Info   *quotaInfo      `json:"info"`
}

type quotaInfo struct {
	HitsToday int `json:"hitsToday"`
	HitsUsed  int `json:"hitsUsed"`
	HitsLimit int `json:"hitsLimit"`
}

type matchInfo struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	MatchType    string       `json:"matchType"`
	Status       string       `json:"status"`
	Venue        string       `json:"venue"`
	Date         string       `json:"date"`
	DateTimeGMT  string       `json:"dateTimeGMT"`
	Teams        []string     `json:"teams"`
	Score        []scoreEntry `json:"score"`
	MatchStarted bool         `json:"matchStarted"`
	MatchEnded   bool         `json:"matchEnded"`
}

type scoreEntry struct {
	Runs    int     `json:"r"`
	Wickets int     `json:"w"`
	Overs   float64 `json:"o"`
	Inning  string  `json:"inning"`
}

type seriesInfo struct {
	Info struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"info"`
	MatchList []seriesMatch `json:"matchList"`
}

type seriesMatch struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	MatchType   string   `json:"matchType"`
	Status      string   `json:"status"`
	Venue       string   `json:"venue"`
	Date        string   `json:"date"`
	DateTimeGMT string   `json:"dateTimeGMT"`
	Teams       []string `json:"teams"`
	MatchEnded  bool     `json:"matchEnded"`
}
