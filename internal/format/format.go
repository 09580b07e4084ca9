// Package format renders match fields for display.
package format

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"countycricket-live/internal/domain/matches"
)

const collapseChars = 100

var urlPattern = regexp.MustCompile(`https?://[^\s<]+`)

// TimeUntil describes how long until start, relative to now.
func TimeUntil(now, start time.Time) string {
	if start.IsZero() {
		return ""
	}
	diff := start.Sub(now)
	if diff < 0 {
		return "Started"
	}
	hours := int(diff / time.Hour)
	minutes := int((diff % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("Starts in %dh %dm", hours, minutes)
	}
	return fmt.Sprintf("Starts in %dm", minutes)
}

// Innings renders one innings as runs/wickets with overs, e.g. "245/6 (78.2 ov)".
// An all-out innings omits the wicket count.
func Innings(in matches.Innings) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(in.Runs))
	if in.Wickets < 10 {
		b.WriteString("/")
		b.WriteString(strconv.Itoa(in.Wickets))
	}
	if in.Overs > 0 {
		b.WriteString(" (")
		b.WriteString(strconv.FormatFloat(in.Overs, 'f', -1, 64))
		b.WriteString(" ov)")
	}
	return b.String()
}

// Score joins every innings of a match.
func Score(innings []matches.Innings) string {
	parts := make([]string, 0, len(innings))
	for _, in := range innings {
		parts = append(parts, Innings(in))
	}
	return strings.Join(parts, " & ")
}

// Description escapes text for HTML, turns newlines into <br> and links URLs.
func Description(text string) string {
	if text == "" {
		return ""
	}
	escaped := html.EscapeString(text)
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return urlPattern.ReplaceAllString(escaped, `<a href="$0" target="_blank" rel="noopener noreferrer">$0</a>`)
}

// ShouldCollapse reports whether a description is long enough to fold.
func ShouldCollapse(text string) bool {
	if text == "" {
		return false
	}
	return strings.Count(text, "\n") > 1 || len([]rune(text)) > collapseChars
}
