package session

import (
	"fmt"
	"time"
)

// Widget is the control surface of one embedded video player.
type Widget interface {
	Play() error
	Pause() error
	Mute() error
	Unmute() error
}

// State is the lifecycle state of a player handle.
type State int

const (
	Pending State = iota
	Ready
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state as its lowercase name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Handle is the dashboard's record of one embedded player, keyed by video id.
// Only Pending to Ready is a valid transition.
type Handle struct {
	VideoID   string    `json:"videoId"`
	Target    string    `json:"target"`
	State     State     `json:"state"`
	Playing   bool      `json:"playing"`
	Muted     bool      `json:"muted"`
	CreatedAt time.Time `json:"createdAt"`

	widget Widget
}

// Widget returns the player bound to the handle.
func (h Handle) Widget() Widget {
	return h.widget
}

// IsReady reports whether the player signalled readiness.
func (h Handle) IsReady() bool {
	return h.State == Ready
}
