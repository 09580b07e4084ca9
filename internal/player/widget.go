package player

import (
	"errors"

	"countycricket-live/internal/session"
)

// Widget is the control surface of one embedded player.
type Widget = session.Widget

// WidgetFactory creates a player bound to a render target.
type WidgetFactory interface {
	Create(target, videoID string) (Widget, error)
}

// WidgetFactoryFunc adapts a function to WidgetFactory.
type WidgetFactoryFunc func(target, videoID string) (Widget, error)

func (f WidgetFactoryFunc) Create(target, videoID string) (Widget, error) {
	return f(target, videoID)
}

// ErrUnknownPlayer is returned when a readiness signal names no known handle.
var ErrUnknownPlayer = errors.New("player: unknown video id")

// TargetFor returns the render target for a video id.
func TargetFor(videoID string) string {
	return "player-" + videoID
}
