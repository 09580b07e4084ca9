// Package embed drives browser-hosted video players by relaying commands over
// the dashboard WebSocket and feeding readiness signals back to the reconciler.
package embed

import (
	"context"
	"encoding/json"
	"log/slog"

	"countycricket-live/internal/http/ws"
	"countycricket-live/internal/logging"
	"countycricket-live/internal/player"
	"countycricket-live/internal/session"
)

// Relay delivers a typed message to connected browsers.
type Relay interface {
	Broadcast(msgType string, payload any) error
}

// Command is the payload of every player message.
type Command struct {
	VideoID string `json:"videoId"`
	Target  string `json:"target"`
}

// CreateCommand announces a player together with the policy it starts
// under. Autoplaying players start muted.
type CreateCommand struct {
	Command
	Autoplay bool `json:"autoplay"`
	Muted    bool `json:"muted"`
}

// Policy reports the autoplay preference in force.
type Policy interface {
	Autoplay() bool
}

// Factory creates relayed widgets.
type Factory struct {
	relay  Relay
	policy Policy
}

// NewFactory builds a widget factory on top of relay. A nil policy
// creates every player with autoplay off.
func NewFactory(relay Relay, policy Policy) *Factory {
	return &Factory{relay: relay, policy: policy}
}

// Create announces the player to browsers and returns its control surface.
func (f *Factory) Create(target, videoID string) (player.Widget, error) {
	cmd := Command{VideoID: videoID, Target: target}
	autoplay := f.policy != nil && f.policy.Autoplay()
	if err := f.relay.Broadcast(ws.TypePlayerCreate, CreateCommand{Command: cmd, Autoplay: autoplay, Muted: autoplay}); err != nil {
		return nil, err
	}
	return &Widget{relay: f.relay, cmd: cmd}, nil
}

// Widget relays control calls for one player.
type Widget struct {
	relay Relay
	cmd   Command
}

func (w *Widget) Play() error   { return w.relay.Broadcast(ws.TypePlayerPlay, w.cmd) }
func (w *Widget) Pause() error  { return w.relay.Broadcast(ws.TypePlayerPause, w.cmd) }
func (w *Widget) Mute() error   { return w.relay.Broadcast(ws.TypePlayerMute, w.cmd) }
func (w *Widget) Unmute() error { return w.relay.Broadcast(ws.TypePlayerUnmute, w.cmd) }

// Controller is the reconciler surface driven by browser messages.
type Controller interface {
	MarkReady(videoID string) error
	ToggleAutoplay() (bool, error)
}

// Bind wires inbound browser messages to the controller and announces
// autoplay changes back to every browser.
func Bind(hub *ws.Hub, ctrl Controller, logger *slog.Logger) {
	hub.Handle(ws.TypePlayerReady, func(_ context.Context, clientID string, msg ws.Message) {
		var cmd Command
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil || cmd.VideoID == "" {
			logging.Warn(logger, "player ready message ignored", "client_id", clientID, logging.FieldError, err)
			return
		}
		if err := ctrl.MarkReady(cmd.VideoID); err != nil {
			logging.Warn(logger, "player ready rejected", logging.FieldVideoID, cmd.VideoID, logging.FieldError, err)
		}
	})
	announcer := NewAnnouncer(ctrl, hub, logger)
	hub.Handle(ws.TypeAutoplayToggle, func(_ context.Context, _ string, _ ws.Message) {
		_, _ = announcer.ToggleAutoplay()
	})
}

// Announcer wraps a controller so every autoplay toggle is announced to all browsers.
type Announcer struct {
	ctrl   Controller
	relay  Relay
	logger *slog.Logger
}

// NewAnnouncer constructs an Announcer.
func NewAnnouncer(ctrl Controller, relay Relay, logger *slog.Logger) *Announcer {
	return &Announcer{ctrl: ctrl, relay: relay, logger: logger}
}

// MarkReady forwards to the controller.
func (a *Announcer) MarkReady(videoID string) error {
	return a.ctrl.MarkReady(videoID)
}

// ToggleAutoplay flips the preference and broadcasts the new state. A
// persistence error is returned after the broadcast.
func (a *Announcer) ToggleAutoplay() (bool, error) {
	enabled, err := a.ctrl.ToggleAutoplay()
	if err != nil {
		logging.Warn(a.logger, "autoplay toggle not persisted", logging.FieldError, err)
	}
	if bErr := a.relay.Broadcast(ws.TypeAutoplay, AutoplayState{Enabled: enabled}); bErr != nil {
		logging.Warn(a.logger, "autoplay broadcast failed", logging.FieldError, bErr)
	}
	return enabled, err
}

// AutoplayState is the payload of autoplay announcements.
type AutoplayState struct {
	Enabled bool `json:"enabled"`
}

// Greeting returns the messages that bring a newly connected browser up to
// date: the autoplay preference, the current view model and a create command
// per known player.
func Greeting(sess *session.Session) [][]byte {
	snap := sess.Snapshot()
	var out [][]byte
	if data, err := ws.Encode(ws.TypeAutoplay, AutoplayState{Enabled: snap.Autoplay}); err == nil {
		out = append(out, data)
	}
	if snap.HasData {
		if data, err := ws.Encode(ws.TypeViewModel, snap.ViewModel); err == nil {
			out = append(out, data)
		}
	}
	for _, h := range sess.Handles() {
		create := CreateCommand{
			Command:  Command{VideoID: h.VideoID, Target: h.Target},
			Autoplay: snap.Autoplay,
			Muted:    h.Muted,
		}
		if data, err := ws.Encode(ws.TypePlayerCreate, create); err == nil {
			out = append(out, data)
		}
	}
	return out
}
