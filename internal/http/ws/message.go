package ws

import "encoding/json"

// Message types exchanged with dashboard browsers.
const (
	TypeViewModel      = "viewmodel"
	TypeAutoplay       = "autoplay"
	TypePlayerCreate   = "player.create"
	TypePlayerPlay     = "player.play"
	TypePlayerPause    = "player.pause"
	TypePlayerMute     = "player.mute"
	TypePlayerUnmute   = "player.unmute"
	TypePlayerReady    = "player.ready"
	TypeAutoplayToggle = "autoplay.toggle"
)

// Envelope is an outbound message.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Message is an inbound message; Payload is decoded by the handler for Type.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode marshals an envelope for the wire.
func Encode(msgType string, payload any) ([]byte, error) {
	return json.Marshal(Envelope{Type: msgType, Payload: payload})
}
