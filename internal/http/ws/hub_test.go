package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T, origins ...string) (*Hub, *httptest.Server) {
	t.Helper()
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	hub := NewHub(nil, origins)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubGreetsNewClients(t *testing.T) {
	hub, srv := startHub(t)
	hub.OnConnect(func() [][]byte {
		data, _ := Encode(TypeAutoplay, map[string]bool{"enabled": true})
		return [][]byte{data}
	})

	conn := dial(t, srv)
	msg := readEnvelope(t, conn)
	if msg.Type != TypeAutoplay || !strings.Contains(string(msg.Payload), `"enabled":true`) {
		t.Fatalf("unexpected greeting %+v", msg)
	}
}

func TestHubBroadcastsToEveryClient(t *testing.T) {
	hub, srv := startHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, hub, 2)

	if err := hub.Broadcast(TypePlayerPlay, map[string]string{"videoId": "abc"}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	for _, conn := range []*websocket.Conn{a, b} {
		msg := readEnvelope(t, conn)
		if msg.Type != TypePlayerPlay {
			t.Fatalf("unexpected message %+v", msg)
		}
	}
}

func TestHubDispatchesInboundMessages(t *testing.T) {
	hub, srv := startHub(t)
	got := make(chan string, 1)
	hub.Handle(TypePlayerReady, func(_ context.Context, clientID string, msg Message) {
		var payload struct {
			VideoID string `json:"videoId"`
		}
		_ = json.Unmarshal(msg.Payload, &payload)
		if clientID == "" {
			t.Errorf("expected client id")
		}
		got <- payload.VideoID
	})

	conn := dial(t, srv)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`not json`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(map[string]any{"type": TypePlayerReady, "payload": map[string]string{"videoId": "abc"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case id := <-got:
		if id != "abc" {
			t.Fatalf("expected abc, got %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler not invoked")
	}
}

func TestHubUnregistersClosedClients(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	waitForClients(t, hub, 1)
	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHubRejectsUnknownOrigin(t *testing.T) {
	_, srv := startHub(t, "https://dashboard.example")
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatalf("expected upgrade to be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}

func TestBroadcastAfterCloseFails(t *testing.T) {
	hub := NewHub(nil, []string{"*"})
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(finished)
	}()
	cancel()
	<-finished

	// Fill the buffer so the send can only complete through done.
	for i := 0; i < cap(hub.broadcast); i++ {
		hub.broadcast <- nil
	}
	if err := hub.Broadcast(TypeViewModel, nil); err != ErrHubClosed {
		t.Fatalf("expected ErrHubClosed, got %v", err)
	}
}
