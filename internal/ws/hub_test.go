package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dialHub spins up a server that registers every incoming connection
// with the hub and returns a connected client.
func dialHub(t *testing.T, hub *Hub, sessionID string) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		hub.AddConnection(sessionID, conn)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	// The server side registers asynchronously.
	for i := 0; i < 100 && hub.WatcherCount(sessionID) == 0; i++ {
		time.Sleep(5 * time.Millisecond)
	}
	return client
}

func TestBroadcastReachesWatchers(t *testing.T) {
	hub := NewHub()
	client := dialHub(t, hub, "comp1")

	if got := hub.WatcherCount("comp1"); got != 1 {
		t.Fatalf("WatcherCount = %d, want 1", got)
	}
	if got := hub.WatcherCount("other"); got != 0 {
		t.Fatalf("WatcherCount for unwatched competition = %d, want 0", got)
	}

	hub.Broadcast("comp1", WSMessage{Type: "leaderboard_updated", Data: "standings"})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg WSMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("broadcast payload is not JSON: %v", err)
	}
	if msg.Type != "leaderboard_updated" || msg.Data != "standings" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestBroadcastToUnwatchedCompetitionIsNoop(t *testing.T) {
	hub := NewHub()
	// Must not panic or block with no watchers registered.
	hub.Broadcast("nobody", WSMessage{Type: "competition_started"})
}

func TestRemoveConnectionDropsWatcher(t *testing.T) {
	hub := NewHub()
	client := dialHub(t, hub, "comp1")
	_ = client

	hub.mu.RLock()
	var conn *websocket.Conn
	for c := range hub.watchers["comp1"] {
		conn = c
	}
	hub.mu.RUnlock()

	hub.RemoveConnection("comp1", conn)
	if got := hub.WatcherCount("comp1"); got != 0 {
		t.Fatalf("WatcherCount after removal = %d, want 0", got)
	}
}
