package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans out competition events (joins, leaderboard updates, window
// lifecycle) to websocket watchers, keyed by competitive session id.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		watchers: make(map[string]map[*websocket.Conn]bool),
	}
}

func (h *Hub) AddConnection(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.watchers[sessionID] == nil {
		h.watchers[sessionID] = make(map[*websocket.Conn]bool)
	}
	h.watchers[sessionID][conn] = true
	log.Printf("ws: watcher joined competition %s (now %d)", sessionID, len(h.watchers[sessionID]))
}

func (h *Hub) RemoveConnection(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.watchers[sessionID]
	if !ok {
		return
	}
	delete(conns, conn)
	conn.Close()
	if len(conns) == 0 {
		delete(h.watchers, sessionID)
	}
	log.Printf("ws: watcher left competition %s (now %d)", sessionID, len(conns))
}

// WatcherCount reports how many connections are watching a competition.
// Broadcast sources use it to skip building payloads nobody will see.
func (h *Hub) WatcherCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[sessionID])
}

// Send writes one message to a single connection, typically the initial
// state pushed to a watcher right after it connects.
func (h *Hub) Send(conn *websocket.Conn, message WSMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Broadcast sends a message to every watcher of a competition. Dead
// connections are dropped on write failure.
func (h *Hub) Broadcast(sessionID string, message WSMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.watchers[sessionID]
	if !ok {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("ws: dropping watcher of %s: %v", sessionID, err)
			conn.Close()
			delete(conns, conn)
		}
	}
}
