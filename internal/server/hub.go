package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/data-alchemist/internal/workspace"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChangeMessage is pushed to every /ws subscriber after a workspace mutation.
type ChangeMessage struct {
	Type      workspace.EventKind      `json:"type"`
	RuleID    string                   `json:"ruleId,omitempty"`
	Conflicts workspace.ConflictReport `json:"conflicts"`
	At        time.Time                `json:"at"`
}

// Hub fans change messages out to websocket subscribers. Slow subscribers
// whose buffer fills up are disconnected.
type Hub struct {
	mu      sync.Mutex
	clients map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*subscriber]struct{})}
}

// Watch broadcasts a ChangeMessage for every change to ws.
func (h *Hub) Watch(ws *workspace.Workspace) {
	ws.OnChange(func(e workspace.Event) {
		h.Broadcast(ChangeMessage{
			Type:      e.Kind,
			RuleID:    e.RuleID,
			Conflicts: workspace.NewConflictReport(ws.Conflicts()),
			At:        e.At,
		})
	})
}

// Broadcast sends v, JSON-encoded, to every subscriber.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("server: encoding broadcast: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.clients {
		select {
		case s.send <- data:
		default:
			log.Printf("server: dropping slow websocket subscriber")
			h.dropLocked(s)
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.clients {
		h.dropLocked(s)
	}
}

func (h *Hub) dropLocked(s *subscriber) {
	if _, ok := h.clients[s]; ok {
		delete(h.clients, s)
		close(s.send)
	}
}

func (h *Hub) drop(s *subscriber) {
	h.mu.Lock()
	h.dropLocked(s)
	h.mu.Unlock()
}

// ServeWS upgrades the request and streams change messages until the client
// goes away. Incoming messages are ignored.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}

	s := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[s] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(s)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			break
		}
	}
	h.drop(s)
}

func (h *Hub) writeLoop(s *subscriber) {
	defer s.conn.Close()
	for msg := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("server: websocket write: %v", err)
			h.drop(s)
			return
		}
	}
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}
