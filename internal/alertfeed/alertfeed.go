// Package alertfeed fans conflict alerts out to connected dashboard clients
// over WebSocket. It is a pure sink: nothing it does feeds back into the
// pipeline.
package alertfeed

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PossumXI/Asgard/Heimdall/internal/risk"
	"github.com/PossumXI/Asgard/Heimdall/pkg/logging"
)

// Alert is the small JSON payload pushed to dashboard clients.
type Alert struct {
	PrimaryID      string    `json:"primary_id"`
	OtherID        string    `json:"other_id"`
	Severity       string    `json:"severity"`
	Time           float64   `json:"time"`
	Recommendation string    `json:"recommendation"`
	PublishedAt    time.Time `json:"published_at"`
}

// Hub manages WebSocket connections and fans out alerts to all of them.
type Hub struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan Alert
	mu         sync.RWMutex
	done       chan struct{}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewHub creates a Hub; callers must run Start in its own goroutine.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan Alert, 256),
		done:       make(chan struct{}),
	}
}

// Start runs the hub's event loop until Stop is called.
func (h *Hub) Start() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case alert := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.clients {
				if err := conn.WriteJSON(alert); err != nil {
					logging.Logger.Warnf("alertfeed: write error: %v", err)
					h.unregister <- conn
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			return
		}
	}
}

// Stop closes every connection and stops the event loop.
func (h *Hub) Stop() {
	close(h.done)
	h.mu.Lock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

// PublishConflicts pushes one alert per conflict at or above WARNING
// severity, matching the ambient dashboard feed described for check_mission.
func (h *Hub) PublishConflicts(primaryID string, conflicts []risk.AssessedConflict) {
	warningRank := risk.SeverityWarning.Rank()
	for _, c := range conflicts {
		if c.Severity.Rank() < warningRank {
			continue
		}
		h.publish(Alert{
			PrimaryID:      primaryID,
			OtherID:        c.OtherID,
			Severity:       string(c.Severity),
			Time:           c.Time,
			Recommendation: c.Recommendation,
			PublishedAt:    time.Now().UTC(),
		})
	}
}

func (h *Hub) publish(a Alert) {
	select {
	case h.broadcast <- a:
	default:
		logging.Logger.Warnf("alertfeed: broadcast channel full, dropping alert for %s", a.OtherID)
	}
}

// ServeWS upgrades an HTTP request to a WebSocket connection and registers
// it with the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger.Warnf("alertfeed: upgrade error: %v", err)
		return
	}

	h.register <- conn

	go func() {
		defer func() { h.unregister <- conn }()
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(54 * time.Second)
		defer ticker.Stop()
		defer conn.Close()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-h.done:
				return
			}
		}
	}()
}
