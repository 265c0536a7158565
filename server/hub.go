package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/habib256/wilderness/progress"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	// Events queued per client before it is considered stalled.
	clientSendBuffer = 64
	clientWriteWait  = 5 * time.Second
)

// hub broadcasts progress events to every connected websocket client.
// Each client owns a buffered send channel drained by its own writer
// goroutine, so a stalled socket never blocks the simulation that emits
// the events: when a client's buffer fills it is dropped instead.
type hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan interface{}
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]chan interface{})}
}

func (h *hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	send := make(chan interface{}, clientSendBuffer)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	// Writer: the only goroutine that writes this connection. Exits when
	// remove closes the send channel or the peer stops accepting writes.
	go func() {
		defer h.remove(conn)
		for payload := range send {
			conn.SetWriteDeadline(time.Now().Add(clientWriteWait))
			if err := conn.WriteJSON(payload); err != nil {
				return
			}
		}
	}()

	// Drain the connection so close frames are processed; the stream is
	// one-way, client payloads are discarded.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
		conn.Close()
	}
	h.mu.Unlock()
}

// broadcast queues the payload for every client without ever blocking:
// enqueue or drop. Channel closes happen only under the write lock, so
// sends under the read lock cannot race a close.
func (h *hub) broadcast(payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn, send := range h.clients {
		select {
		case send <- payload:
		default:
			// Buffer full: the client is not keeping up. Removal needs
			// the write lock, so it happens off this goroutine.
			go h.remove(conn)
		}
	}
}

// sink returns a progress.Sink that streams events to all clients.
func (h *hub) sink() progress.Sink {
	return &wsSink{hub: h}
}

// wsSink adapts the hub to the progress.Sink interface. Events mirror the
// console sink but as JSON messages.
type wsSink struct {
	hub *hub
}

type wsEvent struct {
	Type      string          `json:"type"`
	Stage     progress.Stage  `json:"stage"`
	Fraction  float64         `json:"fraction,omitempty"`
	Message   string          `json:"message,omitempty"`
	Extras    progress.Extras `json:"extras,omitempty"`
	ElapsedS  float64         `json:"elapsed_seconds,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"ts"`
}

func (s *wsSink) StartStage(stage progress.Stage, description string) {
	s.hub.broadcast(wsEvent{Type: "stage_start", Stage: stage, Message: description, Timestamp: time.Now()})
}

func (s *wsSink) Update(stage progress.Stage, fraction float64, message string, extras progress.Extras) {
	s.hub.broadcast(wsEvent{Type: "progress", Stage: stage, Fraction: fraction, Message: message, Extras: extras, Timestamp: time.Now()})
}

func (s *wsSink) CompleteStage(stage progress.Stage, elapsed time.Duration) {
	s.hub.broadcast(wsEvent{Type: "stage_complete", Stage: stage, ElapsedS: elapsed.Seconds(), Timestamp: time.Now()})
}

func (s *wsSink) Error(stage progress.Stage, err error) {
	s.hub.broadcast(wsEvent{Type: "error", Stage: stage, Error: err.Error(), Timestamp: time.Now()})
}
