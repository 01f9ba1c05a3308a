// Package realtime pushes server events to authenticated websocket clients.
package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

const writeTimeout = 5 * time.Second

// Publisher broadcasts an event to every connected client
type Publisher interface {
	Publish(topic string, payload any) error
}

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type peer struct {
	identityID uuid.UUID
	mu         sync.Mutex
	conn       *websocket.Conn
}

func (p *peer) send(msg string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return websocket.Message.Send(p.conn, msg)
}

// Hub tracks live connections
type Hub struct {
	mu    sync.Mutex
	peers map[*peer]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{peers: make(map[*peer]struct{})}
}

func (h *Hub) add(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.peers[p] = struct{}{}
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.peers, p)
}

func (h *Hub) snapshot() []*peer {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		out = append(out, p)
	}
	return out
}

// Count returns the number of live connections
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// Publish sends {"event":topic,"data":payload} to every client. Peers that fail
// the write are dropped.
func (h *Hub) Publish(topic string, payload any) error {
	b, err := json.Marshal(envelope{Event: topic, Data: payload})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}
	msg := string(b)

	for _, p := range h.snapshot() {
		if err := p.send(msg); err != nil {
			slog.Warn("dropping websocket client", "identity_id", p.identityID, "event", topic, "error", err)
			h.remove(p)
			_ = p.conn.Close()
		}
	}
	return nil
}
