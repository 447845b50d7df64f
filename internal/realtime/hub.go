// Package realtime pushes change events to browsers following a show over a
// websocket.  Artist dashboards and audience pages apply each event
// incrementally instead of reloading the queue.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/tocafy/tocafy-server/internal/logger"
	"github.com/tocafy/tocafy-server/internal/model"
)

// ErrHubBusy is returned by Publish when the broadcast buffer is full.
var ErrHubBusy = errors.New("realtime hub busy")

// Hub maintains active WebSocket connections per show and broadcasts
// messages to them.  Only the Run goroutine mutates the connection map.
type Hub struct {
	// Map: show id → []*Client
	connections map[string][]*Client
	mutex       sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}

	log *logger.Logger
}

// Scope is what a subscriber may see of a show.
type Scope int

const (
	// Audience subscribers never receive events for requests held for
	// review.
	Audience Scope = iota
	// Artist subscribers receive every event of their show.
	Artist
)

func (s Scope) String() string {
	if s == Artist {
		return "artist"
	}
	return "audience"
}

// Message is one encoded event addressed to a show's subscribers.  Private
// messages only reach artist subscribers.
type Message struct {
	ShowID  string
	Data    []byte
	Private bool
}

// private reports whether ev concerns a request the audience must not see.
func private(ev model.ChangeEvent) bool {
	return ev.Entity == model.EntityRequest && ev.Flagged
}

// NewHub creates a new Hub instance
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		connections: make(map[string][]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		done:        make(chan struct{}),
		log:         log,
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled, closing
// every remaining client.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("realtime hub started")
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case message := <-h.broadcast:
			h.broadcastToShow(message)
		}
	}
}

// Publish implements notify.Publisher.  It never blocks on slow clients:
// when the broadcast buffer is full the event is dropped.
func (h *Hub) Publish(ctx context.Context, ev model.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- &Message{ShowID: ev.ShowID, Data: data, Private: private(ev)}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrHubBusy
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.connections[client.showID] = append(h.connections[client.showID], client)
	h.log.Debug("client registered", "show_id", client.showID, "scope", client.scope.String(), "total_for_show", len(h.connections[client.showID]))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(client)
}

// removeLocked drops client and closes its send channel.  A client that is
// no longer registered was already closed, so the channel is closed once.
func (h *Hub) removeLocked(client *Client) {
	clients := h.connections[client.showID]
	for i, c := range clients {
		if c != client {
			continue
		}
		h.connections[client.showID] = append(clients[:i:i], clients[i+1:]...)
		close(client.send)
		if len(h.connections[client.showID]) == 0 {
			delete(h.connections, client.showID)
		}
		h.log.Debug("client unregistered", "show_id", client.showID, "remaining_for_show", len(h.connections[client.showID]))
		return
	}
}

// broadcastToShow sends a message to the connections following a show that
// may see it.  Clients whose send buffer is full are disconnected.
func (h *Hub) broadcastToShow(message *Message) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	clients := append([]*Client(nil), h.connections[message.ShowID]...)
	for _, client := range clients {
		if message.Private && client.scope != Artist {
			continue
		}
		select {
		case client.send <- message.Data:
		default:
			h.log.Warn("client send buffer full, closing connection", "show_id", client.showID)
			h.removeLocked(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for showID, clients := range h.connections {
		for _, c := range clients {
			close(c.send)
		}
		delete(h.connections, showID)
	}
}

// ConnectionCount returns the number of clients following showID.
func (h *Hub) ConnectionCount(showID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.connections[showID])
}
