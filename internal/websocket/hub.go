// Package websocket pushes new race reactions to everyone watching that race. Clients
// connect to /ws/race-reactions for one season and round, and every reaction posted for
// that race is sent to them as JSON the moment it is committed.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// sendBuffer is how many messages a slow client may fall behind before it is dropped.
const sendBuffer = 16

// RaceKey identifies the audience for one race.
func RaceKey(year, round int) string {
	return fmt.Sprintf("%d-%d", year, round)
}

// Client is one connected watcher.
type Client struct {
	Race string      // RaceKey of the race being watched
	Send chan []byte // outgoing messages; closed by the Hub when the client is removed
}

// NewClient makes a client for race with a buffered Send channel.
func NewClient(race string) *Client {
	return &Client{Race: race, Send: make(chan []byte, sendBuffer)}
}

// Message is data for every client watching Race.
type Message struct {
	Race string
	Data []byte
}

// Hub tracks connected clients grouped by race. All changes to the client map happen on
// the Run goroutine; the mutex only lets Watchers read it from elsewhere.
type Hub struct {
	clients map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then closes every
// client's Send channel. Start it once with "go hub.Run(ctx)".
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.Race] == nil {
				h.clients[client.Race] = make(map[*Client]bool)
			}
			h.clients[client.Race][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients[msg.Race] {
				select {
				case client.Send <- msg.Data:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			// A client whose buffer is full is dropped rather than stalling the others.
			for _, client := range slow {
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[client.Race]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.Race)
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for race, clients := range h.clients {
		for client := range clients {
			close(client.Send)
		}
		delete(h.clients, race)
	}
}

// Broadcast queues data for every client watching race. It never blocks once the hub
// has stopped.
func (h *Hub) Broadcast(race string, data []byte) {
	select {
	case h.broadcast <- &Message{Race: race, Data: data}:
	case <-h.done:
	}
}

// BroadcastJSON encodes v and broadcasts it.
func (h *Hub) BroadcastJSON(race string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(race, data)
	return nil
}

// Register starts delivering broadcasts for client.Race to client. It reports false
// when the hub has already stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client and closes its Send channel. Unregistering twice is harmless.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Watchers is the number of clients currently watching race.
func (h *Hub) Watchers(race string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[race])
}
