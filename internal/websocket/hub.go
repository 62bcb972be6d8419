package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"channel-chat/internal/models"
)

var ErrClientDisconnected = fmt.Errorf("client disconnected")

// Hub tracks live connections and the channel rooms they joined. Fan-out never
// blocks: a client whose outbound queue is full gets disconnected.
type Hub struct {
	mu sync.RWMutex

	// Registered clients
	clients map[*Client]struct{}

	// Channel rooms
	rooms map[uint]map[*Client]struct{}

	stats *Stats
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[uint]map[*Client]struct{}),
		stats:   &Stats{},
	}
}

func (h *Hub) Stats() StatsSnapshot {
	h.mu.RLock()
	rooms := len(h.rooms)
	h.mu.RUnlock()
	return h.stats.Snapshot(rooms)
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.stats.connected()
	slog.Info("Client registered", "clientID", c.id, "userID", c.userID)
}

// Unregister drops c from the registry and every room.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for channelID, room := range h.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, channelID)
		}
	}
	h.mu.Unlock()

	h.stats.disconnected()
	slog.Info("Client unregistered", "clientID", c.id, "userID", c.userID)
}

func (h *Hub) Subscribe(channelID uint, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[channelID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[channelID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) Unsubscribe(channelID uint, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[channelID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, channelID)
	}
}

// RoomSize returns the number of connections in a channel room.
func (h *Hub) RoomSize(channelID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[channelID])
}

// RoomClientsOf returns the connections of userID subscribed to the channel room.
func (h *Hub) RoomClientsOf(channelID, userID uint) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*Client
	for c := range h.rooms[channelID] {
		if c.userID == userID {
			out = append(out, c)
		}
	}
	return out
}

// Broadcast delivers env to every connection in the channel's room.
func (h *Hub) Broadcast(channelID uint, env *models.Envelope) {
	h.fanOut(channelID, env, func(*Client) bool { return true })
}

// BroadcastExceptUser delivers env to the room, skipping every connection of userID.
func (h *Hub) BroadcastExceptUser(channelID, userID uint, env *models.Envelope) {
	h.fanOut(channelID, env, func(c *Client) bool { return c.userID != userID })
}

// SendTo delivers env to a single connection.
func (h *Hub) SendTo(c *Client, env *models.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if !c.enqueue(data) {
		h.stats.dropped(1)
		h.evict([]*Client{c})
		return ErrClientDisconnected
	}
	h.stats.delivered(1)
	return nil
}

func (h *Hub) fanOut(channelID uint, env *models.Envelope, include func(*Client) bool) {
	data, err := json.Marshal(env)
	if err != nil {
		slog.Error("Failed to encode event", "channelID", channelID, "type", env.Type, "error", err)
		return
	}

	var slow []*Client
	sent := 0

	h.mu.RLock()
	for c := range h.rooms[channelID] {
		if !include(c) {
			continue
		}
		if c.enqueue(data) {
			sent++
		} else {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	h.stats.broadcast()
	h.stats.delivered(sent)
	if len(slow) > 0 {
		h.stats.dropped(len(slow))
		h.evict(slow)
	}
}

// evict closes slow clients. Their read loop then runs the regular disconnect.
func (h *Hub) evict(clients []*Client) {
	for _, c := range clients {
		slog.Warn("Send buffer full, closing client", "clientID", c.id, "userID", c.userID)
		c.Close()
	}
}

// CloseAll closes every live connection.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Close()
	}
}
