// Package typing relays ephemeral typing indicators to channel rooms.
package typing

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"channel-chat/internal/models"

	"github.com/google/uuid"
)

// Broadcaster delivers an event to a channel room, skipping every connection of one user.
type Broadcaster interface {
	BroadcastExceptUser(channelID, userID uint, env *models.Envelope)
}

type entry struct {
	timer *time.Timer
	gen   uint64
}

// Notifier tracks who is typing where. With a positive ttl an indicator that is
// not refreshed or stopped within ttl is expired by the server.
type Notifier struct {
	broadcaster Broadcaster
	ttl         time.Duration

	mu     sync.Mutex
	active map[uint]map[uint]*entry
	gen    uint64
	closed bool
}

func NewNotifier(b Broadcaster, ttl time.Duration) *Notifier {
	return &Notifier{
		broadcaster: b,
		ttl:         ttl,
		active:      make(map[uint]map[uint]*entry),
	}
}

// Start marks userID as typing in channelID and tells the rest of the room.
// Repeated calls refresh the expiry and are re-broadcast.
func (n *Notifier) Start(channelID, userID uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}

	users, ok := n.active[channelID]
	if !ok {
		users = make(map[uint]*entry)
		n.active[channelID] = users
	}
	e, ok := users[userID]
	if !ok {
		e = &entry{}
		users[userID] = e
	}
	n.gen++
	e.gen = n.gen
	if e.timer != nil {
		e.timer.Stop()
	}
	if n.ttl > 0 {
		gen := e.gen
		e.timer = time.AfterFunc(n.ttl, func() { n.expire(channelID, userID, gen) })
	}

	n.broadcast(models.EventTypingStarted, channelID, userID)
}

// Stop clears the indicator. The stop is always relayed, even if the server
// had no record of the user typing, so peers converge.
func (n *Notifier) Stop(channelID, userID uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}

	n.remove(channelID, userID)
	n.broadcast(models.EventTypingStopped, channelID, userID)
}

// Clear drops the indicator of a user who left the channel, relaying a stop
// only if the user was typing.
func (n *Notifier) Clear(channelID, userID uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}

	if n.remove(channelID, userID) {
		n.broadcast(models.EventTypingStopped, channelID, userID)
	}
}

// Typing returns the users currently typing in channelID.
func (n *Notifier) Typing(channelID uint) []uint {
	n.mu.Lock()
	defer n.mu.Unlock()

	ids := make([]uint, 0, len(n.active[channelID]))
	for id := range n.active[channelID] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Close stops all expiry timers. Later calls are ignored.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, users := range n.active {
		for _, e := range users {
			if e.timer != nil {
				e.timer.Stop()
			}
		}
	}
	n.active = make(map[uint]map[uint]*entry)
	n.closed = true
}

func (n *Notifier) expire(channelID, userID uint, gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}

	e, ok := n.active[channelID][userID]
	if !ok || e.gen != gen {
		// refreshed or stopped after this timer was armed
		return
	}
	n.remove(channelID, userID)
	slog.Debug("Typing indicator expired", "channelID", channelID, "userID", userID, "ttl", n.ttl)
	n.broadcast(models.EventTypingStopped, channelID, userID)
}

// remove must be called with n.mu held.
func (n *Notifier) remove(channelID, userID uint) bool {
	users, ok := n.active[channelID]
	if !ok {
		return false
	}
	e, ok := users[userID]
	if !ok {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(users, userID)
	if len(users) == 0 {
		delete(n.active, channelID)
	}
	return true
}

func (n *Notifier) broadcast(t models.EventType, channelID, userID uint) {
	env := models.NewEnvelope(uuid.New().String(), t, models.TypingData{ChannelID: channelID, UserID: userID})
	n.broadcaster.BroadcastExceptUser(channelID, userID, env)
}
