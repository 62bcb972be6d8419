// Package presence keeps process-lifetime, per-channel connection counts.
//
// A user is present in a channel while at least one of their connections has
// joined it. State starts empty and is lost on restart.
package presence

import (
	"slices"
	"sync"
)

type key struct {
	channelID uint
	userID    uint
}

type Tracker struct {
	mu     sync.RWMutex
	counts map[key]int
	// channel -> users with count > 0
	channels map[uint]map[uint]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		counts:   make(map[key]int),
		channels: make(map[uint]map[uint]struct{}),
	}
}

// Add records one more connection of userID in channelID.
// It reports true when the user was absent before the call.
func (t *Tracker) Add(channelID, userID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{channelID, userID}
	t.counts[k]++
	if t.counts[k] > 1 {
		return false
	}

	users, ok := t.channels[channelID]
	if !ok {
		users = make(map[uint]struct{})
		t.channels[channelID] = users
	}
	users[userID] = struct{}{}
	return true
}

// Remove drops one connection of userID from channelID.
// It reports true when that was the user's last connection. Removing an
// absent entry is a no-op.
func (t *Tracker) Remove(channelID, userID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{channelID, userID}
	n, ok := t.counts[k]
	if !ok {
		return false
	}
	if n > 1 {
		t.counts[k] = n - 1
		return false
	}

	delete(t.counts, k)
	if users, ok := t.channels[channelID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(t.channels, channelID)
		}
	}
	return true
}

// Snapshot returns the users present in channelID in ascending id order.
func (t *Tracker) Snapshot(channelID uint) []uint {
	t.mu.RLock()
	defer t.mu.RUnlock()

	users := t.channels[channelID]
	ids := make([]uint, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (t *Tracker) IsPresent(channelID, userID uint) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.counts[key{channelID, userID}] > 0
}

// Count returns the number of open connections of userID in channelID.
func (t *Tracker) Count(channelID, userID uint) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.counts[key{channelID, userID}]
}
