package services

import "sync"

// ChannelLocks hands out one mutex per channel, released when unused.
type ChannelLocks struct {
	mu    sync.Mutex
	locks map[uint]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func NewChannelLocks() *ChannelLocks {
	return &ChannelLocks{locks: make(map[uint]*refMutex)}
}

// Lock blocks until the channel's critical section is free and returns its unlock func.
func (l *ChannelLocks) Lock(channelID uint) func() {
	l.mu.Lock()
	m, ok := l.locks[channelID]
	if !ok {
		m = &refMutex{}
		l.locks[channelID] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, channelID)
		}
		l.mu.Unlock()
	}
}
