package websocket

import "sync/atomic"

// Stats keeps running counters for the hub.
type Stats struct {
	connections atomic.Int64
	total       atomic.Int64
	broadcasts  atomic.Int64
	sent        atomic.Int64
	drops       atomic.Int64
}

type StatsSnapshot struct {
	Connections      int64 `json:"connections"`
	TotalConnections int64 `json:"totalConnections"`
	Rooms            int   `json:"rooms"`
	Broadcasts       int64 `json:"broadcasts"`
	Delivered        int64 `json:"delivered"`
	SlowConsumers    int64 `json:"slowConsumers"`
}

func (s *Stats) connected() {
	s.connections.Add(1)
	s.total.Add(1)
}

func (s *Stats) disconnected()   { s.connections.Add(-1) }
func (s *Stats) broadcast()      { s.broadcasts.Add(1) }
func (s *Stats) delivered(n int) { s.sent.Add(int64(n)) }
func (s *Stats) dropped(n int)   { s.drops.Add(int64(n)) }

func (s *Stats) Snapshot(rooms int) StatsSnapshot {
	return StatsSnapshot{
		Connections:      s.connections.Load(),
		TotalConnections: s.total.Load(),
		Rooms:            rooms,
		Broadcasts:       s.broadcasts.Load(),
		Delivered:        s.sent.Load(),
		SlowConsumers:    s.drops.Load(),
	}
}
