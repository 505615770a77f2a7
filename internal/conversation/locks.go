package conversation

import "sync"

// Locks hands out one mutex per channel so a channel's
// read-append-complete-append round trip is never interleaved.
type Locks struct {
	channels map[string]*sync.Mutex
	mu       sync.Mutex
}

// NewLocks creates an empty lock table.
func NewLocks() *Locks {
	return &Locks{
		channels: make(map[string]*sync.Mutex),
	}
}

// Lock blocks until the channel is free and returns its unlock func.
func (l *Locks) Lock(channelID string) func() {
	l.mu.Lock()
	m, ok := l.channels[channelID]
	if !ok {
		m = &sync.Mutex{}
		l.channels[channelID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
