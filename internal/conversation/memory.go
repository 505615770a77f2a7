package conversation

import (
	"context"
	"sync"
)

// MemoryStore keeps histories for the lifetime of the process.
type MemoryStore struct {
	history map[string][]Record // Map of channel ID to records
	limit   int
	mu      sync.RWMutex
}

// NewMemoryStore creates an in-memory store capped at limit records per channel.
func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{
		history: make(map[string][]Record),
		limit:   limit,
	}
}

// History returns a copy of the channel's records.
func (s *MemoryStore) History(_ context.Context, channelID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.history[channelID]
	out := make([]Record, len(records))
	copy(out, records)
	return out, nil
}

// Append adds a record and trims the channel to the most recent limit entries.
func (s *MemoryStore) Append(_ context.Context, channelID string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := append(s.history[channelID], rec)
	trimmed := Trim(records, s.limit)
	if len(trimmed) != len(records) {
		// Copy so the dropped prefix can be collected.
		trimmed = append([]Record(nil), trimmed...)
	}
	s.history[channelID] = trimmed
	return nil
}

// Clear removes the channel's history.
func (s *MemoryStore) Clear(_ context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.history, channelID)
	return nil
}

// Length returns the number of records held for the channel.
func (s *MemoryStore) Length(channelID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.history[channelID])
}
