package fetcher

import (
	"context"
	"sync"
	"time"

	"github.com/dsrs-analytics/taskdash/internal/asana"
)

// Entry is one cached task listing.
type Entry struct {
	Tasks     []asana.Task `json:"tasks"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// Store persists cache entries. Freshness is judged by the Cache from
// FetchedAt, so a Store may keep entries longer than the TTL.
// Get returns (nil, nil) on a miss.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps entries in process memory. It is cleared on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Get returns the entry for key, or nil.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[key], nil
}

// Set replaces the entry for key. The ttl is ignored; stale entries are
// overwritten on the next refresh.
func (s *MemoryStore) Set(_ context.Context, key string, entry *Entry, _ time.Duration) error {
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// Delete removes the entry for key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}
