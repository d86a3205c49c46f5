package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore single-process store used with the mock database and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Begin(ctx context.Context, key string) (*Entry, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		existing := e.entry
		return &existing, false, nil
	}
	s.entries[key] = memoryEntry{entry: Entry{State: StateInProgress}, expiresAt: now.Add(s.ttl)}
	return nil, true, nil
}

func (s *MemoryStore) Complete(ctx context.Context, key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.State = StateCompleted
	entry.Body = append([]byte(nil), entry.Body...)
	s.entries[key] = memoryEntry{entry: entry, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

var _ Store = (*MemoryStore)(nil)
