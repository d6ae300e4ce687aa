package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and single-node
// development without Redis. Entries are dropped lazily on read once
// their TTL passes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	code     Code
	evictAt  time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Put(_ context.Context, sid string, code Code, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[sid] = memoryEntry{code: code, evictAt: time.Now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, sid string) (Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[sid]
	if !ok {
		return Code{}, ErrNotFound
	}
	if time.Now().After(entry.evictAt) {
		delete(m.entries, sid)
		return Code{}, ErrNotFound
	}
	return entry.code, nil
}

func (m *MemoryStore) Delete(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sid)
	return nil
}

func (m *MemoryStore) Ping() error { return nil }

func (m *MemoryStore) ConsumeIfMatch(_ context.Context, sid, email, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[sid]
	if !ok || time.Now().After(entry.evictAt) {
		delete(m.entries, sid)
		return false, nil
	}
	if entry.code.Email != email || entry.code.Code != code {
		return false, nil
	}
	delete(m.entries, sid)
	return true, nil
}
