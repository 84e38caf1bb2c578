package repo

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	blob    []byte
	expires time.Time
}

// MemoryStore keeps blobs in process memory. Used by the demo command and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	out := make([]byte, len(e.blob))
	copy(out, e.blob)
	return out, true, nil
}

func (m *MemoryStore) Save(_ context.Context, key string, blob []byte, ttl time.Duration) error {
	e := memoryEntry{blob: make([]byte, len(blob))}
	copy(e.blob, blob)
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
	return nil
}

var _ Store = (*MemoryStore)(nil)
