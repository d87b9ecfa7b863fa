package store

import (
	"context"
	"sync"
)

// Memory is the in-memory connector. Suitable for development and tests;
// contents are lost on restart.
type Memory struct {
	mu    sync.RWMutex
	items map[ItemKey]TrackedItem
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[ItemKey]TrackedItem)}
}

func (m *Memory) Load(_ context.Context, key ItemKey) (*TrackedItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	// Copy out so callers never hold a reference into the map.
	out := item
	return &out, nil
}

func (m *Memory) Save(_ context.Context, patch ItemPatch) error {
	if err := patch.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var prev *TrackedItem
	if existing, ok := m.items[patch.Key()]; ok {
		prev = &existing
	}
	m.items[patch.Key()] = patch.apply(prev)
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Ping(context.Context) error { return nil }
