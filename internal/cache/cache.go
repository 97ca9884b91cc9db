// Package cache provides per-source TTL stores for pulse data. Each source
// owns an independent Store; no two sources share a key space. Entries are
// checked and discarded on access, never proactively evicted.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is the interface each source's cache implements. Get returns the
// cached value if present and not expired. Delete removes a single key (used
// by the refresh path); Clear drops everything. Size reports the entry count
// for the health surface, or -1 when the backend cannot report one.
type Store[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Size() int
}

// Memory implements Store with an in-process map. Shared across requests for
// the process lifetime; safe for concurrent use. Concurrent misses for the
// same key may race to populate; last writer wins, which is acceptable for
// idempotent current-conditions values.
type Memory[T any] struct {
	mu   sync.Mutex
	data map[string]entry[T]
}

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{data: make(map[string]entry[T])}
}

// Get returns the value for key if present and not expired. Expired entries
// are removed on access.
func (m *Memory[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return zero, false, nil
	}
	if time.Now().After(e.expiresAt) {
		delete(m.data, key)
		return zero, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key with the given TTL, overwriting any existing
// entry.
func (m *Memory[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = entry[T]{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Delete removes the entry for key if present.
func (m *Memory[T]) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Clear drops all entries.
func (m *Memory[T]) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]entry[T])
	return nil
}

// Size returns the current entry count, counting expired-but-unvisited
// entries since they still occupy the map.
func (m *Memory[T]) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
