// Package cache defines the key/value store the engine memoizes results in,
// plus an in-memory implementation with TTL expiry. The store is injected so
// the engine carries no process-wide state and tests can use a fake.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is the external KV contract. Implementations must be safe for
// concurrent use. Keys are content-derived, so concurrent writers for the
// same key produce identical values and last-write-wins is acceptable.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is a thread-safe in-memory Store with per-entry TTL and a
// background cleanup loop
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	stop    chan struct{}
	once    sync.Once

	statsMu sync.Mutex
	stats   Stats
}

// Stats tracks cache effectiveness for monitoring
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// NewMemory creates an in-memory store. cleanupInterval bounds how long
// expired entries linger; pass 0 for the 5 minute default.
func NewMemory(cleanupInterval time.Duration) *Memory {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	m := &Memory{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	go m.cleanupLoop(cleanupInterval)
	return m
}

// Get returns the value for key if present and unexpired
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		m.record(func(s *Stats) { s.Misses++ })
		return nil, false, nil
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		m.record(func(s *Stats) { s.Misses++; s.Evictions++ })
		return nil, false, nil
	}
	m.record(func(s *Stats) { s.Hits++ })
	return e.data, true, nil
}

// Set stores value under key, overwriting any previous entry
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = entry{data: value, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired or not
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stats returns a snapshot of hit/miss counters
func (m *Memory) Snapshot() Stats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.stats
}

// Close stops the background cleanup goroutine
func (m *Memory) Close() {
	m.once.Do(func() { close(m.stop) })
}

func (m *Memory) record(fn func(*Stats)) {
	m.statsMu.Lock()
	fn(&m.stats)
	m.statsMu.Unlock()
}

func (m *Memory) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.removeExpired()
		case <-m.stop:
			return
		}
	}
}

func (m *Memory) removeExpired() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
			m.record(func(s *Stats) { s.Evictions++ })
		}
	}
}
