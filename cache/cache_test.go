package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	ctx := context.Background()

	if _, ok, err := m.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get on empty store = (%v, %v), want miss", ok, err)
	}

	if err := m.Set(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, ok, err := m.Get(ctx, "key")
	if err != nil || !ok {
		t.Fatalf("Get after Set = (%v, %v), want hit", ok, err)
	}
	if string(data) != "value" {
		t.Errorf("Get returned %q, want %q", data, "value")
	}
}

func TestMemoryOverwrite(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	ctx := context.Background()

	m.Set(ctx, "key", []byte("old"), time.Minute)
	m.Set(ctx, "key", []byte("new"), time.Minute)

	data, ok, _ := m.Get(ctx, "key")
	if !ok || string(data) != "new" {
		t.Errorf("Get = (%q, %v), want latest value", data, ok)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	ctx := context.Background()

	m.Set(ctx, "short", []byte("value"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok, _ := m.Get(ctx, "short"); ok {
		t.Error("expired entry should not be served")
	}
	if m.Len() != 0 {
		t.Errorf("expired entry should be evicted on read, Len = %d", m.Len())
	}
}

func TestMemoryStats(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	ctx := context.Background()

	m.Get(ctx, "missing")
	m.Set(ctx, "key", []byte("value"), time.Minute)
	m.Get(ctx, "key")
	m.Set(ctx, "short", []byte("value"), 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	m.Get(ctx, "short")

	stats := m.Snapshot()
	if stats.Hits != 1 {
		t.Errorf("Hits = %d, want 1", stats.Hits)
	}
	if stats.Misses != 2 {
		t.Errorf("Misses = %d, want 2", stats.Misses)
	}
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
}

func TestMemoryCleanupLoop(t *testing.T) {
	m := NewMemory(10 * time.Millisecond)
	defer m.Close()
	ctx := context.Background()

	m.Set(ctx, "short", []byte("value"), 5*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for m.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if m.Len() != 0 {
		t.Error("cleanup loop should remove expired entries without reads")
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", n%3)
			for j := 0; j < 100; j++ {
				m.Set(ctx, key, []byte("value"), time.Minute)
				m.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	if m.Len() != 3 {
		t.Errorf("Len = %d, want 3", m.Len())
	}
}

func TestMemoryCloseIdempotent(t *testing.T) {
	m := NewMemory(0)
	m.Close()
	m.Close()
}
