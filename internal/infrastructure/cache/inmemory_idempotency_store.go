package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
)

type entry struct {
	value     string
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// InMemoryIdempotencyStore keeps request keys in a map.
// It is meant for single-instance deployments and tests.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates a store and starts its cleanup goroutine
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return newInMemoryIdempotencyStore(5 * time.Minute)
}

func newInMemoryIdempotencyStore(cleanupInterval time.Duration) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}
	store.wg.Add(1)
	go store.cleanupLoop(cleanupInterval)
	return store
}

// Remember stores value under key unless a live entry exists
func (s *InMemoryIdempotencyStore) Remember(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if e, exists := s.entries[key]; exists && !e.expired(now) {
		return false, nil
	}
	s.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
	return true, nil
}

// Lookup returns the live value under key
func (s *InMemoryIdempotencyStore) Lookup(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[key]
	if !exists || e.expired(time.Now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

// Forget removes key
func (s *InMemoryIdempotencyStore) Forget(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of entries, expired ones included until cleanup runs
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
