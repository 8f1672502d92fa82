package store

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/ndvi-service/internal/ndvi"
)

// MemoryStore is a concurrency-safe in-memory SAS token cache.
type MemoryStore struct {
	mu sync.RWMutex

	// key: account/container
	data map[string]ndvi.SASToken

	// maxEntries bounds the cache; 0 means unlimited.
	maxEntries int
}

// NewMemoryStore creates a new MemoryStore. If maxEntries is <= 0, it is treated as unlimited.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]ndvi.SASToken),
		maxEntries: maxEntries,
	}
}

// SaveToken stores token under key, evicting the soonest-expiring entry when full.
func (s *MemoryStore) SaveToken(_ context.Context, key string, token ndvi.SASToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; !exists && s.maxEntries > 0 && len(s.data) >= s.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, t := range s.data {
			if oldestKey == "" || t.Expiry.Before(oldest) {
				oldestKey, oldest = k, t.Expiry
			}
		}
		delete(s.data, oldestKey)
	}

	s.data[key] = token
	return nil
}

// GetToken returns the cached token for key, if any. Expiry is checked by the caller.
func (s *MemoryStore) GetToken(_ context.Context, key string) (ndvi.SASToken, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[key]
	return t, ok, nil
}

// Prune drops tokens that expired at or before now and returns how many were removed.
func (s *MemoryStore) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, t := range s.data {
		if !t.Expiry.After(now) {
			delete(s.data, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached tokens.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
