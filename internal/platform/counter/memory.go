package counter

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and single-node deployments.
// Expired keys restart from 1 on the next call.
type MemoryStore struct {
	mu     sync.Mutex
	counts map[string]uint64
	expiry map[string]time.Time
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counts: make(map[string]uint64),
		expiry: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (s *MemoryStore) Next(_ context.Context, key string, ttl time.Duration) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expiry[key]; ok && now.After(exp) {
		delete(s.counts, key)
		delete(s.expiry, key)
	}

	s.counts[key]++
	n := s.counts[key]
	if n == 1 && ttl > 0 {
		s.expiry[key] = now.Add(ttl)
	}
	return n, nil
}
