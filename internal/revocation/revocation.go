// Package revocation tracks bearer tokens that were logged out before they expired.
package revocation

import (
	"context"
	"sync"
	"time"
)

// Store remembers revoked token IDs (the jwt "jti") until the token would have expired anyway.
type Store interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryStore is the single-process Store used when no REDIS_URL is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]time.Time{}, now: time.Now}
}

func (s *MemoryStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if !until.After(now) {
		return nil
	}
	s.pruneLocked(now)
	s.entries[tokenID] = until
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !until.After(s.now()) {
		delete(s.entries, tokenID)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) pruneLocked(now time.Time) {
	for id, until := range s.entries {
		if !until.After(now) {
			delete(s.entries, id)
		}
	}
}
