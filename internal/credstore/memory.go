package credstore

import (
	"context"
	"sync"

	"github.com/soreli/soreli-cli/internal/idp"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the credential in process memory only
type MemoryStore struct {
	mu   sync.RWMutex
	cred *idp.Credential
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the saved credential
func (s *MemoryStore) Load(ctx context.Context) (*idp.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cred == nil {
		return nil, ErrNotFound
	}
	copy := *s.cred
	return &copy, nil
}

// Save stores a copy of the credential
func (s *MemoryStore) Save(ctx context.Context, cred *idp.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *cred
	s.cred = &copy
	return nil
}

// Clear discards the saved credential
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cred = nil
	return nil
}
