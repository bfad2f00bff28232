package auth

import (
	"context"
	"sync"
)

// MemoryStore keeps the credential in process memory. It does not survive
// a restart; use the repository package for durable storage.
type MemoryStore struct {
	mu         sync.RWMutex
	credential string
	found      bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

var _ CredentialStore = (*MemoryStore)(nil)

func (s *MemoryStore) Save(_ context.Context, credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
	s.found = true
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential, s.found, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = ""
	s.found = false
	return nil
}
