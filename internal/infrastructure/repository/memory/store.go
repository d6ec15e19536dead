// Package memory keeps credentials in process memory. Nothing survives a
// restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/kirillkom/unit-converter/internal/core/domain"
)

type Store struct {
	mu    sync.RWMutex
	users map[string]string
}

func NewStore() *Store {
	return &Store{users: make(map[string]string)}
}

func (s *Store) CreateCredential(_ context.Context, cred domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[cred.Username]; ok {
		return domain.WrapError(domain.ErrUsernameTaken, "create credential", fmt.Errorf("username=%s", cred.Username))
	}
	s.users[cred.Username] = cred.PasswordHash
	return nil
}

func (s *Store) GetCredential(_ context.Context, username string) (*domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.users[username]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get credential", fmt.Errorf("username=%s", username))
	}
	return &domain.Credential{Username: username, PasswordHash: hash}, nil
}
