package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/ports"
)

// Store implements ports.TokenStore in memory.
// Safe for concurrent use. Tokens are lost when the process exits.
type Store struct {
	data map[string]ports.Token
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]ports.Token),
	}
}

// Save keeps the token in memory.
func (s *Store) Save(ctx context.Context, clientID string, token ports.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[clientID] = token
	return nil
}

// Load retrieves the token from memory.
func (s *Store) Load(ctx context.Context, clientID string) (ports.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.data[clientID]
	if !ok {
		return ports.Token{}, domain.ErrTokenNotFound
	}
	return token, nil
}

// Delete removes the token.
func (s *Store) Delete(ctx context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, clientID)
	return nil
}

// List returns the clients holding a token, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]string, 0, len(s.data))
	for id := range s.data {
		clients = append(clients, id)
	}
	sort.Strings(clients)
	return clients, nil
}
