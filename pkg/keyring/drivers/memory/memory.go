// Package memory provides an in-memory Keyring driver. State does not
// survive the process, so it only suits tests and targets with no writable
// storage.
package memory

import (
	"context"
	"sync"

	"github.com/fleetsure/fleetsure-go/pkg/keyring"
)

type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
}

var _ keyring.Keyring = (*Store)(nil)

func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, keyring.ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = stored
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
