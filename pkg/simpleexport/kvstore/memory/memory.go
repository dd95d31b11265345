package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tendant/simple-export/pkg/simpleexport/kvstore"
)

// Store is an in-memory implementation of kvstore.Store
type Store struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// New creates a new in-memory store
func New() kvstore.Store {
	return &Store{
		entries: make(map[string][]byte),
	}
}

func (s *Store) Get(ctx context.Context, key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if key == "" {
		all := make(map[string]any, len(s.entries))
		for k, data := range s.entries {
			v, err := kvstore.Decode(data)
			if err != nil {
				return nil, err
			}
			all[k] = v
		}
		return all, nil
	}

	data, exists := s.entries[key]
	if !exists {
		return nil, kvstore.KeyError(key)
	}
	return kvstore.Decode(data)
}

func (s *Store) Set(ctx context.Context, key string, value any) error {
	data, err := kvstore.Encode(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = data
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
