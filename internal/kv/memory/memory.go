package memory

import (
	"context"
	"sync"

	"fintrack/internal/kv"
)

// Store keeps values in process memory. Values are copied on the way in
// and out so callers never share buffers with the store.
type Store struct {
	mu          sync.Mutex
	data        map[string][]byte
	unavailable bool
}

func New() *Store {
	return &Store{data: map[string][]byte{}}
}

// NewSeeded returns a store pre-filled with the given values.
func NewSeeded(seed map[string][]byte) *Store {
	s := New()
	for k, v := range seed {
		s.data[k] = append([]byte(nil), v...)
	}
	return s
}

// NewUnavailable returns a store whose every call fails with
// kv.ErrUnavailable.
func NewUnavailable() *Store {
	return &Store{unavailable: true}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s.unavailable {
		return nil, false, kv.ErrUnavailable
	}
	if err := kv.ValidateKey(key); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if s.unavailable {
		return kv.ErrUnavailable
	}
	if err := kv.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Close() error { return nil }
