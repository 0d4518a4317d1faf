package sessionrepofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-practice-client/session"
)

var _ session.Store = (*FakeSessionStore)(nil)

// FakeSessionStore keeps session values in memory. It backs the "memory" session backend
// and the tests.
type FakeSessionStore struct {
	values map[session.Key]string
	lock   sync.RWMutex
}

func NewFakeSessionStore() *FakeSessionStore {
	return &FakeSessionStore{
		values: make(map[session.Key]string),
	}
}

func (s *FakeSessionStore) Get(_ context.Context, key session.Key) (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *FakeSessionStore) Set(_ context.Context, key session.Key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.values[key] = value
	return nil
}

func (s *FakeSessionStore) Clear(_ context.Context, keys ...session.Key) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// Snapshot returns a copy of everything stored.
func (s *FakeSessionStore) Snapshot() map[session.Key]string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := make(map[session.Key]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
