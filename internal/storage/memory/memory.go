// Package memory implements an in-process storage.Driver for local runs and
// tests.
package memory

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dias221467/Wishlist_Manager/internal/storage"
)

var _ storage.Driver = (*Store)(nil)

type entry struct {
	obj  storage.Object
	data []byte
}

// Store keeps objects in process memory.
type Store struct {
	mu   sync.RWMutex
	objs map[string]entry
	now  func() time.Time
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{objs: make(map[string]entry), now: time.Now}
}

// Put reads r fully and stores it under key, replacing any previous object.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objs[key] = entry{
		obj: storage.Object{
			Key:          key,
			Size:         int64(len(data)),
			ContentType:  contentType,
			LastModified: s.now().UTC(),
		},
		data: data,
	}
	return nil
}

// Remove deletes key.
func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objs[key]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(s.objs, key)
	return nil
}

// Stat returns metadata for key.
func (s *Store) Stat(_ context.Context, key string) (storage.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.objs[key]
	if !ok {
		return storage.Object{}, storage.ErrObjectNotFound
	}
	return e.obj, nil
}

// List returns objects under prefix sorted by key.
func (s *Store) List(_ context.Context, prefix string) ([]storage.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.Object
	for k, e := range s.objs {
		if strings.HasPrefix(k, prefix) {
			out = append(out, e.obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Content returns a copy of the stored bytes for key.
func (s *Store) Content(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.objs[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), e.data...), true
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objs)
}

// SetClock overrides the time source used for LastModified.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
