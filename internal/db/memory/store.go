// Package memory is an in-process db.Store with per-key TTL and LRU eviction.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/searchlang/internal/db"
)

var _ db.Store = (*Store)(nil)

// DefaultCapacity is used when the configured capacity is not positive.
const DefaultCapacity = 10000

type entry struct {
	key     string
	value   []byte
	expires time.Time // zero means no expiry
}

// Store keeps at most capacity entries, evicting the least recently used.
type Store struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List // front is most recently used
	now      func() time.Time
	closed   bool
}

// NewStore creates an empty store.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Ping fails only after Close.
func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	return nil
}

// Close drops all entries.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.items = make(map[string]*list.Element)
	s.order.Init()
}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Get returns a copy of the value stored at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	e := el.Value.(*entry) //nolint:forcetypeassert // list holds *entry only
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		s.remove(el)
		return nil, db.ErrKeyNotFound
	}
	s.order.MoveToFront(el)
	return append([]byte(nil), e.value...), nil
}

// Set stores value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores value for ttl. A non-positive ttl never expires.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpSet, Err: db.ErrClosed}
	}

	var expires time.Time
	if ttl > 0 {
		expires = s.now().Add(ttl)
	}
	value = append([]byte(nil), value...)

	if el, ok := s.items[key]; ok {
		e := el.Value.(*entry) //nolint:forcetypeassert // list holds *entry only
		e.value, e.expires = value, expires
		s.order.MoveToFront(el)
		return nil
	}

	s.items[key] = s.order.PushFront(&entry{key: key, value: value, expires: expires})
	for s.order.Len() > s.capacity {
		s.remove(s.order.Back())
	}
	return nil
}

// Del removes key.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.items[key]; ok {
		s.remove(el)
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *Store) remove(el *list.Element) {
	s.order.Remove(el)
	delete(s.items, el.Value.(*entry).key) //nolint:forcetypeassert // list holds *entry only
}
