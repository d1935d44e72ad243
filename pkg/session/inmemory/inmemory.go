// Package inmemory provides a map-backed session store.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/papercomputeco/uidsl/pkg/session"
)

// Store implements session.Store using in-memory maps.
type Store struct {
	// mu guards sessions and locks
	mu sync.Mutex

	sessions map[string]*session.ChatSession

	// locks serializes Update per session id. An entry lives while at
	// least one Update holds or waits on it.
	locks map[string]*sessionLock

	now func() time.Time
}

type sessionLock struct {
	sync.Mutex
	refs int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for created and updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*session.ChatSession),
		locks:    make(map[string]*sessionLock),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the session.
func (s *Store) Get(_ context.Context, id string) (*session.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.sessions[id]
	if !ok {
		return nil, session.NotFoundError{ID: id}
	}
	return cs.Clone(), nil
}

// GetOrCreate returns a copy of the session, creating it first if needed.
func (s *Store) GetOrCreate(_ context.Context, id string) (*session.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.sessions[id]
	if !ok {
		cs = session.New(id, s.now())
		s.sessions[id] = cs
	}
	return cs.Clone(), nil
}

// Update runs fn on a copy and stores it when fn succeeds.
func (s *Store) Update(_ context.Context, id string, fn func(*session.ChatSession) error) (*session.ChatSession, error) {
	lock := s.acquire(id)
	defer s.release(id, lock)

	s.mu.Lock()
	stored, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, session.NotFoundError{ID: id}
	}
	current := stored.Clone()

	if err := fn(current); err != nil {
		return nil, err
	}
	current.ID = id
	current.UpdatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Delete, and possibly a re-create, may have raced with fn.
	if s.sessions[id] != stored {
		return nil, session.NotFoundError{ID: id}
	}
	s.sessions[id] = current
	return current.Clone(), nil
}

// Delete removes a session.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// List returns the stored ids, sorted.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// acquire locks the per-id mutex, creating it on first use.
func (s *Store) acquire(id string) *sessionLock {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return l
}

// release unlocks l and drops the map entry once nobody else holds or
// waits on it.
func (s *Store) release(id string, l *sessionLock) {
	l.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
}

var _ session.Store = (*Store)(nil)
