// Package redisstore provides a session store backed by Redis. Sessions are
// stored as JSON values; updates use optimistic WATCH transactions.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/papercomputeco/uidsl/pkg/session"
)

const (
	// DefaultPrefix namespaces session keys.
	DefaultPrefix = "uidsl:session:"

	// DefaultMaxRetries bounds how often Update retries a lost WATCH race.
	DefaultMaxRetries = 10
)

// ErrTooManyRetries is returned when Update keeps losing WATCH races.
var ErrTooManyRetries = errors.New("session update retries exhausted")

// Store implements session.Store on Redis.
type Store struct {
	client     redis.UniversalClient
	prefix     string
	ttl        time.Duration
	maxRetries int
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTTL expires sessions after ttl of inactivity. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithMaxRetries sets how often Update retries a lost WATCH race.
func WithMaxRetries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithClock overrides time.Now for created and updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore connects to addr, pings it, and returns a Store.
func NewStore(ctx context.Context, addr, password string, db int, opts ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", addr, err)
	}
	return New(client, opts...), nil
}

// New wraps an existing client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client:     client,
		prefix:     DefaultPrefix,
		maxRetries: DefaultMaxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

// Get loads a session.
func (s *Store) Get(ctx context.Context, id string) (*session.ChatSession, error) {
	return s.load(ctx, s.client, id)
}

// GetOrCreate creates the session with SETNX so concurrent callers agree on
// one creation.
func (s *Store) GetOrCreate(ctx context.Context, id string) (*session.ChatSession, error) {
	fresh := session.New(id, s.now())
	data, err := json.Marshal(fresh)
	if err != nil {
		return nil, fmt.Errorf("encoding session %s: %w", id, err)
	}

	created, err := s.client.SetNX(ctx, s.key(id), data, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("creating session %s: %w", id, err)
	}
	if created {
		return fresh, nil
	}
	return s.Get(ctx, id)
}

// Update runs fn inside a WATCH transaction, retrying when another writer
// changed the session first.
func (s *Store) Update(ctx context.Context, id string, fn func(*session.ChatSession) error) (*session.ChatSession, error) {
	key := s.key(id)

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		var updated *session.ChatSession

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := s.load(ctx, tx, id)
			if err != nil {
				return err
			}
			if err := fn(current); err != nil {
				return err
			}
			current.ID = id
			current.UpdatedAt = s.now()

			data, err := json.Marshal(current)
			if err != nil {
				return fmt.Errorf("encoding session %s: %w", id, err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, s.ttl)
				return nil
			})
			if err != nil {
				return err
			}
			updated = current
			return nil
		}, key)

		switch {
		case err == nil:
			return updated, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTooManyRetries, id)
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// List scans for session keys.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// getter is the read side shared by clients and transactions.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Store) load(ctx context.Context, c getter, id string) (*session.ChatSession, error) {
	data, err := c.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	var cs session.ChatSession
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &cs, nil
}

var _ session.Store = (*Store)(nil)
