package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/papercomputeco/uidsl/pkg/dsl"
)

// DefaultRecentMessages is the window RecentMessages uses when n <= 0.
const DefaultRecentMessages = 6

// Manager is the session API the chat and patch handlers call.
type Manager struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	recent int
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithClock overrides time.Now for message and history timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// WithRecentMessages sets the default RecentMessages window.
func WithRecentMessages(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.recent = n
		}
	}
}

// NewManager returns a Manager over store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		now:    func() time.Time { return time.Now().UTC() },
		recent: DefaultRecentMessages,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// Now returns the manager's clock reading.
func (m *Manager) Now() time.Time {
	return m.now()
}

// GetOrCreateSession returns the session for id, creating it on first use.
func (m *Manager) GetOrCreateSession(ctx context.Context, id string) (*ChatSession, error) {
	s, err := m.store.GetOrCreate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting or creating session %s: %w", id, err)
	}
	return s, nil
}

// NewSession creates a session under a fresh id.
func (m *Manager) NewSession(ctx context.Context) (*ChatSession, error) {
	s, err := m.GetOrCreateSession(ctx, NewID())
	if err != nil {
		return nil, err
	}
	m.logger.Debug("session created", "session", s.ID)
	return s, nil
}

// GetSession returns the session or a NotFoundError.
func (m *Manager) GetSession(ctx context.Context, id string) (*ChatSession, error) {
	return m.store.Get(ctx, id)
}

// Update runs fn inside the session's serialized read-modify-write.
func (m *Manager) Update(ctx context.Context, id string, fn func(*ChatSession) error) (*ChatSession, error) {
	return m.store.Update(ctx, id, fn)
}

// UpdateSessionAsset binds the session to an asset/revision pair and
// optionally refreshes the cached tree and code.
func (m *Manager) UpdateSessionAsset(ctx context.Context, id, assetID, revisionID string, tree *dsl.Node, code *string) (*ChatSession, error) {
	return m.store.Update(ctx, id, func(s *ChatSession) error {
		s.BindAsset(assetID, revisionID, tree, code)
		return nil
	})
}

// AddMessageToHistory appends a conversation turn, stamping it when the
// timestamp is zero.
func (m *Manager) AddMessageToHistory(ctx context.Context, id string, msg Message) (*ChatSession, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = m.now()
	}
	return m.store.Update(ctx, id, func(s *ChatSession) error {
		s.AppendMessage(msg)
		return nil
	})
}

// AddPatchToHistory appends a patch entry on top of the current head.
func (m *Manager) AddPatchToHistory(ctx context.Context, id string, entry PatchEntry) (*ChatSession, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = m.now()
	}
	return m.store.Update(ctx, id, func(s *ChatSession) error {
		s.AppendPatch(entry)
		return nil
	})
}

// RecentMessages returns the last n messages of a session. n <= 0 uses the
// manager's default window.
func (m *Manager) RecentMessages(ctx context.Context, id string, n int) ([]Message, error) {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = m.recent
	}
	return s.RecentMessages(n), nil
}

// Undo moves the session back one history entry.
func (m *Manager) Undo(ctx context.Context, id string) (*ChatSession, PatchEntry, error) {
	var entry PatchEntry
	s, err := m.store.Update(ctx, id, func(s *ChatSession) error {
		e, err := s.Undo()
		entry = e
		return err
	})
	if err != nil {
		return nil, PatchEntry{}, err
	}
	m.logger.Debug("session undo", "session", id, "head", s.Head, "target", entry.TargetID)
	return s, entry, nil
}

// Redo moves the session forward one history entry.
func (m *Manager) Redo(ctx context.Context, id string) (*ChatSession, PatchEntry, error) {
	var entry PatchEntry
	s, err := m.store.Update(ctx, id, func(s *ChatSession) error {
		e, err := s.Redo()
		entry = e
		return err
	})
	if err != nil {
		return nil, PatchEntry{}, err
	}
	m.logger.Debug("session redo", "session", id, "head", s.Head, "target", entry.TargetID)
	return s, entry, nil
}

// Clear resets a session to empty, keeping its id.
func (m *Manager) Clear(ctx context.Context, id string) (*ChatSession, error) {
	s, err := m.store.Update(ctx, id, func(s *ChatSession) error {
		s.Reset()
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("session cleared", "session", id)
	return s, nil
}

// Delete removes a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

// List returns every session id.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}
