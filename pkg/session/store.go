package session

import "context"

// Store persists sessions. Implementations hand out copies: mutating a
// returned session never changes stored state.
type Store interface {
	// Get returns the session or a NotFoundError.
	Get(ctx context.Context, id string) (*ChatSession, error)

	// GetOrCreate returns the stored session, creating an empty one first
	// if needed. It is the only way sessions come into existence.
	GetOrCreate(ctx context.Context, id string) (*ChatSession, error)

	// Update runs fn on a copy of the session and stores the result.
	// Calls for the same id are serialized. Nothing is stored when fn
	// returns an error. Returns a NotFoundError for unknown ids.
	Update(ctx context.Context, id string, fn func(*ChatSession) error) (*ChatSession, error)

	// Delete removes a session. Deleting an unknown id is a no-op.
	Delete(ctx context.Context, id string) error

	// List returns every stored session id, sorted.
	List(ctx context.Context) ([]string, error)

	// Close releases any resources.
	Close() error
}
