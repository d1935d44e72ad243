package eventstream

import "context"

// Publisher publishes revision events to an event stream backend.
type Publisher interface {
	PublishRevision(ctx context.Context, event *RevisionCreatedEvent) error
	Close() error
}
