package nop

import (
	"context"

	"github.com/papercomputeco/uidsl/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishRevision validates input and otherwise does nothing.
func (p *Publisher) PublishRevision(_ context.Context, event *eventstream.RevisionCreatedEvent) error {
	if event == nil {
		return eventstream.ErrNilRevisionEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
