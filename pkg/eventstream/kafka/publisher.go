// Package kafka publishes revision events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/uidsl/pkg/eventstream"
)

// DefaultTopic is used when Config.Topic is empty.
const DefaultTopic = "uidsl.revisions"

// ErrNoBrokers is returned when a publisher is configured without brokers.
var ErrNoBrokers = errors.New("kafka publisher requires at least one broker")

// Config configures the Kafka publisher.
type Config struct {
	Brokers []string
	Topic   string

	// WriteTimeout bounds a single publish. Zero uses kafka-go's default.
	WriteTimeout time.Duration
}

// messageWriter is the part of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes events keyed by asset id, so every revision of an asset
// lands on the same partition in order.
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates a publisher backed by a kafka-go Writer.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	return NewPublisherWithWriter(&kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           cfg.WriteTimeout,
	}), nil
}

// NewPublisherWithWriter wraps any writer with kafka-go's WriteMessages
// signature.
func NewPublisherWithWriter(w messageWriter) *Publisher {
	return &Publisher{writer: w}
}

// PublishRevision encodes event as JSON and writes it.
func (p *Publisher) PublishRevision(ctx context.Context, event *eventstream.RevisionCreatedEvent) error {
	if event == nil {
		return eventstream.ErrNilRevisionEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding revision event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.Revision.AssetID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(fmt.Sprint(event.SchemaVersion))},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing revision event %s: %w", event.EventID, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
