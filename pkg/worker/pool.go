// Package worker provides an asynchronous worker pool that publishes
// revision events using the provided eventstream.Publisher.
//
// The pool keeps event delivery off the request path so a slow or
// unavailable broker never delays a patch response.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/uidsl/pkg/eventstream"
	"github.com/papercomputeco/uidsl/pkg/revision"
)

var (
	defaultNumWorkers     uint = 3
	defaultJobQueueSize   uint = 256
	defaultPublishTimeout      = 10 * time.Second
)

// ErrNoPublisher is returned when a pool is created without a publisher.
var ErrNoPublisher = errors.New("worker pool requires a publisher")

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Revision *revision.Revision
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher receives one event per job.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// PublishTimeout bounds each publish call (defaults to 10s).
	PublishTimeout time.Duration

	Logger *slog.Logger
}

// Pool publishes revision events asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
	now    func() time.Time
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, ErrNoPublisher
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.PublishTimeout == 0 {
		c.PublishTimeout = defaultPublishTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	if job.Revision == nil {
		p.logger.Error("job not queued, nil revision")
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"revision", job.Revision.ID,
			"asset", job.Revision.AssetID,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"revision", job.Revision.ID,
			"asset", job.Revision.AssetID,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("event worker stopped", "worker_id", id)
}

// processJob publishes the revision-created event for a job.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
	defer cancel()

	event := eventstream.NewRevisionCreatedEvent(job.Revision, p.now())
	if err := p.config.Publisher.PublishRevision(ctx, event); err != nil {
		p.logger.Error("revision event publish failed",
			"revision", job.Revision.ID,
			"event", event.EventID,
			"error", err,
		)
		return
	}

	p.logger.Debug("revision event published",
		"revision", job.Revision.ID,
		"event", event.EventID,
	)
}
