package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpillora/backoff"
)

// Handler processes one message. A non-nil error asks the queue to retry it.
type Handler func(ctx context.Context, payload []byte) error

// Publisher hands a message to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Subscriber attaches a handler to a topic until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler Handler) error
}

// Queue interface
type Queue interface {
	Publisher
	Subscriber
	Close() error
}

// InMemoryQueue delivers every message to all subscribers of its topic, each on its own
// goroutine, retrying failures with exponential backoff.
type InMemoryQueue struct {
	MaxRetries int
	RetryMin   time.Duration
	RetryMax   time.Duration

	log      *slog.Logger
	mu       sync.Mutex // guards handlers, closed and wg.Add
	handlers map[string][]Handler
	closed   bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(log *slog.Logger, maxRetries int) *InMemoryQueue {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &InMemoryQueue{
		MaxRetries: maxRetries,
		RetryMin:   500 * time.Millisecond,
		RetryMax:   30 * time.Second,
		log:        log,
		handlers:   make(map[string][]Handler),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    []byte
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.New("queue closed")
	}
	handlers := q.handlers[topic]
	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := JobPayload{
			Topic:      topic,
			Payload:    append([]byte(nil), payload...),
			MaxRetries: q.MaxRetries,
		}
		q.wg.Add(1)
		go q.processJob(handler, job)
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler Handler, job JobPayload) {
	defer q.wg.Done()

	b := &backoff.Backoff{Min: q.RetryMin, Max: q.RetryMax, Factor: 2, Jitter: true}
	for {
		err := handler(q.ctx, job.Payload)
		if err == nil {
			q.log.Debug("job processed", "topic", job.Topic, "attempts", job.RetryCount+1)
			return
		}

		if job.RetryCount >= job.MaxRetries {
			q.log.Error("job permanently failed", "topic", job.Topic, "attempts", job.RetryCount+1, "error", err)
			return
		}
		job.RetryCount++

		wait := b.Duration()
		q.log.Warn("job failed, retrying", "topic", job.Topic,
			"attempt", job.RetryCount, "max_retries", job.MaxRetries, "retry_in", wait, "error", err)

		select {
		case <-time.After(wait):
		case <-q.ctx.Done():
			q.log.Warn("queue closed with job pending", "topic", job.Topic)
			return
		}
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(ctx context.Context, topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Close stops pending retries and waits for running handlers to return. Publish fails
// once Close has started.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	return nil
}

// Wait blocks until every job published so far has finished.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}
