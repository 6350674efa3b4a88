package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/unclebandit/groundzero-backend/internal/logger"
)

// Handler processes one message body. A non-nil error asks for a retry.
type Handler func(ctx context.Context, body []byte) error

// Queue interface
type Queue interface {
	Publish(ctx context.Context, topic string, body []byte) error
	Subscribe(ctx context.Context, topic string, handler Handler) error
}

const DefaultMaxRetries = 3

// InMemoryQueue delivers messages to in-process subscribers, retrying failed
// handlers with a linear backoff.
type InMemoryQueue struct {
	mu         sync.Mutex
	handlers   map[string][]Handler
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
	inflight   sync.WaitGroup
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(log logger.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]Handler),
		maxRetries: DefaultMaxRetries,
		backoff:    500 * time.Millisecond,
		log:        log,
	}
}

// WithBackoff sets the base delay between attempts.
func (q *InMemoryQueue) WithBackoff(d time.Duration) *InMemoryQueue {
	q.backoff = d
	return q
}

// job wraps a message with retry info
type job struct {
	topic      string
	body       []byte
	retryCount int
}

// Publish hands the message to every subscriber of topic.
func (q *InMemoryQueue) Publish(ctx context.Context, topic string, body []byte) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		q.inflight.Add(1)
		go q.process(context.WithoutCancel(ctx), handler, job{topic: topic, body: body})
	}
	return nil
}

func (q *InMemoryQueue) process(ctx context.Context, handler Handler, j job) {
	defer q.inflight.Done()
	for {
		err := handler(ctx, j.body)
		if err == nil {
			return
		}

		j.retryCount++
		fields := map[string]interface{}{
			"topic":   j.topic,
			"attempt": j.retryCount,
			"error":   err,
		}
		if j.retryCount > q.maxRetries {
			q.log.Error("job permanently failed", fields)
			return
		}
		q.log.Warn("job failed, retrying", fields)
		time.Sleep(time.Duration(j.retryCount) * q.backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(_ context.Context, topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every published message has been handled or given up on.
func (q *InMemoryQueue) Wait() {
	q.inflight.Wait()
}
