package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"github.com/unclebandit/groundzero-backend/internal/logger"
)

const (
	exchangeName     = "groundzero.events"
	retryCountHeader = "x-retry-count"
)

// Channel is the subset of *amqp.Channel the queue uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPQueue publishes to a durable topic exchange and consumes through one
// named queue per subscriber group. Failed deliveries are republished with
// an incremented retry header until DefaultMaxRetries, then dropped.
type AMQPQueue struct {
	ch        Channel
	conn      *amqp.Connection
	queueName string
	log       logger.Logger

	pubMu sync.Mutex
}

var _ Queue = (*AMQPQueue)(nil)

// DialAMQP connects to the broker and declares the events exchange.
func DialAMQP(url, queueName string, log logger.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	q, err := NewAMQPQueue(ch, queueName, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	q.conn = conn
	return q, nil
}

func NewAMQPQueue(ch Channel, queueName string, log logger.Logger) (*AMQPQueue, error) {
	if err := ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPQueue{ch: ch, queueName: queueName, log: log}, nil
}

func (q *AMQPQueue) Publish(_ context.Context, topic string, body []byte) error {
	return q.publish(topic, body, 0)
}

func (q *AMQPQueue) publish(topic string, body []byte, retry int32) error {
	q.pubMu.Lock()
	defer q.pubMu.Unlock()
	err := q.ch.Publish(exchangeName, topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{retryCountHeader: retry},
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe binds the queue to topic and handles deliveries until ctx is
// cancelled or the channel closes.
func (q *AMQPQueue) Subscribe(ctx context.Context, topic string, handler Handler) error {
	if _, err := q.ch.QueueDeclare(
		q.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := q.ch.QueueBind(q.queueName, topic, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	msgs, err := q.ch.Consume(
		q.queueName,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					q.log.Warn("amqp delivery channel closed", map[string]interface{}{"topic": topic})
					return
				}
				q.handle(ctx, topic, d, handler)
			}
		}
	}()
	return nil
}

func (q *AMQPQueue) handle(ctx context.Context, topic string, d amqp.Delivery, handler Handler) {
	err := handler(ctx, d.Body)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	retry := retryCount(d.Headers) + 1
	fields := map[string]interface{}{"topic": topic, "attempt": retry, "error": err}
	if retry > DefaultMaxRetries {
		q.log.Error("job permanently failed", fields)
		_ = d.Nack(false, false)
		return
	}

	q.log.Warn("job failed, requeueing", fields)
	if perr := q.publish(topic, d.Body, int32(retry)); perr != nil {
		// Hand it back to the broker rather than lose it.
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func retryCount(h amqp.Table) int {
	switch v := h[retryCountHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func (q *AMQPQueue) Close() error {
	err := q.ch.Close()
	if q.conn != nil {
		if cerr := q.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
