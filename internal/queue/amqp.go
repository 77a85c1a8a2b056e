package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

const retryCountHeader = "x-retry-count"

// channel is the part of *amqp.Channel used for publishing.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPQueue publishes to and consumes from durable RabbitMQ queues named after their
// topic. Failed deliveries are republished with an incremented x-retry-count header
// until MaxRetries, then dropped.
type AMQPQueue struct {
	MaxRetries int

	log      *slog.Logger
	conn     *amqp.Connection
	mu       sync.Mutex // guards ch and declared
	ch       channel
	declared map[string]bool
}

// DialAMQP connects to the broker at url and opens the publishing channel.
func DialAMQP(url string, log *slog.Logger, maxRetries int) (*AMQPQueue, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return &AMQPQueue{
		MaxRetries: maxRetries,
		log:        log,
		conn:       conn,
		ch:         ch,
		declared:   make(map[string]bool),
	}, nil
}

func declareQueue(ch channel, topic string) error {
	_, err := ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	return nil
}

// Publish sends payload as a persistent JSON message.
func (q *AMQPQueue) Publish(ctx context.Context, topic string, payload []byte) error {
	return q.publish(ctx, topic, payload, 0)
}

func (q *AMQPQueue) publish(ctx context.Context, topic string, payload []byte, retryCount int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.declared[topic] {
		if err := declareQueue(q.ch, topic); err != nil {
			return err
		}
		q.declared[topic] = true
	}

	err := q.ch.Publish(
		"",    // default exchange
		topic, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Headers:      amqp.Table{retryCountHeader: int32(retryCount)},
			Body:         payload,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe starts consuming topic on a dedicated channel. Deliveries are handled one
// at a time until ctx is done or the channel closes.
func (q *AMQPQueue) Subscribe(ctx context.Context, topic string, handler Handler) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}
	if err := declareQueue(ch, topic); err != nil {
		ch.Close()
		return err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return fmt.Errorf("set prefetch: %w", err)
	}

	msgs, err := ch.Consume(
		topic,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("register consumer on %s: %w", topic, err)
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					q.log.Warn("consumer channel closed", "topic", topic)
					return
				}
				q.deliver(ctx, topic, d, handler)
			}
		}
	}()

	return nil
}

func (q *AMQPQueue) deliver(ctx context.Context, topic string, d amqp.Delivery, handler Handler) {
	err := handler(ctx, d.Body)
	if err == nil {
		d.Ack(false)
		return
	}

	retries := retryCount(d.Headers)
	if retries >= q.MaxRetries {
		q.log.Error("dropping message after retries", "topic", topic, "attempts", retries+1, "error", err)
		d.Ack(false)
		return
	}

	q.log.Warn("message failed, requeueing", "topic", topic,
		"attempt", retries+1, "max_retries", q.MaxRetries, "error", err)
	if pubErr := q.publish(ctx, topic, d.Body, retries+1); pubErr != nil {
		q.log.Error("requeue failed, returning message to broker", "topic", topic, "error", pubErr)
		d.Nack(false, true)
		return
	}
	d.Ack(false)
}

// retryCount reads x-retry-count from message headers; brokers may hand it back as any
// integer width.
func retryCount(headers amqp.Table) int {
	switch v := headers[retryCountHeader].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}

// NotifyClose reports the connection closing, so long-running consumers can exit.
func (q *AMQPQueue) NotifyClose() <-chan *amqp.Error {
	return q.conn.NotifyClose(make(chan *amqp.Error, 1))
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return fmt.Errorf("close channel: %w", err)
	}
	return q.conn.Close()
}
