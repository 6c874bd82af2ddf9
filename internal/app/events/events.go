// Package events carries provisioning events over RabbitMQ. The webhook
// surface and the in-portal features publish here; the consumer feeds the
// provisioning handlers. Queues are durable and messages persistent, so the
// pipeline is at-least-once end to end.
package events

import (
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue names.
const (
	QueueAccountCreated = "medinotify.account.created"
	QueueResultCreated  = "medinotify.result.created"
)

// Broker holds the shared RabbitMQ connection and channel.
type Broker struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBroker dials RabbitMQ and declares both provisioning queues.
func NewBroker(amqpURL string, logger *zap.Logger) (*Broker, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	for _, q := range []string{QueueAccountCreated, QueueResultCreated} {
		_, err = ch.QueueDeclare(
			q,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, err
		}
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "rabbitmq-publisher",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Broker{conn: conn, ch: ch, cb: cb, logger: logger}, nil
}

// Closed reports whether the underlying connection is gone. Used by the
// health endpoint.
func (b *Broker) Closed() bool {
	return b.conn == nil || b.conn.IsClosed()
}

// Close shuts down the channel and connection.
func (b *Broker) Close() error {
	if b.ch != nil {
		if err := b.ch.Close(); err != nil {
			return err
		}
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
