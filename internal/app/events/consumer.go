package events

import (
	"context"
	"encoding/json"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/medinotify/portal/internal/app/provision"
	accountstore "github.com/medinotify/portal/internal/app/store/accounts"
	"github.com/medinotify/portal/internal/app/system/metrics"
)

// Consumer drains both provisioning queues and dispatches to the handlers.
type Consumer struct {
	broker      *Broker
	provisioner *provision.Provisioner
	logger      *zap.Logger
}

func NewConsumer(broker *Broker, provisioner *provision.Provisioner, logger *zap.Logger) *Consumer {
	return &Consumer{broker: broker, provisioner: provisioner, logger: logger}
}

// Run consumes until the context is cancelled or a channel error occurs.
// Transient handler errors nack with requeue; errors that would fail
// identically on every redelivery drop the message instead, so one poison
// event cannot loop forever and starve the queue.
func (c *Consumer) Run(ctx context.Context) error {
	accountMsgs, err := c.consume(QueueAccountCreated)
	if err != nil {
		return err
	}
	resultMsgs, err := c.consume(QueueResultCreated)
	if err != nil {
		return err
	}

	c.logger.Info("event consumer started",
		zap.String("account_queue", QueueAccountCreated),
		zap.String("result_queue", QueueResultCreated))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-accountMsgs:
			if !ok {
				return errors.New("account queue channel closed")
			}
			c.handleAccount(ctx, d)
		case d, ok := <-resultMsgs:
			if !ok {
				return errors.New("result queue channel closed")
			}
			c.handleResult(ctx, d)
		}
	}
}

func (c *Consumer) consume(queue string) (<-chan amqp.Delivery, error) {
	return c.broker.ch.Consume(
		queue,
		"",    // consumer tag (auto-generated)
		false, // autoAck: we ack only after the handler succeeds
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
}

func (c *Consumer) handleAccount(ctx context.Context, d amqp.Delivery) {
	metrics.TriggerDeliveries.WithLabelValues("amqp", "account.created").Inc()

	var evt provision.AccountCreated
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		c.logger.Error("undecodable account event; dropping", zap.Error(err))
		c.reject(d, false)
		return
	}

	err := c.provisioner.HandleAccountCreated(ctx, evt)
	c.finish(d, evt.ID, err)
}

func (c *Consumer) handleResult(ctx context.Context, d amqp.Delivery) {
	metrics.TriggerDeliveries.WithLabelValues("amqp", "result.created").Inc()

	var evt provision.ResultCreated
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		c.logger.Error("undecodable result event; dropping", zap.Error(err))
		c.reject(d, false)
		return
	}

	err := c.provisioner.HandleResultCreated(ctx, evt)
	c.finish(d, evt.PatientID, err)
}

func (c *Consumer) finish(d amqp.Delivery, id string, err error) {
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			c.logger.Error("ack failed", zap.Error(ackErr))
		}
	case errors.Is(err, provision.ErrInvalidEvent):
		c.logger.Warn("invalid event; dropping", zap.String("id", id))
		c.reject(d, false)
	case permanent(err):
		c.logger.Error("permanent handler error; dropping",
			zap.String("id", id),
			zap.Error(err))
		c.reject(d, false)
	default:
		c.logger.Error("event handling failed; requeueing",
			zap.String("id", id),
			zap.Error(err))
		c.reject(d, true)
	}
}

// permanent reports whether a handler error will recur on every redelivery.
// Requeueing such a message only loops it.
func permanent(err error) bool {
	return errors.Is(err, accountstore.ErrDuplicateEmail) ||
		errors.Is(err, accountstore.ErrUnknownCollection)
}

func (c *Consumer) reject(d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		c.logger.Error("nack failed", zap.Error(err))
	}
}
