package events

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/medinotify/portal/internal/app/provision"
)

// PublishAccountCreated enqueues an account-created event.
func (b *Broker) PublishAccountCreated(ctx context.Context, evt provision.AccountCreated) error {
	return b.publish(ctx, QueueAccountCreated, evt)
}

// PublishResultCreated enqueues a result-created event.
func (b *Broker) PublishResultCreated(ctx context.Context, evt provision.ResultCreated) error {
	return b.publish(ctx, QueueResultCreated, evt)
}

func (b *Broker) publish(ctx context.Context, queue string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	_, err = b.cb.Execute(func() (interface{}, error) {
		err := b.ch.PublishWithContext(
			ctx,
			"",    // exchange (default)
			queue, // routing key == queue name
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
			},
		)
		return nil, err
	})
	if err != nil {
		b.logger.Error("event publish failed",
			zap.String("queue", queue),
			zap.Error(err))
		return err
	}

	b.logger.Debug("event published", zap.String("queue", queue))
	return nil
}
