package mq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ClientInterface defines the interface for message queue operations so
// consumers and publishers can be tested against a fake.
type ClientInterface interface {
	// Push publishes data onto the queue and blocks until the broker
	// confirms it, retrying with backoff while the connection recovers.
	Push(ctx context.Context, data []byte) error

	// UnsafePush publishes without waiting for a broker confirmation.
	UnsafePush(ctx context.Context, data []byte) error

	// Consume continuously delivers queue items on the returned channel.
	// Each delivery must be Ack'd after successful processing or Nack'd
	// on failure, otherwise messages accumulate on the broker.
	Consume() (<-chan amqp.Delivery, error)

	// Close cleanly shuts down the channel and connection.
	Close() error
}
