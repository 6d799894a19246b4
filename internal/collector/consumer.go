// Package collector consumes telemetry readings from RabbitMQ queues and
// feeds them to the ingestion pipeline. Malformed payloads are acknowledged
// and dropped; store failures are nacked so the broker redelivers them.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"gridpulse.dev/telemetry/pkg/mq"
)

// Handler processes one decoded queue message. Returning an error causes
// the delivery to be nacked and redelivered.
type Handler func(ctx context.Context, body []byte) error

// Consumer drains one queue into the ingestion pipeline.
type Consumer struct {
	logger    *slog.Logger
	mqClient  mq.ClientInterface
	handle    Handler
	queueName string
	done      chan struct{}
}

// Config holds the configuration for a Consumer.
type Config struct {
	Logger      *slog.Logger
	RabbitMQURL string
	QueueName   string
	Handler     Handler
	// Client overrides the RabbitMQ client, mainly for tests. When nil a
	// real client is created from RabbitMQURL.
	Client mq.ClientInterface
}

// NewConsumer creates a new Consumer instance.
func NewConsumer(cfg *Config) (*Consumer, error) {
	if cfg == nil {
		return nil, errors.New("consumer config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.QueueName == "" {
		return nil, errors.New("queue name cannot be empty")
	}

	if cfg.Handler == nil {
		return nil, errors.New("handler cannot be nil")
	}

	client := cfg.Client
	if client == nil {
		if cfg.RabbitMQURL == "" {
			return nil, errors.New("rabbitmq URL cannot be empty")
		}
		client = mq.New(cfg.QueueName, cfg.RabbitMQURL, cfg.Logger)
	}

	return &Consumer{
		logger:    cfg.Logger,
		mqClient:  client,
		handle:    cfg.Handler,
		queueName: cfg.QueueName,
		done:      make(chan struct{}),
	}, nil
}

// Start begins consuming messages from the queue.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting collector", "queue", c.queueName)

	// Give the MQ client time to finish its initial connection.
	time.Sleep(2 * time.Second)

	deliveries, err := c.mqClient.Consume()
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("collector started, waiting for readings", "queue", c.queueName)

	go c.processMessages(ctx, deliveries)
	return nil
}

func (c *Consumer) processMessages(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("context canceled, stopping collector", "queue", c.queueName)
			close(c.done)
			return

		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Warn("deliveries channel closed", "queue", c.queueName)
				close(c.done)
				return
			}

			c.handleDelivery(ctx, delivery)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	if err := c.handle(ctx, delivery.Body); err != nil {
		var bad *MalformedPayloadError
		if errors.As(err, &bad) {
			// Poison message: ack it away so it is not redelivered forever.
			c.logger.Error("dropping malformed payload",
				"queue", c.queueName,
				"error", err,
			)
			if ackErr := delivery.Ack(false); ackErr != nil {
				c.logger.Error("failed to ack message", "error", ackErr)
			}
			return
		}

		// Store failure: nack for redelivery once the store recovers.
		c.logger.Error("failed to ingest reading",
			"queue", c.queueName,
			"error", err,
		)
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			c.logger.Error("failed to nack message", "error", nackErr)
		}
		return
	}

	if err := delivery.Ack(false); err != nil {
		c.logger.Error("failed to ack message", "error", err)
	}
}

// Stop stops the consumer and closes the MQ client.
func (c *Consumer) Stop() error {
	c.logger.Info("stopping collector", "queue", c.queueName)

	if err := c.mqClient.Close(); err != nil {
		return fmt.Errorf("failed to close mq client: %w", err)
	}

	<-c.done

	c.logger.Info("collector stopped", "queue", c.queueName)
	return nil
}

// MalformedPayloadError marks a message that can never be processed, so the
// consumer drops it instead of requeueing.
type MalformedPayloadError struct {
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload: %v", e.Err)
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}
