// Package mock provides a mock implementation of the mq client interface for
// testing consumers and producers without a broker.
package mock

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"gridpulse.dev/telemetry/pkg/mq"
)

// Client is a mock implementation of mq.ClientInterface. It records calls
// and returns the configured errors; Consume hands out Deliveries so tests
// can feed messages through a consumer.
type Client struct {
	mu sync.Mutex

	// PushError is returned by Push and UnsafePush.
	PushError error
	// Pushed holds the payloads of all Push and UnsafePush calls.
	Pushed [][]byte

	// Deliveries is returned by Consume.
	Deliveries chan amqp.Delivery
	// ConsumeError is returned by Consume.
	ConsumeError error
	// ConsumeCalls counts Consume invocations.
	ConsumeCalls int

	// CloseError is returned by Close.
	CloseError error
	// CloseCalls counts Close invocations.
	CloseCalls int
}

// NewClient creates a mock client with a buffered delivery channel.
func NewClient() *Client {
	return &Client{
		Deliveries: make(chan amqp.Delivery, 16),
	}
}

// Push implements mq.ClientInterface.
func (c *Client) Push(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Pushed = append(c.Pushed, data)
	return c.PushError
}

// UnsafePush implements mq.ClientInterface.
func (c *Client) UnsafePush(ctx context.Context, data []byte) error {
	return c.Push(ctx, data)
}

// Consume implements mq.ClientInterface.
func (c *Client) Consume() (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ConsumeCalls++
	return c.Deliveries, c.ConsumeError
}

// Close implements mq.ClientInterface. It closes the delivery channel so
// consumers draining it observe shutdown.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.CloseCalls++
	if c.CloseCalls == 1 && c.Deliveries != nil {
		close(c.Deliveries)
	}
	return c.CloseError
}

var _ mq.ClientInterface = (*Client)(nil)
