package messaging

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Handler processes one delivered message.
type Handler func(ctx context.Context, msg Message) error

// Producer publishes to one destination. Send is safe for concurrent use;
// publishes through one producer are serialized.
type Producer struct {
	conn *Connection
	dest Destination
	mu   sync.Mutex
}

func (p *Producer) Destination() Destination {
	return p.dest
}

// Send assigns a message id when msg has none and publishes it.
func (p *Producer) Send(ctx context.Context, msg Message) error {
	if err := p.conn.usable(p.dest); err != nil {
		return err
	}
	if ShapeOf(msg) == ShapeUnknown {
		return ErrUnrecognizedShape.WithDetail("shape", describe(msg))
	}

	meta := msg.Meta()
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}

	data, err := Marshal(msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.broker.Publish(ctx, p.dest, data)
}

// Consumer receives from one destination through a single handler.
type Consumer struct {
	conn *Connection
	dest Destination

	mu      sync.Mutex
	handler Handler
	active  bool
	cancel  context.CancelFunc
}

func (c *Consumer) Destination() Destination {
	return c.dest
}

// Listen registers handler. Delivery starts with the connection.
func (c *Consumer) Listen(handler Handler) error {
	c.mu.Lock()
	if c.handler != nil {
		c.mu.Unlock()
		return ErrAlreadyListening.WithDetail("target", c.dest.String())
	}
	c.handler = handler
	c.mu.Unlock()

	if c.conn.isStarted() {
		return c.activate()
	}
	return nil
}

// Close cancels this consumer's subscription; the connection stays open.
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return nil
}

func (c *Consumer) activate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handler == nil || c.active {
		return nil
	}

	ctx, cancel := context.WithCancel(c.conn.ctx)
	if err := c.conn.broker.Consume(ctx, c.dest, c.conn.deliver(c.dest, c.handler)); err != nil {
		cancel()
		c.conn.logger.Error("failed to subscribe", "destination", c.dest.String(), "error", err)
		return ErrConnection.WithDetail("address", c.conn.address).WithCause(err)
	}

	c.active = true
	c.cancel = cancel
	return nil
}
