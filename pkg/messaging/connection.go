package messaging

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/shuldan/reqreply/pkg/contracts"
	"github.com/shuldan/reqreply/pkg/logger"
)

// Session is the capability set shared by senders and receivers.
type Session interface {
	DeclareQueue(name string) (Destination, error)
	DeclareTopic(name string) (Destination, error)
	CreateProducer(dest Destination) (*Producer, error)
	CreateConsumer(dest Destination) (*Consumer, error)
}

// Endpoint is a Session with a delivery lifecycle.
type Endpoint interface {
	Session
	Start() error
	Close() error
}

type ConnectionOption func(*Connection)

func WithConnectionLogger(l contracts.Logger) ConnectionOption {
	return func(c *Connection) {
		if l != nil {
			c.logger = l
		}
	}
}

// Connection owns one broker client and the single non-transactional,
// auto-acknowledging session built on it.
type Connection struct {
	broker  Broker
	address string
	logger  contracts.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	started   bool
	closed    bool
	consumers []*Consumer
	inflight  sync.WaitGroup
	closeErr  error
}

var _ Endpoint = (*Connection)(nil)

// Open connects through factory. Failures are returned as ErrConnection and
// are never retried.
func Open(ctx context.Context, factory Factory, opts ...ConnectionOption) (*Connection, error) {
	b, err := factory.Connect(ctx)
	if err != nil {
		return nil, ErrConnection.WithDetail("address", factory.Address()).WithCause(err)
	}

	c := &Connection{
		broker:  b,
		address: factory.Address(),
		logger:  logger.NewNop(),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("address", c.address)

	return c, nil
}

func (c *Connection) Address() string {
	return c.address
}

func (c *Connection) DeclareQueue(name string) (Destination, error) {
	return NewQueue(name)
}

func (c *Connection) DeclareTopic(name string) (Destination, error) {
	return NewTopic(name)
}

func (c *Connection) CreateProducer(dest Destination) (*Producer, error) {
	if err := c.usable(dest); err != nil {
		return nil, err
	}
	return &Producer{conn: c, dest: dest}, nil
}

func (c *Connection) CreateConsumer(dest Destination) (*Consumer, error) {
	if err := c.usable(dest); err != nil {
		return nil, err
	}

	consumer := &Consumer{conn: c, dest: dest}

	c.mu.Lock()
	c.consumers = append(c.consumers, consumer)
	c.mu.Unlock()

	return consumer, nil
}

// Start begins delivery to every consumer that has a handler. Consumers that
// get a handler later start receiving immediately.
func (c *Connection) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	consumers := make([]*Consumer, len(c.consumers))
	copy(consumers, c.consumers)
	c.mu.Unlock()

	for _, consumer := range consumers {
		if err := consumer.activate(); err != nil {
			return err
		}
	}

	c.logger.Debug("connection started", "consumers", len(consumers))
	return nil
}

// Close stops delivery, lets running handlers finish and releases the broker
// client. It is safe to call more than once but not from inside a handler.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return c.closeErr
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	err := c.broker.Close()
	c.inflight.Wait()

	if err != nil {
		c.logger.Error("failed to close broker client", "error", err)
	} else {
		c.logger.Debug("connection closed")
	}

	c.mu.Lock()
	c.closeErr = err
	c.mu.Unlock()
	return err
}

func (c *Connection) isStarted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started && !c.closed
}

func (c *Connection) usable(dest Destination) error {
	if dest.IsZero() {
		return ErrInvalidDestination.WithDetail("kind", "destination")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// enter registers a running handler unless the connection is closing.
func (c *Connection) enter() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.inflight.Add(1)
	return true
}

func (c *Connection) deliver(dest Destination, handler Handler) func([]byte) error {
	return func(data []byte) (err error) {
		if !c.enter() {
			return ErrClosed
		}
		defer c.inflight.Done()

		defer func() {
			if r := recover(); r != nil {
				c.logger.Critical("panic in message handler",
					"destination", dest.String(),
					"panic", r,
					"stack", string(debug.Stack()))
				err = ErrHandlerPanic.WithDetail("destination", dest.String())
			}
		}()

		return handler(context.WithoutCancel(c.ctx), Unmarshal(data))
	}
}
