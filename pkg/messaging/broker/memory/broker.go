package memory

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/shuldan/reqreply/pkg/contracts"
	"github.com/shuldan/reqreply/pkg/errors"
	"github.com/shuldan/reqreply/pkg/logger"
	"github.com/shuldan/reqreply/pkg/messaging"
)

const Address = "memory://local"

const defaultBufferSize = 1024

type Option func(*Broker)

func WithLogger(l contracts.Logger) Option {
	return func(b *Broker) {
		if l != nil {
			b.logger = l
		}
	}
}

func WithBufferSize(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

// Broker is an in-process message broker. It is also the messaging.Factory
// for its own clients, so every client connected to one Broker shares its
// queues and topics.
//
// Queue messages are buffered until a consumer takes them; each is taken by
// exactly one consumer. Topic messages go to every subscriber present at
// publish time and are discarded when there is none.
type Broker struct {
	mu         sync.Mutex
	queues     map[string]chan []byte
	topics     map[string]map[uint64]*subscriber
	nextID     uint64
	bufferSize int
	logger     contracts.Logger
}

type subscriber struct {
	ch   chan []byte
	gone chan struct{}
}

var _ messaging.Factory = (*Broker)(nil)

func New(opts ...Option) *Broker {
	b := &Broker{
		queues:     make(map[string]chan []byte),
		topics:     make(map[string]map[uint64]*subscriber),
		bufferSize: defaultBufferSize,
		logger:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Broker) Address() string {
	return Address
}

func (b *Broker) Connect(context.Context) (messaging.Broker, error) {
	ctx, cancel := context.WithCancel(context.Background())
	return &client{broker: b, ctx: ctx, cancel: cancel}, nil
}

func (b *Broker) queue(name string) chan []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.queues[name]; ok {
		return ch
	}
	ch := make(chan []byte, b.bufferSize)
	b.queues[name] = ch
	return ch
}

func (b *Broker) subscribe(topic string) (uint64, *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscriber{
		ch:   make(chan []byte, b.bufferSize),
		gone: make(chan struct{}),
	}
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[uint64]*subscriber)
	}
	b.topics[topic][b.nextID] = sub
	return b.nextID, sub
}

func (b *Broker) unsubscribe(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.topics[topic][id]; ok {
		close(sub.gone)
		delete(b.topics[topic], id)
	}
}

func (b *Broker) subscribers(topic string) []*subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := make([]*subscriber, 0, len(b.topics[topic]))
	for _, sub := range b.topics[topic] {
		subs = append(subs, sub)
	}
	return subs
}

// client is one connection to a Broker.
type client struct {
	broker *Broker
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func (c *client) Publish(ctx context.Context, dest messaging.Destination, data []byte) error {
	if c.isClosed() {
		return messaging.ErrClosed
	}

	if dest.IsQueue() {
		select {
		case c.broker.queue(dest.Name()) <- data:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-c.ctx.Done():
			return messaging.ErrClosed
		}
	}

	for _, sub := range c.broker.subscribers(dest.Name()) {
		select {
		case sub.ch <- data:
		case <-sub.gone:
		case <-ctx.Done():
			return ctx.Err()
		case <-c.ctx.Done():
			return messaging.ErrClosed
		}
	}
	return nil
}

func (c *client) Consume(ctx context.Context, dest messaging.Destination, handler func([]byte) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return messaging.ErrClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)

	var (
		source  <-chan []byte
		requeue = func([]byte) {}
		release = func() {}
	)
	if dest.IsQueue() {
		ch := c.broker.queue(dest.Name())
		source = ch
		requeue = func(data []byte) {
			select {
			case ch <- data:
			default:
				c.broker.logger.Warn("queue full, message dropped on close", "destination", dest.String())
			}
		}
	} else {
		id, sub := c.broker.subscribe(dest.Name())
		source = sub.ch
		release = func() { c.broker.unsubscribe(dest.Name(), id) }
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer stop()
		defer cancel()
		defer release()

		for {
			select {
			case <-ctx.Done():
				return
			case data := <-source:
				if ctx.Err() != nil {
					requeue(data)
					return
				}
				if errors.Is(c.handle(dest, data, handler), messaging.ErrClosed) {
					requeue(data)
					return
				}
			}
		}
	}()

	return nil
}

func (c *client) handle(dest messaging.Destination, data []byte, handler func([]byte) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.broker.logger.Error("panic in message handler",
				"destination", dest.String(),
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	if err = handler(data); err != nil {
		c.broker.logger.Debug("message handler failed", "destination", dest.String(), "error", err)
	}
	return err
}

func (c *client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return nil
}

func (c *client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
