package nats

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/shuldan/reqreply/pkg/contracts"
	"github.com/shuldan/reqreply/pkg/errors"
	"github.com/shuldan/reqreply/pkg/logger"
	"github.com/shuldan/reqreply/pkg/messaging"
)

var newNatsBrokerCode = errors.WithPrefix("NATS_BROKER")

var (
	ErrConnectFailed   = newNatsBrokerCode().New("cannot connect to nats at {{.url}}")
	ErrPublishFailed   = newNatsBrokerCode().New("failed to publish to subject {{.subject}}")
	ErrSubscribeFailed = newNatsBrokerCode().New("failed to subscribe to subject {{.subject}}")
)

const (
	DefaultQueueGroup = "reqreply"
	drainTimeout      = 10 * time.Second
	flushTimeout      = 5 * time.Second
)

type Option func(*Factory)

func WithQueueGroup(group string) Option {
	return func(f *Factory) {
		if group != "" {
			f.queueGroup = group
		}
	}
}

func WithSubjectPrefix(prefix string) Option {
	return func(f *Factory) {
		f.subjectPrefix = prefix
	}
}

func WithLogger(l contracts.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithNatsOptions passes client options through to nats.Connect.
func WithNatsOptions(opts ...nats.Option) Option {
	return func(f *Factory) {
		f.natsOpts = append(f.natsOpts, opts...)
	}
}

// Factory dials a NATS server. Queues map to queue subscriptions sharing one
// group; topics map to plain subscriptions.
type Factory struct {
	url           string
	queueGroup    string
	subjectPrefix string
	natsOpts      []nats.Option
	logger        contracts.Logger
}

var _ messaging.Factory = (*Factory)(nil)

func NewFactory(url string, opts ...Option) *Factory {
	f := &Factory{
		url:        url,
		queueGroup: DefaultQueueGroup,
		logger:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) Address() string {
	return f.url
}

func (f *Factory) Connect(ctx context.Context) (messaging.Broker, error) {
	b := &Broker{
		queueGroup:    f.queueGroup,
		subjectPrefix: f.subjectPrefix,
		logger:        f.logger,
		closed:        make(chan struct{}),
	}

	opts := append([]nats.Option{}, f.natsOpts...)
	opts = append(opts,
		nats.DrainTimeout(drainTimeout),
		nats.ClosedHandler(func(*nats.Conn) { b.closeOnce.Do(func() { close(b.closed) }) }),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				f.logger.Warn("nats disconnected", "url", f.url, "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			f.logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)

	conn, err := nats.Connect(f.url, opts...)
	if err != nil {
		return nil, ErrConnectFailed.WithDetail("url", f.url).WithCause(err)
	}
	if err := flush(ctx, conn); err != nil {
		conn.Close()
		return nil, ErrConnectFailed.WithDetail("url", f.url).WithCause(err)
	}

	b.conn = conn
	return b, nil
}

// Broker is one NATS connection. Close drains it, so callbacks already
// running finish before Close returns.
type Broker struct {
	conn          *nats.Conn
	queueGroup    string
	subjectPrefix string
	logger        contracts.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

var _ messaging.Broker = (*Broker)(nil)

func (b *Broker) subject(dest messaging.Destination) string {
	return b.subjectPrefix + dest.Name()
}

func (b *Broker) Publish(_ context.Context, dest messaging.Destination, data []byte) error {
	if b.conn.IsClosed() || b.conn.IsDraining() {
		return messaging.ErrClosed
	}

	subject := b.subject(dest)
	if err := b.conn.Publish(subject, data); err != nil {
		return ErrPublishFailed.WithDetail("subject", subject).WithCause(err)
	}
	return nil
}

func (b *Broker) Consume(ctx context.Context, dest messaging.Destination, handler func([]byte) error) error {
	if b.conn.IsClosed() || b.conn.IsDraining() {
		return messaging.ErrClosed
	}

	subject := b.subject(dest)
	cb := func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			b.logger.Debug("message handler failed", "subject", subject, "error", err)
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if dest.IsQueue() {
		sub, err = b.conn.QueueSubscribe(subject, b.queueGroup, cb)
	} else {
		sub, err = b.conn.Subscribe(subject, cb)
	}
	if err != nil {
		return ErrSubscribeFailed.WithDetail("subject", subject).WithCause(err)
	}

	// the subscription must be registered on the server before publishes
	// from other connections can reach it
	if err := flush(ctx, b.conn); err != nil {
		_ = sub.Unsubscribe()
		return ErrSubscribeFailed.WithDetail("subject", subject).WithCause(err)
	}

	context.AfterFunc(ctx, func() {
		if err := sub.Unsubscribe(); err != nil && !b.conn.IsClosed() {
			b.logger.Debug("failed to unsubscribe", "subject", subject, "error", err)
		}
	})
	return nil
}

func (b *Broker) Close() error {
	if b.conn.IsClosed() {
		return nil
	}
	if err := b.conn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionDraining) {
		b.conn.Close()
	}
	<-b.closed
	return nil
}

// flush waits for the server to process everything sent so far. nats.go
// rejects contexts without a deadline, so one is added when missing.
func flush(ctx context.Context, conn *nats.Conn) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	return conn.FlushWithContext(ctx)
}
