package redis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shuldan/reqreply/pkg/messaging"
)

const (
	payloadField = "payload"
	kindField    = "kind"

	queueStart = "0"
	topicStart = "$"
)

// Broker maps destinations onto Redis Streams. A queue is one consumer group
// shared by every consumer, so each entry is read once. A topic gives every
// subscriber its own group created at the stream tail, so each subscriber
// sees the entries added while it is subscribed. Entries are acknowledged
// after the handler returns, whatever it returned.
type Broker struct {
	client     redis.UniversalClient
	config     *config
	ownsClient bool

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	closed  bool
	wg      sync.WaitGroup
}

var _ messaging.Broker = (*Broker)(nil)

// New wraps client. The client is not closed by Close.
func New(client redis.UniversalClient, opts ...Option) *Broker {
	c := defaultConfig()
	for _, opt := range opts {
		opt(c)
	}

	return &Broker{
		client:  client,
		config:  c,
		cancels: make(map[string]context.CancelFunc),
	}
}

func (b *Broker) stream(dest messaging.Destination) string {
	return b.config.streamPrefix + ":" + dest.Name()
}

func (b *Broker) Publish(ctx context.Context, dest messaging.Destination, data []byte) error {
	if b.isClosed() {
		return messaging.ErrClosed
	}

	stream := b.stream(dest)
	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			payloadField: string(data),
			kindField:    dest.Kind().String(),
		},
	}
	if b.config.maxStreamLength > 0 {
		args.MaxLen = b.config.maxStreamLength
		args.Approx = b.config.approximateTrim
	}

	if err := b.client.XAdd(ctx, args).Err(); err != nil {
		return ErrPublishFailed.WithDetail("stream", stream).WithCause(err)
	}
	return nil
}

func (b *Broker) Consume(ctx context.Context, dest messaging.Destination, handler func([]byte) error) error {
	if b.isClosed() {
		return messaging.ErrClosed
	}

	stream := b.stream(dest)
	id := uuid.NewString()
	group := b.config.consumerGroup + ":" + dest.Name()
	start := queueStart
	if dest.IsTopic() {
		group += ":" + id
		start = topicStart
	}

	if err := b.client.XGroupCreateMkStream(ctx, stream, group, start).Err(); err != nil && !isGroupExists(err) {
		return ErrGroupSetupFailed.
			WithDetail("stream", stream).
			WithDetail("group", group).
			WithCause(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	if !b.track(id, cancel) {
		cancel()
		return messaging.ErrClosed
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer b.untrack(id)
		defer cancel()

		b.consumeLoop(ctx, stream, group, b.consumerName(dest, id), handler)

		if dest.IsTopic() {
			if err := b.client.XGroupDestroy(context.WithoutCancel(ctx), stream, group).Err(); err != nil {
				b.config.logger.Warn("failed to remove topic consumer group", "stream", stream, "group", group, "error", err)
			}
		}
	}()

	return nil
}

func (b *Broker) consumeLoop(ctx context.Context, stream, group, consumer string, handler func([]byte) error) {
	failures := 0
	for ctx.Err() == nil {
		result, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    1,
			Block:    b.config.blockTimeout,
		}).Result()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, redis.Nil) {
				failures++
				b.config.logger.Warn("failed to read from stream",
					"stream", stream, "group", group, "failures", failures, "error", err)
				b.pause(ctx, b.config.backoff.Delay(failures))
			}
			continue
		}
		failures = 0

		for _, s := range result {
			for _, msg := range s.Messages {
				b.handle(ctx, stream, group, msg, handler)
			}
		}
	}
}

func (b *Broker) handle(ctx context.Context, stream, group string, msg redis.XMessage, handler func([]byte) error) {
	defer func() {
		if err := b.client.XAck(context.WithoutCancel(ctx), stream, group, msg.ID).Err(); err != nil {
			b.config.logger.Warn("failed to acknowledge entry", "stream", stream, "id", msg.ID, "error", err)
		}
	}()

	payload, ok := msg.Values[payloadField].(string)
	if !ok {
		b.config.logger.Warn("dropping stream entry", "stream", stream, "error", ErrInvalidPayload.WithDetail("id", msg.ID))
		return
	}

	if err := handler([]byte(payload)); err != nil {
		b.config.logger.Debug("message handler failed", "stream", stream, "id", msg.ID, "error", err)
	}
}

func (b *Broker) pause(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// Close stops all consumers and waits for them. The client is closed only
// when the broker was created by a Factory.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for _, cancel := range b.cancels {
		cancel()
	}
	b.mu.Unlock()

	b.wg.Wait()

	if b.ownsClient {
		return b.client.Close()
	}
	return nil
}

func (b *Broker) track(id string, cancel context.CancelFunc) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.cancels[id] = cancel
	return true
}

func (b *Broker) untrack(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.cancels, id)
}

func (b *Broker) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Broker) consumerName(dest messaging.Destination, id string) string {
	prefix := b.config.consumerPrefix
	if prefix != "" {
		prefix += "-"
	}
	return "consumer-" + prefix + dest.Name() + "-" + id
}

func isGroupExists(err error) bool {
	return err != nil && (strings.HasPrefix(err.Error(), "BUSYGROUP") ||
		strings.Contains(err.Error(), "already exists"))
}
