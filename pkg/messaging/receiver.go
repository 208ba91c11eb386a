package messaging

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shuldan/reqreply/pkg/contracts"
	"github.com/shuldan/reqreply/pkg/errors"
	"github.com/shuldan/reqreply/pkg/logger"
)

const invalidMessageLog = "Invalid Message Received"

const (
	ChannelQueue = "queue"
	ChannelTopic = "topic"
)

const (
	operationDecode = "decode"
	operationReply  = "reply"
)

type State int

const (
	StateIdle State = iota
	StateListening
	StateDispatching
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateDispatching:
		return "dispatching"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// FailurePolicy decides what happens to the receiver after a dispatch error.
type FailurePolicy int

const (
	// FailMessage drops the failing message and keeps listening.
	FailMessage FailurePolicy = iota
	// FailProcess closes the receiver on the first dispatch error.
	FailProcess
)

func (p FailurePolicy) String() string {
	if p == FailProcess {
		return "process"
	}
	return "message"
}

func ParseFailurePolicy(name string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "message":
		return FailMessage, nil
	case "process":
		return FailProcess, nil
	default:
		return FailMessage, ErrUnknownFailurePolicy.WithDetail("policy", name)
	}
}

// Replier answers a decoded request.
type Replier interface {
	Reply(ctx context.Context, request Message, requestText string) error
}

type ReceiverOption func(*Receiver)

func WithReceiverLogger(l contracts.Logger) ReceiverOption {
	return func(r *Receiver) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithCounter(c Counter) ReceiverOption {
	return func(r *Receiver) {
		if c != nil {
			r.counter = c
		}
	}
}

func WithFailurePolicy(p FailurePolicy) ReceiverOption {
	return func(r *Receiver) {
		r.policy = p
	}
}

// Receiver listens on a request queue and a topic and answers every
// recognized request through its Replier.
type Receiver struct {
	endpoint Endpoint
	replier  Replier
	logger   contracts.Logger
	counter  Counter
	policy   FailurePolicy

	mu        sync.Mutex
	listening bool
	consumers []*Consumer
	inflight  atomic.Int32

	closeOnce sync.Once
	closed    atomic.Bool
	done      chan struct{}
	err       error
	errOnce   sync.Once
}

func NewReceiver(endpoint Endpoint, replier Replier, opts ...ReceiverOption) *Receiver {
	r := &Receiver{
		endpoint: endpoint,
		replier:  replier,
		logger:   logger.NewNop(),
		counter:  NoOpCounter{},
		policy:   FailMessage,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StartListening subscribes to queue and topic and starts the endpoint.
func (r *Receiver) StartListening(queue, topic Destination) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return ErrClosed
	}
	if r.listening {
		return ErrAlreadyListening.WithDetail("target", "receiver")
	}

	bindings := []struct {
		dest    Destination
		channel string
	}{
		{queue, ChannelQueue},
		{topic, ChannelTopic},
	}

	for _, b := range bindings {
		consumer, err := r.endpoint.CreateConsumer(b.dest)
		if err != nil {
			return err
		}
		channel := b.channel
		if err := consumer.Listen(func(ctx context.Context, msg Message) error {
			return r.OnMessage(ctx, channel, msg)
		}); err != nil {
			return err
		}
		r.consumers = append(r.consumers, consumer)
	}

	if err := r.endpoint.Start(); err != nil {
		return err
	}

	r.listening = true
	r.logger.Info("receiver listening",
		"queue", queue.String(),
		"topic", topic.String(),
		"failure_policy", r.policy.String())
	return nil
}

// OnMessage dispatches one delivery received on channel.
func (r *Receiver) OnMessage(ctx context.Context, channel string, msg Message) error {
	r.inflight.Add(1)
	defer r.inflight.Add(-1)

	start := time.Now()
	defer func() {
		r.counter.ObserveDispatch(channel, time.Since(start))
	}()

	r.counter.IncReceived(channel)

	if ShapeOf(msg) == ShapeUnknown {
		r.counter.IncDropped(channel)
		r.logger.Warn(invalidMessageLog, "channel", channel, "shape", describe(msg))
		return nil
	}

	text, err := DecodeRequest(msg)
	if err != nil {
		return r.fail(channel, operationDecode, err)
	}

	r.logger.Info(text)

	if err := r.replier.Reply(ctx, msg, text); err != nil {
		return r.fail(channel, operationReply, err)
	}

	r.counter.IncReplied(channel)
	return nil
}

func (r *Receiver) fail(channel, operation string, cause error) error {
	err := ErrDispatch.
		WithDetail("channel", channel).
		WithDetail("operation", operation).
		WithCause(cause)

	r.counter.IncFailed(channel, operation)
	r.logger.Error(err.Error(),
		"channel", channel,
		"operation", operation,
		"code", errors.GetErrorCode(cause))

	if r.policy == FailProcess {
		r.errOnce.Do(func() {
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
			go func() {
				_ = r.Close()
			}()
		})
	}
	return err
}

// Close stops delivery and closes the endpoint. Done is closed afterwards.
func (r *Receiver) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		err = r.endpoint.Close()
		if err != nil {
			r.logger.Error("failed to close receiver", "error", err)
		}
		close(r.done)
	})
	return err
}

func (r *Receiver) Done() <-chan struct{} {
	return r.done
}

// Err returns the dispatch error that closed the receiver under FailProcess.
func (r *Receiver) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Receiver) State() State {
	if r.closed.Load() {
		return StateClosed
	}
	r.mu.Lock()
	listening := r.listening
	r.mu.Unlock()
	if !listening {
		return StateIdle
	}
	if r.inflight.Load() > 0 {
		return StateDispatching
	}
	return StateListening
}

