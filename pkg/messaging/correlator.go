package messaging

import (
	"context"
	"time"
)

// DefaultAnswer is the reply text used when none is configured.
const DefaultAnswer = "This is a Response Message "

// Publisher is the response side of a Correlator.
type Publisher interface {
	Send(ctx context.Context, msg Message) error
	Destination() Destination
}

type CorrelatorOption func(*Correlator)

func WithCorrelatorClock(now func() time.Time) CorrelatorOption {
	return func(c *Correlator) {
		if now != nil {
			c.now = now
		}
	}
}

// Correlator answers requests on a shared response destination. Its state is
// fixed at construction, so Reply is safe for concurrent use.
type Correlator struct {
	publisher Publisher
	answer    string
	now       func() time.Time
}

func NewCorrelator(publisher Publisher, answer string, opts ...CorrelatorOption) *Correlator {
	c := &Correlator{
		publisher: publisher,
		answer:    answer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Correlator) Answer() string {
	return c.answer
}

// Reply publishes a fresh reply echoing requestText, correlated to request.
func (c *Correlator) Reply(ctx context.Context, request Message, requestText string) error {
	reply := EncodeReply(requestText, c.answer, c.now())
	if request != nil && ShapeOf(request) != ShapeUnknown {
		reply.CorrelationID = request.Meta().ID
	}

	if err := c.publisher.Send(ctx, reply); err != nil {
		return ErrSendFailed.WithDetail("destination", c.publisher.Destination().String()).WithCause(err)
	}
	return nil
}
