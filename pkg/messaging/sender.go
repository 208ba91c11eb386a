package messaging

import (
	"context"
	"time"

	"github.com/shuldan/reqreply/pkg/contracts"
	"github.com/shuldan/reqreply/pkg/errors"
	"github.com/shuldan/reqreply/pkg/logger"
)

type SenderOption func(*Sender)

func WithSenderClock(now func() time.Time) SenderOption {
	return func(s *Sender) {
		if now != nil {
			s.now = now
		}
	}
}

func WithSenderLogger(l contracts.Logger) SenderOption {
	return func(s *Sender) {
		if l != nil {
			s.logger = l
		}
	}
}

// Sender publishes timestamped requests: map messages on the queue, text
// messages on the topic.
type Sender struct {
	queue  *Producer
	topic  *Producer
	now    func() time.Time
	logger contracts.Logger
}

func NewSender(session Session, queue, topic Destination, opts ...SenderOption) (*Sender, error) {
	queueProducer, err := session.CreateProducer(queue)
	if err != nil {
		return nil, err
	}
	topicProducer, err := session.CreateProducer(topic)
	if err != nil {
		return nil, err
	}

	s := &Sender{
		queue:  queueProducer,
		topic:  topicProducer,
		now:    time.Now,
		logger: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Sender) SendToQueue(ctx context.Context, text string) error {
	return s.send(ctx, s.queue, EncodeMapRequest(text+FormatTimestamp(s.now())))
}

func (s *Sender) SendToTopic(ctx context.Context, text string) error {
	return s.send(ctx, s.topic, EncodeTextRequest(text+FormatTimestamp(s.now())))
}

func (s *Sender) send(ctx context.Context, p *Producer, msg Message) error {
	if err := p.Send(ctx, msg); err != nil {
		wrapped := ErrSend.WithDetail("destination", p.Destination().String()).WithCause(err)
		s.logger.Error("failed to send request",
			"destination", p.Destination().String(),
			"code", errors.GetErrorCode(err),
			"error", err)
		return wrapped
	}

	s.logger.Debug("request sent", "destination", p.Destination().String(), "id", msg.Meta().ID)
	return nil
}
