package messaging

import (
	"strings"
)

const (
	RequestQueueName  = "request.message.queue"
	ResponseQueueName = "response.message.queue"
	TopicName         = "topicJms"
)

type Kind int

const (
	KindQueue Kind = iota + 1
	KindTopic
)

func (k Kind) String() string {
	switch k {
	case KindQueue:
		return "queue"
	case KindTopic:
		return "topic"
	default:
		return "unknown"
	}
}

// Destination names a queue or a topic. The zero value is invalid.
type Destination struct {
	kind Kind
	name string
}

func NewQueue(name string) (Destination, error) {
	return newDestination(KindQueue, name)
}

func NewTopic(name string) (Destination, error) {
	return newDestination(KindTopic, name)
}

func newDestination(kind Kind, name string) (Destination, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Destination{}, ErrInvalidDestination.WithDetail("kind", kind.String())
	}
	return Destination{kind: kind, name: name}, nil
}

func (d Destination) Kind() Kind {
	return d.kind
}

func (d Destination) Name() string {
	return d.name
}

func (d Destination) IsQueue() bool {
	return d.kind == KindQueue
}

func (d Destination) IsTopic() bool {
	return d.kind == KindTopic
}

func (d Destination) IsZero() bool {
	return d.kind == 0 && d.name == ""
}

// String renders the destination as kind://name.
func (d Destination) String() string {
	return d.kind.String() + "://" + d.name
}
