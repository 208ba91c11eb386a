package messaging

import (
	"context"
)

// Broker is a connected client of a message broker. Implementations live in
// the broker subpackages.
//
// Consume registers handler for dest and returns once the subscription is in
// place. Deliveries for one Consume call are sequential; the subscription ends
// when ctx is cancelled or the broker is closed. Queue destinations hand each
// message to exactly one consumer, topic destinations to every consumer
// subscribed at publish time. Handler errors never cause redelivery, except
// ErrClosed: a queue message refused by a closing consumer goes back to the
// queue where the driver can do so. Topic messages in flight to a closing
// subscriber are dropped.
//
// Close stops every subscription, waits for running handlers and releases the
// client. It must not be called from inside a handler.
type Broker interface {
	Publish(ctx context.Context, dest Destination, data []byte) error
	Consume(ctx context.Context, dest Destination, handler func([]byte) error) error
	Close() error
}

// Factory produces broker clients for one broker address.
type Factory interface {
	Address() string
	Connect(ctx context.Context) (Broker, error)
}

type factoryFunc struct {
	address string
	connect func(ctx context.Context) (Broker, error)
}

// FactoryFunc adapts a function to Factory.
func FactoryFunc(address string, connect func(ctx context.Context) (Broker, error)) Factory {
	return &factoryFunc{address: address, connect: connect}
}

func (f *factoryFunc) Address() string {
	return f.address
}

func (f *factoryFunc) Connect(ctx context.Context) (Broker, error) {
	return f.connect(ctx)
}
