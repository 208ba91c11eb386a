package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/shuldan/reqreply/pkg/messaging"
)

// Factory connects brokers to one Redis deployment. Each Connect creates and
// pings a new client, which the returned broker closes.
type Factory struct {
	options   *redis.UniversalOptions
	opts      []Option
	newClient func(*redis.UniversalOptions) redis.UniversalClient
}

var _ messaging.Factory = (*Factory)(nil)

func NewFactory(options *redis.UniversalOptions, opts ...Option) *Factory {
	return &Factory{
		options:   options,
		opts:      opts,
		newClient: redis.NewUniversalClient,
	}
}

func (f *Factory) Address() string {
	if len(f.options.Addrs) == 0 {
		return ""
	}
	return "redis://" + f.options.Addrs[0]
}

func (f *Factory) Connect(ctx context.Context) (messaging.Broker, error) {
	client := f.newClient(f.options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, ErrPingFailed.WithDetail("address", f.Address()).WithCause(err)
	}

	b := New(client, f.opts...)
	b.ownsClient = true
	return b, nil
}
