package redis

import (
	"time"

	"github.com/shuldan/reqreply/pkg/contracts"
	"github.com/shuldan/reqreply/pkg/logger"
)

type Option func(*config)

type config struct {
	streamPrefix    string
	consumerGroup   string
	consumerPrefix  string
	blockTimeout    time.Duration
	backoff         Backoff
	maxStreamLength int64
	approximateTrim bool
	logger          contracts.Logger
}

func defaultConfig() *config {
	return &config{
		streamPrefix:    "reqreply",
		consumerGroup:   "reqreply",
		blockTimeout:    500 * time.Millisecond,
		backoff:         ExponentialBackoff{Base: 100 * time.Millisecond, MaxDelay: 5 * time.Second},
		approximateTrim: true,
		logger:          logger.NewNop(),
	}
}

// WithStreamPrefix sets the key prefix; destination "x" lives in stream "<prefix>:x".
func WithStreamPrefix(prefix string) Option {
	return func(c *config) {
		if prefix != "" {
			c.streamPrefix = prefix
		}
	}
}

func WithConsumerGroup(group string) Option {
	return func(c *config) {
		if group != "" {
			c.consumerGroup = group
		}
	}
}

func WithConsumerPrefix(prefix string) Option {
	return func(c *config) {
		c.consumerPrefix = prefix
	}
}

func WithBlockTimeout(timeout time.Duration) Option {
	return func(c *config) {
		if timeout > 0 {
			c.blockTimeout = timeout
		}
	}
}

// WithBackoff sets the pause between failed stream reads.
func WithBackoff(b Backoff) Option {
	return func(c *config) {
		if b != nil {
			c.backoff = b
		}
	}
}

func WithMaxStreamLength(maxLen int64) Option {
	return func(c *config) {
		c.maxStreamLength = maxLen
	}
}

func WithApproximateTrimming(enabled bool) Option {
	return func(c *config) {
		c.approximateTrim = enabled
	}
}

func WithLogger(l contracts.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
