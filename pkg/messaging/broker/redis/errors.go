package redis

import "github.com/shuldan/reqreply/pkg/errors"

var newRedisBrokerCode = errors.WithPrefix("REDIS_BROKER")

var (
	ErrInvalidPayload   = newRedisBrokerCode().New("stream entry {{.id}} has no payload field")
	ErrPublishFailed    = newRedisBrokerCode().New("failed to add message to stream {{.stream}}")
	ErrGroupSetupFailed = newRedisBrokerCode().New("failed to create consumer group {{.group}} on {{.stream}}")
	ErrPingFailed       = newRedisBrokerCode().New("redis at {{.address}} did not answer ping")
)
