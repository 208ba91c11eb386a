package exchange

import (
	"github.com/shuldan/reqreply/pkg/contracts"
	"github.com/shuldan/reqreply/pkg/messaging"
	"github.com/shuldan/reqreply/pkg/messaging/broker"
)

const (
	DefaultQueueText = "This is a Request Message to a queue "
	DefaultTopicText = "This is a Request Message to a topic "
)

// Defaults is the lowest config layer for both programs.
func Defaults() map[string]any {
	return map[string]any{
		"broker": map[string]any{
			"driver":  broker.DefaultDriver,
			"address": broker.DefaultAddress,
		},
		"destinations": map[string]any{
			"request_queue":  messaging.RequestQueueName,
			"response_queue": messaging.ResponseQueueName,
			"topic":          messaging.TopicName,
		},
		"receiver": map[string]any{
			"answer":         messaging.DefaultAnswer,
			"failure_policy": messaging.FailMessage.String(),
		},
		"sender": map[string]any{
			"queue_text": DefaultQueueText,
			"topic_text": DefaultTopicText,
		},
		"logger": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"metrics": map[string]any{
			"enabled": false,
		},
	}
}

type destinations struct {
	requests  messaging.Destination
	responses messaging.Destination
	topic     messaging.Destination
}

func declare(session messaging.Session, cfg contracts.Config) (destinations, error) {
	var (
		d   destinations
		err error
	)
	if d.requests, err = session.DeclareQueue(cfg.GetString("destinations.request_queue", messaging.RequestQueueName)); err != nil {
		return d, err
	}
	if d.responses, err = session.DeclareQueue(cfg.GetString("destinations.response_queue", messaging.ResponseQueueName)); err != nil {
		return d, err
	}
	if d.topic, err = session.DeclareTopic(cfg.GetString("destinations.topic", messaging.TopicName)); err != nil {
		return d, err
	}
	return d, nil
}
