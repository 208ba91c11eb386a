package messaging

import (
	"context"

	"github.com/shuldan/reqreply/pkg/contracts"
)

// NewResponseLogger returns a Handler for the response queue that logs each
// reply's request echo and answer.
func NewResponseLogger(l contracts.Logger) Handler {
	return func(_ context.Context, msg Message) error {
		m, ok := msg.(*MapMessage)
		if !ok || m == nil {
			l.Warn(invalidMessageLog, "shape", describe(msg))
			return nil
		}

		request, found := m.Get(RequestKey)
		if !found {
			return ErrMissingResponse.WithDetail("key", RequestKey)
		}
		response, found := m.Get(ResponseKey)
		if !found {
			return ErrMissingResponse.WithDetail("key", ResponseKey)
		}

		l.Info(request, "correlation_id", m.CorrelationID)
		l.Info(response, "correlation_id", m.CorrelationID)
		return nil
	}
}
