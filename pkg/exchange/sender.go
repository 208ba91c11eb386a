package exchange

import (
	"github.com/shuldan/reqreply/pkg/contracts"
	"github.com/shuldan/reqreply/pkg/errors"
	"github.com/shuldan/reqreply/pkg/messaging"
)

const SenderModuleName = "exchange.sender"

type senderModule struct {
	conn *messaging.Connection
}

// NewSenderModule logs replies from the response queue, then sends one
// request to the queue and one to the topic.
func NewSenderModule() contracts.AppModule {
	return &senderModule{}
}

func (m *senderModule) Name() string {
	return SenderModuleName
}

func (m *senderModule) Register(contracts.DIContainer) error {
	return nil
}

func (m *senderModule) Start(ctx contracts.AppContext) error {
	d, err := resolveDeps(ctx.Container(), SenderModuleName)
	if err != nil {
		return err
	}

	conn, err := messaging.Open(ctx.Ctx(), d.factory, messaging.WithConnectionLogger(d.logger))
	if err != nil {
		d.logger.Error("connection failed", "address", d.factory.Address(), "code", errors.GetErrorCode(err), "error", err)
		return err
	}
	if err := m.exchange(ctx, conn, d); err != nil {
		_ = conn.Close()
		return err
	}
	m.conn = conn
	return nil
}

func (m *senderModule) exchange(ctx contracts.AppContext, conn *messaging.Connection, d deps) error {
	dest, err := declare(conn, d.cfg)
	if err != nil {
		return err
	}

	responses, err := conn.CreateConsumer(dest.responses)
	if err != nil {
		return err
	}
	if err := responses.Listen(messaging.NewResponseLogger(d.logger)); err != nil {
		return err
	}
	if err := conn.Start(); err != nil {
		return err
	}

	sender, err := messaging.NewSender(conn, dest.requests, dest.topic, messaging.WithSenderLogger(d.logger))
	if err != nil {
		return err
	}

	if err := sender.SendToQueue(ctx.Ctx(), d.cfg.GetString("sender.queue_text", DefaultQueueText)); err != nil {
		return err
	}
	return sender.SendToTopic(ctx.Ctx(), d.cfg.GetString("sender.topic_text", DefaultTopicText))
}

func (m *senderModule) Stop(contracts.AppContext) error {
	if m.conn == nil {
		return nil
	}
	return m.conn.Close()
}
