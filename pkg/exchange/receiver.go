package exchange

import (
	"github.com/shuldan/reqreply/pkg/app"
	"github.com/shuldan/reqreply/pkg/contracts"
	"github.com/shuldan/reqreply/pkg/errors"
	"github.com/shuldan/reqreply/pkg/messaging"
)

const ReceiverModuleName = "exchange.receiver"

type receiverModule struct {
	receiver *messaging.Receiver
}

// NewReceiverModule answers requests from the request queue and the topic
// until the application stops. Under the "process" failure policy a dispatch
// error stops the application.
func NewReceiverModule() contracts.AppModule {
	return &receiverModule{}
}

func (m *receiverModule) Name() string {
	return ReceiverModuleName
}

func (m *receiverModule) Register(contracts.DIContainer) error {
	return nil
}

func (m *receiverModule) Start(ctx contracts.AppContext) error {
	d, err := resolveDeps(ctx.Container(), ReceiverModuleName)
	if err != nil {
		return err
	}

	var counter messaging.Counter = messaging.NoOpCounter{}
	if c, err := app.Resolve[messaging.Counter](ctx.Container()); err == nil {
		counter = c
	}

	policy, err := messaging.ParseFailurePolicy(d.cfg.GetString("receiver.failure_policy", ""))
	if err != nil {
		return err
	}

	conn, err := messaging.Open(ctx.Ctx(), d.factory, messaging.WithConnectionLogger(d.logger))
	if err != nil {
		d.logger.Error("connection failed", "address", d.factory.Address(), "code", errors.GetErrorCode(err), "error", err)
		return err
	}

	dest, err := declare(conn, d.cfg)
	if err != nil {
		_ = conn.Close()
		return err
	}

	producer, err := conn.CreateProducer(dest.responses)
	if err != nil {
		_ = conn.Close()
		return err
	}
	correlator := messaging.NewCorrelator(producer, d.cfg.GetString("receiver.answer", messaging.DefaultAnswer))

	m.receiver = messaging.NewReceiver(conn, correlator,
		messaging.WithReceiverLogger(d.logger),
		messaging.WithCounter(counter),
		messaging.WithFailurePolicy(policy),
	)
	if err := m.receiver.StartListening(dest.requests, dest.topic); err != nil {
		_ = m.receiver.Close()
		return err
	}

	go m.watch(ctx, d.logger)
	return nil
}

func (m *receiverModule) watch(ctx contracts.AppContext, log contracts.Logger) {
	select {
	case <-m.receiver.Done():
		if err := m.receiver.Err(); err != nil {
			log.Critical("receiver stopped after a dispatch failure", "error", err)
			ctx.Stop()
		}
	case <-ctx.Ctx().Done():
	}
}

func (m *receiverModule) Stop(contracts.AppContext) error {
	if m.receiver == nil {
		return nil
	}
	return m.receiver.Close()
}
