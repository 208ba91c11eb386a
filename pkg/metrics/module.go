package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shuldan/reqreply/pkg/app"
	"github.com/shuldan/reqreply/pkg/config"
	"github.com/shuldan/reqreply/pkg/contracts"
	"github.com/shuldan/reqreply/pkg/logger"
	"github.com/shuldan/reqreply/pkg/messaging"
)

const (
	ModuleName     = "metrics"
	DefaultAddress = ":9090"

	shutdownTimeout = 5 * time.Second
)

type module struct {
	enabled   bool
	address   string
	namespace string
	registry  *prometheus.Registry
	server    *http.Server
	listener  net.Listener
	logger    contracts.Logger
}

// NewModule registers a messaging.Counter. With metrics.enabled the counter is
// backed by Prometheus and served on metrics.address at /metrics; otherwise
// it is a no-op.
func NewModule() contracts.AppModule {
	return &module{}
}

func (m *module) Name() string {
	return ModuleName
}

func (m *module) Register(container contracts.DIContainer) error {
	cfg, err := app.Resolve[contracts.Config](container)
	if err != nil {
		cfg = config.NewMapConfig(nil)
	}
	m.enabled = cfg.GetBool("metrics.enabled", false)
	m.address = cfg.GetString("metrics.address", DefaultAddress)
	m.namespace = cfg.GetString("metrics.namespace", DefaultNamespace)

	if !m.enabled {
		return app.Bind[messaging.Counter](container, messaging.NoOpCounter{})
	}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	counter, err := NewCounter(m.registry, m.namespace)
	if err != nil {
		return err
	}
	return app.Bind[messaging.Counter](container, counter)
}

func (m *module) Start(ctx contracts.AppContext) error {
	if !m.enabled {
		return nil
	}

	m.logger = logger.NewNop()
	if l, err := app.Resolve[contracts.Logger](ctx.Container()); err == nil {
		m.logger = l.With("module", ModuleName)
	}

	listener, err := net.Listen("tcp", m.address)
	if err != nil {
		return ErrServeFailed.WithDetail("address", m.address).WithCause(err)
	}
	m.listener = listener

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	}))
	m.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := m.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics endpoint stopped", "error", ErrServeFailed.WithDetail("address", m.address).WithCause(err))
		}
	}()

	m.logger.Info("serving metrics", "address", listener.Addr().String())
	return nil
}

func (m *module) Stop(contracts.AppContext) error {
	if m.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return m.server.Shutdown(ctx)
}
