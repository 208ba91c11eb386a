package app

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/shuldan/reqreply/pkg/contracts"
)

type AppInfo struct {
	AppName     string
	Version     string
	Environment string
}

type Option func(*app)

type app struct {
	container       contracts.DIContainer
	registry        contracts.AppRegistry
	info            AppInfo
	parent          context.Context
	isRunning       int32
	shutdownTimeout time.Duration
	handleSignals   bool
}

func New(info AppInfo, container contracts.DIContainer, registry contracts.AppRegistry, opts ...Option) contracts.App {
	if container == nil {
		container = NewContainer()
	}
	if registry == nil {
		registry = NewRegistry()
	}

	a := &app{
		container:       container,
		registry:        registry,
		info:            info,
		parent:          context.Background(),
		shutdownTimeout: 10 * time.Second,
		handleSignals:   true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func WithGracefulTimeout(timeout time.Duration) Option {
	return func(a *app) {
		a.shutdownTimeout = timeout
	}
}

// WithContext makes the application stop when parent is done.
func WithContext(parent context.Context) Option {
	return func(a *app) {
		a.parent = parent
	}
}

func WithoutSignals() Option {
	return func(a *app) {
		a.handleSignals = false
	}
}

func (a *app) Register(module contracts.AppModule) error {
	return a.registry.Register(module)
}

// Run registers and starts every module, blocks until the application context
// is stopped (signal, parent context or a module calling Stop) and then stops
// the started modules in reverse order.
func (a *app) Run() error {
	if !atomic.CompareAndSwapInt32(&a.isRunning, 0, 1) {
		return ErrAppRun.WithDetail("reason", "application is already running")
	}
	defer atomic.StoreInt32(&a.isRunning, 0)

	ctx := newAppContext(a.parent, a.info, a.container)
	defer ctx.Stop()

	modules := a.registry.All()
	for _, module := range modules {
		if err := module.Register(a.container); err != nil {
			return ErrModuleRegister.WithDetail("module", module.Name()).WithCause(err)
		}
	}

	for i, module := range modules {
		if err := module.Start(ctx); err != nil {
			ctx.Stop()
			_ = stopModules(ctx, modules, i)
			return ErrModuleStart.WithDetail("module", module.Name()).WithCause(err)
		}
	}

	if a.handleSignals {
		go watchSignals(ctx)
	}

	<-ctx.Ctx().Done()
	ctx.Stop()

	return a.shutdown(ctx)
}

func (a *app) shutdown(ctx *appContext) error {
	if a.shutdownTimeout <= 0 {
		return a.registry.Shutdown(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.registry.Shutdown(ctx)
	}()

	timer := time.NewTimer(a.shutdownTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.C:
		return ErrAppStop.WithDetail("reason", "graceful shutdown timed out after "+a.shutdownTimeout.String())
	}
}

func watchSignals(ctx contracts.AppContext) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		ctx.Stop()
	case <-ctx.Ctx().Done():
	}
}
