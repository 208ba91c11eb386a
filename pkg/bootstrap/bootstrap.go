package bootstrap

import (
	"os"
	"time"

	"github.com/shuldan/reqreply/pkg/app"
	"github.com/shuldan/reqreply/pkg/config"
	"github.com/shuldan/reqreply/pkg/contracts"
	"github.com/shuldan/reqreply/pkg/exchange"
	"github.com/shuldan/reqreply/pkg/logger"
	"github.com/shuldan/reqreply/pkg/messaging/broker"
	"github.com/shuldan/reqreply/pkg/metrics"
)

const (
	EnvPrefix     = "REQREPLY_"
	ConfigFileEnv = "REQREPLY_CONFIG_FILE"
)

type Bootstrap struct {
	appName         string
	appVersion      string
	appEnvironment  string
	modules         []contracts.AppModule
	gracefulTimeout time.Duration
	appOptions      []app.Option
}

// New starts a program with its config module: built-in defaults, then the
// first existing config file, then REQREPLY_ environment variables.
// REQREPLY_CONFIG_FILE, when set, is tried before configPaths.
func New(appName, appVersion string, configPaths ...string) *Bootstrap {
	appEnvironment := os.Getenv("APP_ENVIRONMENT")
	if appEnvironment == "" {
		appEnvironment = "development"
	}

	if path := os.Getenv(ConfigFileEnv); path != "" {
		configPaths = append([]string{path}, configPaths...)
	}

	return &Bootstrap{
		appName:         appName,
		appVersion:      appVersion,
		appEnvironment:  appEnvironment,
		modules:         []contracts.AppModule{config.NewModule(exchange.Defaults(), EnvPrefix, configPaths...)},
		gracefulTimeout: 30 * time.Second,
	}
}

func (b *Bootstrap) WithGracefulTimeout(timeout time.Duration) *Bootstrap {
	b.gracefulTimeout = timeout
	return b
}

func (b *Bootstrap) WithAppOptions(opts ...app.Option) *Bootstrap {
	b.appOptions = append(b.appOptions, opts...)
	return b
}

func (b *Bootstrap) WithModule(m contracts.AppModule) *Bootstrap {
	b.modules = append(b.modules, m)
	return b
}

func (b *Bootstrap) WithLogger() *Bootstrap {
	return b.WithModule(logger.NewModule())
}

func (b *Bootstrap) WithBroker() *Bootstrap {
	return b.WithModule(broker.NewModule())
}

func (b *Bootstrap) WithMetrics() *Bootstrap {
	return b.WithModule(metrics.NewModule())
}

func (b *Bootstrap) WithReceiver() *Bootstrap {
	return b.WithModule(exchange.NewReceiverModule())
}

func (b *Bootstrap) WithSender() *Bootstrap {
	return b.WithModule(exchange.NewSenderModule())
}

func (b *Bootstrap) CreateApp() (contracts.App, error) {
	opts := append([]app.Option{app.WithGracefulTimeout(b.gracefulTimeout)}, b.appOptions...)
	a := app.New(
		app.AppInfo{
			AppName:     b.appName,
			Version:     b.appVersion,
			Environment: b.appEnvironment,
		},
		app.NewContainer(),
		app.NewRegistry(),
		opts...,
	)

	for _, module := range b.modules {
		if err := a.Register(module); err != nil {
			return nil, err
		}
	}

	return a, nil
}
