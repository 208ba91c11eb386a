package logger

import (
	"github.com/shuldan/reqreply/pkg/app"
	"github.com/shuldan/reqreply/pkg/contracts"
)

const ModuleName = "logger"

type module struct {
	opts []Option
}

// NewModule registers a contracts.Logger. Options from the "logger" config
// section apply first when a config is registered; explicit opts win.
func NewModule(opts ...Option) contracts.AppModule {
	return &module{opts: opts}
}

func (m *module) Name() string {
	return ModuleName
}

func (m *module) Register(container contracts.DIContainer) error {
	return app.Provide(container, func(c contracts.DIContainer) (contracts.Logger, error) {
		var opts []Option
		if cfg, err := app.Resolve[contracts.Config](c); err == nil {
			opts = append(opts, FromConfig(cfg)...)
		}
		return NewLogger(append(opts, m.opts...)...)
	})
}

func (m *module) Start(contracts.AppContext) error {
	return nil
}

func (m *module) Stop(contracts.AppContext) error {
	return nil
}
