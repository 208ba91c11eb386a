package config

import (
	"github.com/shuldan/reqreply/pkg/app"
	"github.com/shuldan/reqreply/pkg/contracts"
)

const ModuleName = "config"

type module struct {
	loader Loader
}

// NewModule layers defaults, the first existing YAML file and environment
// variables starting with envPrefix.
func NewModule(defaults map[string]any, envPrefix string, configPaths ...string) contracts.AppModule {
	return NewModuleWithLoader(NewChainLoader(
		MapLoader(defaults),
		NewYamlConfigLoader(configPaths...),
		NewEnvConfigLoader(envPrefix),
	))
}

func NewModuleWithLoader(loader Loader) contracts.AppModule {
	return &module{loader: loader}
}

func (m *module) Name() string {
	return ModuleName
}

func (m *module) Register(container contracts.DIContainer) error {
	values, err := m.loader.Load()
	if err != nil {
		return err
	}
	return app.Bind(container, NewMapConfig(values))
}

func (m *module) Start(contracts.AppContext) error {
	return nil
}

func (m *module) Stop(contracts.AppContext) error {
	return nil
}
