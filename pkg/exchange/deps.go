package exchange

import (
	"github.com/shuldan/reqreply/pkg/app"
	"github.com/shuldan/reqreply/pkg/config"
	"github.com/shuldan/reqreply/pkg/contracts"
	"github.com/shuldan/reqreply/pkg/logger"
	"github.com/shuldan/reqreply/pkg/messaging"
)

type deps struct {
	cfg     contracts.Config
	logger  contracts.Logger
	factory messaging.Factory
}

func resolveDeps(c contracts.DIContainer, module string) (deps, error) {
	factory, err := app.Resolve[messaging.Factory](c)
	if err != nil {
		return deps{}, err
	}

	d := deps{factory: factory, cfg: config.NewMapConfig(nil), logger: logger.NewNop()}
	if cfg, err := app.Resolve[contracts.Config](c); err == nil {
		d.cfg = cfg
	}
	if l, err := app.Resolve[contracts.Logger](c); err == nil {
		d.logger = l
	}
	d.logger = d.logger.With("module", module)
	return d, nil
}
