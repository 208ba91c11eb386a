package app

import (
	"sync"

	"github.com/shuldan/reqreply/pkg/contracts"
	"github.com/shuldan/reqreply/pkg/errors"
)

type registry struct {
	modules []contracts.AppModule
	mu      sync.RWMutex
}

func NewRegistry() contracts.AppRegistry {
	return &registry{}
}

func (r *registry) Register(module contracts.AppModule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = append(r.modules, module)
	return nil
}

func (r *registry) All() []contracts.AppModule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]contracts.AppModule, len(r.modules))
	copy(result, r.modules)
	return result
}

// Shutdown stops modules in reverse registration order and joins the failures.
func (r *registry) Shutdown(ctx contracts.AppContext) error {
	modules := r.All()
	return stopModules(ctx, modules, len(modules))
}

func stopModules(ctx contracts.AppContext, modules []contracts.AppModule, count int) error {
	var errs []error
	for i := count - 1; i >= 0; i-- {
		if err := modules[i].Stop(ctx); err != nil {
			errs = append(errs, ErrModuleStop.WithDetail("module", modules[i].Name()).WithCause(err))
		}
	}
	return errors.Join(errs...)
}
