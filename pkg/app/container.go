package app

import (
	"reflect"
	"sync"

	"github.com/shuldan/reqreply/pkg/contracts"
)

type container struct {
	mu        sync.RWMutex
	factories map[reflect.Type]func(c contracts.DIContainer) (any, error)
	instances map[reflect.Type]any
}

func NewContainer() contracts.DIContainer {
	return &container{
		factories: make(map[reflect.Type]func(c contracts.DIContainer) (any, error)),
		instances: make(map[reflect.Type]any),
	}
}

func (c *container) Has(abstract reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, hasFactory := c.factories[abstract]
	_, hasInstance := c.instances[abstract]
	return hasFactory || hasInstance
}

func (c *container) Instance(abstract reflect.Type, concrete any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.instances[abstract]; exists {
		return ErrDuplicateInstance.WithDetail("type", abstract.String())
	}
	c.instances[abstract] = concrete
	return nil
}

func (c *container) Factory(abstract reflect.Type, factory func(c contracts.DIContainer) (any, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.factories[abstract]; exists {
		return ErrDuplicateFactory.WithDetail("type", abstract.String())
	}
	c.factories[abstract] = factory
	return nil
}

func (c *container) Resolve(abstract reflect.Type) (any, error) {
	return c.resolveWithStack(abstract, make(map[reflect.Type]bool))
}

// resolveWithStack builds singletons lazily; the factory runs outside the lock
// so it may resolve its own dependencies through the proxy.
func (c *container) resolveWithStack(abstract reflect.Type, resolving map[reflect.Type]bool) (any, error) {
	c.mu.RLock()
	instance, exists := c.instances[abstract]
	factory, hasFactory := c.factories[abstract]
	c.mu.RUnlock()

	if exists {
		return instance, nil
	}
	if resolving[abstract] {
		return nil, ErrCircularDep.WithDetail("type", abstract.String())
	}
	if !hasFactory {
		return nil, ErrValueNotFound.WithDetail("type", abstract.String())
	}

	resolving[abstract] = true
	defer delete(resolving, abstract)

	built, err := factory(&containerProxy{container: c, resolving: resolving})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, exists := c.instances[abstract]; exists {
		return existing, nil
	}
	c.instances[abstract] = built
	return built, nil
}

type containerProxy struct {
	container *container
	resolving map[reflect.Type]bool
}

func (cp *containerProxy) Has(abstract reflect.Type) bool {
	return cp.container.Has(abstract)
}

func (cp *containerProxy) Instance(abstract reflect.Type, concrete any) error {
	return cp.container.Instance(abstract, concrete)
}

func (cp *containerProxy) Factory(abstract reflect.Type, factory func(c contracts.DIContainer) (any, error)) error {
	return cp.container.Factory(abstract, factory)
}

func (cp *containerProxy) Resolve(abstract reflect.Type) (any, error) {
	return cp.container.resolveWithStack(abstract, cp.resolving)
}

// Bind registers a ready instance under the static type T.
func Bind[T any](c contracts.DIContainer, value T) error {
	return c.Instance(reflect.TypeFor[T](), value)
}

// Provide registers a lazy singleton factory under the static type T.
func Provide[T any](c contracts.DIContainer, factory func(c contracts.DIContainer) (T, error)) error {
	return c.Factory(reflect.TypeFor[T](), func(c contracts.DIContainer) (any, error) {
		return factory(c)
	})
}

// Resolve fetches the value registered under T.
func Resolve[T any](c contracts.DIContainer) (T, error) {
	var zero T
	raw, err := c.Resolve(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, ErrTypeMismatch.WithDetail("type", reflect.TypeFor[T]().String())
	}
	return v, nil
}
