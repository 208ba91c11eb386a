package contracts

import (
	"context"
	"reflect"
	"time"
)

// DIContainer holds the shared services of a running process: the config,
// the logger, the broker factory and the receiver counter.
type DIContainer interface {
	Has(abstract reflect.Type) bool
	Instance(abstract reflect.Type, concrete any) error
	Factory(abstract reflect.Type, factory func(c DIContainer) (any, error)) error
	Resolve(abstract reflect.Type) (any, error)
}

// AppContext is handed to every module on Start and Stop. Ctx is cancelled
// once Stop is called, either by a signal or by a module giving up.
type AppContext interface {
	Ctx() context.Context
	Container() DIContainer
	AppName() string
	Version() string
	Environment() string
	StartTime() time.Time
	StopTime() time.Time
	IsRunning() bool
	Stop()
}

type AppModule interface {
	Name() string
	Register(container DIContainer) error
	Start(ctx AppContext) error
	Stop(ctx AppContext) error
}

// AppRegistry stops modules in reverse registration order.
type AppRegistry interface {
	Register(module AppModule) error
	All() []AppModule
	Shutdown(ctx AppContext) error
}

type App interface {
	Register(module AppModule) error
	Run() error
}
