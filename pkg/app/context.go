package app

import (
	"context"
	"sync"
	"time"

	"github.com/shuldan/reqreply/pkg/contracts"
)

type appContext struct {
	ctx       context.Context
	container contracts.DIContainer
	cancel    context.CancelFunc
	info      AppInfo
	startTime time.Time
	stopTime  time.Time
	mu        sync.RWMutex
	isRunning bool
}

var _ contracts.AppContext = (*appContext)(nil)

func newAppContext(parent context.Context, info AppInfo, container contracts.DIContainer) *appContext {
	ctx, cancel := context.WithCancel(parent)
	return &appContext{
		ctx:       ctx,
		container: container,
		cancel:    cancel,
		info:      info,
		startTime: time.Now(),
		isRunning: true,
	}
}

func (c *appContext) Ctx() context.Context {
	return c.ctx
}

func (c *appContext) Container() contracts.DIContainer {
	return c.container
}

func (c *appContext) AppName() string {
	return c.info.AppName
}

func (c *appContext) Version() string {
	return c.info.Version
}

func (c *appContext) Environment() string {
	return c.info.Environment
}

func (c *appContext) StartTime() time.Time {
	return c.startTime
}

func (c *appContext) StopTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stopTime
}

func (c *appContext) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isRunning
}

func (c *appContext) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isRunning {
		c.cancel()
		c.stopTime = time.Now()
		c.isRunning = false
	}
}

// NewContext builds a running application context. Run creates its own; this
// is for driving modules outside Run.
func NewContext(parent context.Context, info AppInfo, container contracts.DIContainer) contracts.AppContext {
	return newAppContext(parent, info, container)
}
