package broker

import (
	"net/url"
	"strings"
	"time"

	gonats "github.com/nats-io/nats.go"
	goredis "github.com/redis/go-redis/v9"

	"github.com/shuldan/reqreply/pkg/app"
	"github.com/shuldan/reqreply/pkg/config"
	"github.com/shuldan/reqreply/pkg/contracts"
	"github.com/shuldan/reqreply/pkg/logger"
	"github.com/shuldan/reqreply/pkg/messaging"
	"github.com/shuldan/reqreply/pkg/messaging/broker/memory"
	"github.com/shuldan/reqreply/pkg/messaging/broker/nats"
	"github.com/shuldan/reqreply/pkg/messaging/broker/redis"
)

const (
	ModuleName = "messaging.broker"

	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverNats   = "nats"

	DefaultDriver  = DriverNats
	DefaultAddress = "tcp://localhost:61616"
)

type module struct{}

// NewModule registers a messaging.Factory chosen by the "broker" config section.
func NewModule() contracts.AppModule {
	return &module{}
}

func (m *module) Name() string {
	return ModuleName
}

func (m *module) Register(container contracts.DIContainer) error {
	return app.Provide(container, func(c contracts.DIContainer) (messaging.Factory, error) {
		cfg, err := app.Resolve[contracts.Config](c)
		if err != nil {
			cfg = config.NewMapConfig(nil)
		}
		log, err := app.Resolve[contracts.Logger](c)
		if err != nil {
			log = logger.NewNop()
		}
		return NewFactory(cfg, log)
	})
}

func (m *module) Start(contracts.AppContext) error {
	return nil
}

func (m *module) Stop(contracts.AppContext) error {
	return nil
}

// NewFactory builds the factory for broker.driver. Connections own their
// broker clients, so the factory holds no resources.
func NewFactory(cfg contracts.Config, log contracts.Logger) (messaging.Factory, error) {
	brokerCfg, ok := cfg.GetSub("broker")
	if !ok {
		brokerCfg = config.NewMapConfig(nil)
	}

	driver := strings.ToLower(brokerCfg.GetString("driver", DefaultDriver))
	address := brokerCfg.GetString("address", DefaultAddress)
	log = log.With("driver", driver)

	driverCfg, ok := brokerCfg.GetSub("drivers." + driver)
	if !ok {
		driverCfg = config.NewMapConfig(nil)
	}

	switch driver {
	case DriverMemory:
		return memory.New(memory.WithLogger(log), memory.WithBufferSize(driverCfg.GetInt("buffer_size", 0))), nil
	case DriverRedis:
		return newRedisFactory(address, driverCfg, log)
	case DriverNats:
		return newNatsFactory(address, driverCfg, log)
	default:
		return nil, ErrUnsupportedDriver.WithDetail("driver", driver)
	}
}

func newRedisFactory(address string, cfg contracts.Config, log contracts.Logger) (messaging.Factory, error) {
	host, err := hostPort(address)
	if err != nil {
		return nil, err
	}

	options := &goredis.UniversalOptions{
		Addrs:    []string{host},
		Username: cfg.GetString("username", ""),
		Password: cfg.GetString("password", ""),
		DB:       cfg.GetInt("db", 0),
	}

	opts := []redis.Option{
		redis.WithLogger(log),
		redis.WithStreamPrefix(cfg.GetString("stream_prefix", "")),
		redis.WithConsumerGroup(cfg.GetString("consumer_group", "")),
		redis.WithConsumerPrefix(cfg.GetString("consumer_prefix", "")),
		redis.WithBlockTimeout(cfg.GetDuration("block_timeout_ms", 0)),
		redis.WithMaxStreamLength(cfg.GetInt64("max_stream_length", 0)),
		redis.WithApproximateTrimming(cfg.GetBool("approximate_trimming", true)),
	}
	if base := cfg.GetDuration("retry_backoff_ms", 0); base > 0 {
		opts = append(opts, redis.WithBackoff(redis.ExponentialBackoff{
			Base:     base,
			MaxDelay: cfg.GetDuration("max_backoff_ms", 5*time.Second),
		}))
	}

	return redis.NewFactory(options, opts...), nil
}

func newNatsFactory(address string, cfg contracts.Config, log contracts.Logger) (messaging.Factory, error) {
	host, err := hostPort(address)
	if err != nil {
		return nil, err
	}

	var natsOpts []gonats.Option
	if name := cfg.GetString("name", ""); name != "" {
		natsOpts = append(natsOpts, gonats.Name(name))
	}
	if cfg.Has("max_reconnects") {
		natsOpts = append(natsOpts, gonats.MaxReconnects(cfg.GetInt("max_reconnects")))
	}
	if wait := cfg.GetDuration("reconnect_wait_ms", 0); wait > 0 {
		natsOpts = append(natsOpts, gonats.ReconnectWait(wait))
	}

	return nats.NewFactory("nats://"+host,
		nats.WithLogger(log),
		nats.WithQueueGroup(cfg.GetString("queue_group", "")),
		nats.WithSubjectPrefix(cfg.GetString("subject_prefix", "")),
		nats.WithNatsOptions(natsOpts...),
	), nil
}

// hostPort accepts "tcp://host:port", any other scheme, or a bare "host:port".
func hostPort(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !strings.Contains(address, "://") {
		if address == "" {
			return "", ErrInvalidAddress.WithDetail("address", address)
		}
		return address, nil
	}

	u, err := url.Parse(address)
	if err != nil || u.Host == "" {
		return "", ErrInvalidAddress.WithDetail("address", address).WithCause(err)
	}
	return u.Host, nil
}
