// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"errors"

	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/config"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/currency"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/di"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/health"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/logger"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/metrics"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/stream"
	"github.com/prem-pandian/smartphone-price-tracker-v2/internal/wsconn"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Currencies() *currency.Registry
	Server() *health.Server
	Publisher() stream.Publisher
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type app struct {
	config     *config.Config
	logger     logger.LoggerInterface
	currencies *currency.Registry
	server     *health.Server
	hub        *wsconn.Hub
	redis      *stream.RedisPublisher
	publisher  stream.Publisher
	container  di.Container
}

// New creates the application container. srv may be nil for one-shot
// commands that serve no HTTP. extra sinks receive every published event.
func New(cfg *config.Config, log logger.LoggerInterface, srv *health.Server, extra ...stream.Publisher) (*app, error) {
	currencies := currency.DefaultRegistry()
	if !currencies.Has(cfg.Currency.Base) {
		return nil, errors.New("unsupported base currency " + cfg.Currency.Base)
	}

	recorder, err := metrics.NewRecorder(nil)
	if err != nil {
		return nil, err
	}

	a := &app{
		config:     cfg,
		logger:     log,
		currencies: currencies,
		server:     srv,
		container:  di.NewContainer(),
	}

	sinks := []stream.Publisher{}
	if cfg.Redis.Enabled {
		a.redis = stream.NewRedisPublisher(stream.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Stream:   cfg.Redis.Stream,
			MaxLen:   cfg.Redis.MaxLen,
		})
		sinks = append(sinks, a.redis)
	}
	if srv != nil && cfg.Server.EnableAPI {
		a.hub = wsconn.NewHub(wsconn.DefaultConfig(), log)
		sinks = append(sinks, stream.PublisherFunc(func(_ context.Context, eventType string, data any) error {
			return a.hub.Broadcast(eventType, data)
		}))
	}
	sinks = append(sinks, extra...)
	a.publisher = stream.Noop
	if len(sinks) > 0 {
		a.publisher = stream.Multi(sinks...)
	}

	if srv != nil && a.redis != nil {
		srv.RegisterCheck("redis", func(ctx context.Context) (bool, string) {
			if err := a.redis.Ping(ctx); err != nil {
				return false, err.Error()
			}
			return true, "ok"
		})
	}

	// Register global services
	a.container.Register("config", cfg)
	a.container.Register("logger", log)
	a.container.Register("currencyRegistry", currencies)
	a.container.Register("recorder", recorder)
	a.container.Register("publisher", a.publisher)
	if a.hub != nil {
		a.container.Register("hub", a.hub)
	}

	return a, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) Currencies() *currency.Registry {
	return a.currencies
}

// Server is nil when no HTTP server runs.
func (a *app) Server() *health.Server {
	return a.server
}

func (a *app) Publisher() stream.Publisher {
	return a.publisher
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all resources.
func (a *app) Close() error {
	if a.hub != nil {
		a.hub.Close()
	}
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
