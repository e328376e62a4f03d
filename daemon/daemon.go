// Package daemon wires the ledger's persistent store, in-memory engine,
// HTTP surface and optional metrics server into one process. A
// functional-options constructor builds a Daemon around a
// servicemanager.ServiceManager that Inits and Starts every long-running
// piece under one cancellable context and handles SIGINT/SIGTERM.
package daemon

import (
	"context"
	"fmt"

	"github.com/bsv-blockchain/utxoledger/engine"
	"github.com/bsv-blockchain/utxoledger/errors"
	"github.com/bsv-blockchain/utxoledger/httpapi"
	"github.com/bsv-blockchain/utxoledger/metrics"
	"github.com/bsv-blockchain/utxoledger/settings"
	"github.com/bsv-blockchain/utxoledger/store"
	storeleveldb "github.com/bsv-blockchain/utxoledger/store/leveldb"
	storesql "github.com/bsv-blockchain/utxoledger/store/sql"
	"github.com/bsv-blockchain/utxoledger/ulogger"
	"github.com/bsv-blockchain/utxoledger/util/servicemanager"
)

// Option configures a Daemon before Run is called.
type Option func(*Daemon)

// WithLoggerFactory overrides how the daemon names each service's logger.
func WithLoggerFactory(factory func(serviceName string) ulogger.Logger) Option {
	return func(d *Daemon) {
		d.loggerFactory = factory
	}
}

// WithContext overrides the daemon's root context, e.g. for tests that
// need to cancel it directly instead of relying on a signal.
func WithContext(ctx context.Context) Option {
	return func(d *Daemon) {
		d.ctx = ctx
	}
}

// Daemon owns the process's store, engine and services, and coordinates
// their startup and shutdown.
type Daemon struct {
	ctx           context.Context
	loggerFactory func(serviceName string) ulogger.Logger
	settings      *settings.Settings

	sm     *servicemanager.ServiceManager
	store  store.Store
	Engine *engine.Engine
}

// New constructs a Daemon from cfg. It opens the store and hydrates the
// engine but does not start any service; call Run for that.
func New(cfg *settings.Settings, opts ...Option) (*Daemon, error) {
	d := &Daemon{
		ctx:      context.Background(),
		settings: cfg,
		loggerFactory: func(serviceName string) ulogger.Logger {
			return ulogger.New(serviceName, ulogger.WithLevel(cfg.LogLevel))
		},
	}

	for _, opt := range opts {
		opt(d)
	}

	s, err := openStore(d.loggerFactory("store"), cfg)
	if err != nil {
		return nil, err
	}

	d.store = s

	eng, err := engine.New(d.ctx, s, d.loggerFactory("engine"))
	if err != nil {
		return nil, err
	}

	d.Engine = eng
	d.sm = servicemanager.NewServiceManager(d.ctx, d.loggerFactory("servicemanager"))

	return d, nil
}

// openStore dispatches on cfg.DatabaseURL's scheme: postgres and sqlite
// share store/sql's database/sql-backed implementation, leveldb gets its
// own embedded store/leveldb implementation.
func openStore(logger ulogger.Logger, cfg *settings.Settings) (store.Store, error) {
	switch cfg.DatabaseURL.Scheme {
	case "postgres", "sqlite":
		return storesql.New(logger, cfg.DatabaseURL, storesql.Options{
			MaxOpenConns:   cfg.DB.MaxOpenConns,
			MaxIdleConns:   cfg.DB.MaxIdleConns,
			DataFolder:     cfg.DataFolder,
			ConnectRetries: cfg.DB.ConnectRetries,
		})
	case "leveldb":
		path := cfg.DatabaseURL.Path
		if path == "" {
			path = cfg.DatabaseURL.Opaque
		}

		return storeleveldb.New(logger, path)
	default:
		return nil, errors.NewConfigurationError("unsupported DATABASE_URL scheme %q", cfg.DatabaseURL.Scheme)
	}
}

// Run registers the HTTP surface (and, if configured, the metrics
// server) with the service manager, then blocks until every service
// exits - on a SIGINT/SIGTERM, a service error, or ctx cancellation.
func (d *Daemon) Run() error {
	debug := d.settings.LogLevel == "debug"

	httpSurface := httpapi.New(d.loggerFactory("http"), d.Engine, d.settings.HTTPListenAddress, debug)
	if err := d.sm.AddService("http", httpSurface); err != nil {
		return errors.NewServiceError("failed to add http service: %s", err)
	}

	if d.settings.MetricsListenAddress != "" {
		metrics.Init()

		metricsServer := metrics.NewServer(d.loggerFactory("metrics"), d.settings.MetricsListenAddress)
		if err := d.sm.AddService("metrics", metricsServer); err != nil {
			return errors.NewServiceError("failed to add metrics service: %s", err)
		}
	}

	fmt.Printf("utxoledger listening on %s\n", d.settings.HTTPListenAddress)

	return d.sm.Wait()
}

// Close releases the daemon's store handle. Call after Run returns.
func (d *Daemon) Close() error {
	return d.store.Close()
}
