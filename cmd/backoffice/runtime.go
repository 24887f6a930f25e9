package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/havelihousing/backoffice"
	audithook "github.com/havelihousing/backoffice/audit_hook"
	"github.com/havelihousing/backoffice/config"
	"github.com/havelihousing/backoffice/observability"
	"github.com/havelihousing/backoffice/store"
	"github.com/havelihousing/backoffice/store/memory"
	"github.com/havelihousing/backoffice/store/mongo"
	"github.com/havelihousing/backoffice/store/postgres"
	"github.com/havelihousing/backoffice/store/sqlite"
)

func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.LogFormat) {
	case "", "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("config: unknown LOG_FORMAT %q", cfg.LogFormat)
	}
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.StoreDriver {
	case config.DriverMongo:
		logger.Info("connecting to mongo", "database", cfg.MongoDatabase())
		s, err = connected(mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase()))
	case config.DriverPostgres:
		s, err = connected(postgres.Connect(ctx, cfg.DatabaseURL))
	case config.DriverSQLite:
		logger.Info("opening sqlite", "path", cfg.SQLitePath)
		s, err = connected(sqlite.Open(cfg.SQLitePath))
	case config.DriverMemory:
		s = memory.New()
	default:
		err = fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	return s, nil
}

// connected keeps a failed constructor's nil pointer out of the interface.
func connected[S store.Store](s S, err error) (store.Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// buildEngine opens the configured store and registers the audit plugin,
// and the metrics plugin when metrics are enabled. The returned registry
// is nil when metrics are disabled.
func buildEngine(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backoffice.Engine, *prometheus.Registry, error) {
	s, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	opts := []backoffice.Option{
		backoffice.WithLogger(logger),
		backoffice.WithMonthlyTarget(cfg.MonthlyTarget),
		backoffice.WithPlugin(audithook.New(audithook.LogRecorder(logger), audithook.WithLogger(logger))),
	}

	var reg *prometheus.Registry
	if cfg.MetricsEnabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, backoffice.WithPlugin(
			observability.NewMetricsExtension(observability.NewPrometheusFactory(reg)),
		))
	}

	return backoffice.New(s, opts...), reg, nil
}
