package cmd

import (
	"context"
	"fmt"

	"worklog/core/catalog"
	"worklog/core/clock"
	"worklog/core/config"
	"worklog/core/database"
	"worklog/core/logger"
	"worklog/core/metrics"
	"worklog/core/remote"
	"worklog/core/scheduler"
	coresettings "worklog/core/settings"
	"worklog/core/storage"
	"worklog/core/store"
	"worklog/feature/integrity"
	"worklog/feature/logs"
	settingsfeature "worklog/feature/settings"
	syncfeature "worklog/feature/sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// application holds the components shared by the server and the commands.
type application struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     *store.Store
	settings  *coresettings.Manager
	connector *remote.Connector
	registry  *prometheus.Registry
	archiver  *storage.Archiver
	scheduler *scheduler.Scheduler

	logs      *logs.Service
	sync      *syncfeature.Service
	settingsS *settingsfeature.Service
	integrity *integrity.Service
}

// newApplication loads the configuration and wires every component. Nothing
// is started; the caller decides whether the scheduler runs.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	clk := clock.RealClock{}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database connection required: %w", err)
	}

	st := store.New(db, clk)
	if err := st.Migrate(); err != nil {
		return nil, err
	}
	seeded, err := st.EnsureSeed(ctx)
	if err != nil {
		return nil, err
	}
	if seeded {
		logg.Info("Local store initialized with demonstration records")
	}

	mgr, err := coresettings.NewManager(ctx, st, cfg.SeedSettings(), logg)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	conn := remote.NewConnector(cfg.Remote.Config, remote.NewTokenCache(st, clk), func() remote.Credentials {
		return mgr.Current().Credentials()
	}, remote.WithLogger(logg))
	loc, err := conn.Location()
	if err != nil {
		return nil, err
	}

	cat := catalog.New(catalog.NewResolver(catalog.DefaultTTL, clk, logg), settingsfeature.CatalogSource(conn, mgr))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	opts := []syncfeature.RunnerOption{syncfeature.WithMetrics(m)}

	var (
		objectClient storage.Client
		archiver     *storage.Archiver
	)
	if cfg.Storage.Enabled {
		objectClient, err = storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		archiver, err = storage.NewArchiver(objectClient, cfg.Storage, clk)
		if err != nil {
			return nil, err
		}
		opts = append(opts, syncfeature.WithArchiver(archiver))
		logg.Info("Snapshot archive enabled", zap.String("bucket", cfg.Storage.Bucket))
	}

	connect := syncfeature.ConnectorFactory(conn)
	runner := syncfeature.NewRunner(st, mgr, connect, logg, opts...)

	sched := scheduler.New(runner, st, mgr.Current().Interval(), logg, m)
	mgr.OnIntervalChange(sched.SetInterval)

	return &application{
		cfg:       cfg,
		logger:    logg,
		store:     st,
		settings:  mgr,
		connector: conn,
		registry:  registry,
		archiver:  archiver,
		scheduler: sched,
		logs:      logs.NewService(st, cat, clk, loc, logg),
		sync:      syncfeature.NewService(sched, runner, st, connect, logg),
		settingsS: settingsfeature.NewService(mgr, cat, logg),
		integrity: integrity.NewService(db, store.Models(), conn, objectClient, cfg.Storage, logg),
	}, nil
}

// Close flushes the logger.
func (a *application) Close() {
	_ = a.logger.Sync()
}
