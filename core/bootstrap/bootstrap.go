package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/lessonbot/core/config"
	coredatabase "github.com/m3rciful/lessonbot/core/database"
	"github.com/m3rciful/lessonbot/core/logger"
	"github.com/m3rciful/lessonbot/internal/store"
)

// dbWait bounds how long startup waits for Postgres to accept connections.
const dbWait = 30 * time.Second

// Options control the bootstrap pipeline.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	OpenStore  func(ctx context.Context, cfg *coreconfig.Config) (store.Backend, error)

	Modules Modules
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Datasets *store.Datasets
}

// Close releases the storage backend.
func (r *Result) Close() error {
	if r == nil || r.Datasets == nil {
		return nil
	}
	return r.Datasets.Close()
}

// Run initializes the logger, opens the configured storage backend and runs seeders.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	open := opts.OpenStore
	if open == nil {
		open = OpenStore
	}
	backend, err := open(ctx, opts.Config)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: storage initialization failed: %w", err)
	}
	datasets := store.New(backend)

	seeders := opts.Modules.Seeders
	if dir := opts.Config.Storage.ImportDir; dir != "" {
		seeders = append([]Seeder{ImportSeeder(dir)}, seeders...)
	}
	for _, s := range seeders {
		if err := s.Seed(ctx, datasets); err != nil {
			_ = datasets.Close()
			return nil, fmt.Errorf("bootstrap: seeding failed: %w", err)
		}
	}

	return &Result{Datasets: datasets}, nil
}

// OpenStore builds the backend selected by storage.driver.
func OpenStore(ctx context.Context, cfg *coreconfig.Config) (store.Backend, error) {
	switch cfg.Storage.Driver {
	case coreconfig.StoragePostgres:
		db, err := coredatabase.Connect(ctx, cfg.Storage.Database, dbWait)
		if err != nil {
			return nil, err
		}
		if err := coredatabase.RunMigrations(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		return store.NewPostgresBackend(db), nil
	default:
		b, err := store.NewFileBackend(cfg.Storage.Dir)
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "store", "open",
			slog.String("status", "ok"),
			slog.String("driver", coreconfig.StorageFile),
			slog.String("dir", cfg.Storage.Dir),
		)
		return b, nil
	}
}
