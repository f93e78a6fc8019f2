package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	coreconfig "github.com/m3rciful/lessonbot/core/config"
	"github.com/m3rciful/lessonbot/core/logger"
)

// DSN renders a lib/pq keyword/value connection string.
func DSN(cfg coreconfig.DatabaseConfig) string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
	)
}

// Connect opens the database connection, configures the pool, and verifies connectivity.
// It retries until the server answers or waitFor elapses, since the bot often starts
// alongside its database container.
func Connect(ctx context.Context, cfg coreconfig.DatabaseConfig, waitFor time.Duration) (*sqlx.DB, error) {
	start := time.Now()
	deadline := start.Add(waitFor)
	var lastErr error
	for attempt := 1; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		db, err := sqlx.ConnectContext(attemptCtx, "postgres", DSN(cfg))
		cancel()
		if err == nil {
			db.SetMaxOpenConns(cfg.MaxConnections)
			db.SetMaxIdleConns(cfg.MaxConnections)
			logger.DB.Info("db connected",
				slog.String("event", "db.connect"),
				slog.String("driver", "postgres"),
				slog.String("host", cfg.Host),
				slog.String("port", cfg.Port),
				slog.String("db", cfg.Name),
				slog.Int("pool_open", cfg.MaxConnections),
				slog.Int("attempts", attempt),
				slog.Duration("duration", logger.Took(start)),
			)
			return db, nil
		}
		lastErr = err
		if time.Now().After(deadline) {
			break
		}
		logger.DB.Debug("db not ready",
			slog.String("event", "db.connect"),
			slog.Int("attempts", attempt),
			slog.String("err", err.Error()),
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("db connect: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}

	logger.DB.Error("db connect failed",
		slog.String("event", "db.connect"),
		slog.String("driver", "postgres"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
		slog.Duration("duration", logger.Took(start)),
		slog.String("err", lastErr.Error()),
	)
	return nil, fmt.Errorf("db connect: %w", lastErr)
}
