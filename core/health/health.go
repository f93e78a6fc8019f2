// Package health serves the liveness check and Prometheus metrics over HTTP.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coreconfig "github.com/m3rciful/lessonbot/core/config"
	"github.com/m3rciful/lessonbot/core/logger"
)

// AliveText is the body returned by the liveness routes.
const AliveText = "OK - Bot is running!"

const shutdownTimeout = 5 * time.Second

// Server wraps a fiber app bound to the configured address.
type Server struct {
	app  *fiber.App
	addr string
}

// New builds the server. Routes: "/" and "/health" answer AliveText, "/metrics" exposes Prometheus.
func New(cfg coreconfig.HealthConfig) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
	})

	alive := func(c *fiber.Ctx) error {
		return c.SendString(AliveText)
	}
	app.Get("/", alive)
	app.Get("/health", alive)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return &Server{
		app:  app,
		addr: net.JoinHostPort(cfg.Listen, strconv.Itoa(cfg.Port)),
	}
}

// App exposes the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Addr returns the listen address.
func (s *Server) Addr() string { return s.addr }

// Run listens until ctx is done, then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.addr)
	}()

	logger.Info(ctx, "health", "listen",
		slog.String("status", "ok"),
		slog.String("addr", s.addr),
	)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("health: listen %s: %w", s.addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn(ctx, "health", "shutdown",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return err
	}
	<-errCh
	logger.Info(ctx, "health", "shutdown", slog.String("status", "ok"))
	return nil
}
