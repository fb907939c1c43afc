package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"timesolver/internal/config"
	"timesolver/internal/engine"
	"timesolver/internal/jobs"
)

// Run bootstraps the full service from configuration and blocks until
// SIGINT/SIGTERM, then drains in-flight requests.
func Run(cfg *config.Config, logger *zap.Logger) error {
	store, closeStore, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	eng := engine.New(nil, logger)
	runner := jobs.NewRunner(eng, store, logger)
	handler := NewHandler(cfg, eng, runner, store, logger)
	router := NewRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newStore(cfg *config.Config) (jobs.Store, func(), error) {
	switch cfg.Jobs.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ping, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ping).Err(); err != nil {
			return nil, nil, fmt.Errorf("redis unavailable at %s: %w", cfg.Redis.Addr, err)
		}
		return jobs.NewRedisStore(client, cfg.Jobs.TTL), func() { _ = client.Close() }, nil
	case "memory", "":
		store := jobs.NewMemoryStore(cfg.Jobs.TTL, cfg.Jobs.SweepInterval)
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown job store %q", cfg.Jobs.Store)
	}
}
