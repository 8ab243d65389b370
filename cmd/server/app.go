package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-collect/auth"
	"github.com/diewo77/go-collect/internal/config"
	"github.com/diewo77/go-collect/internal/db"
	"github.com/diewo77/go-collect/internal/handlers"
	"github.com/diewo77/go-collect/internal/logging"
	"github.com/diewo77/go-collect/internal/metrics"
	"github.com/diewo77/go-collect/internal/policy"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// app holds the process-wide dependencies shared by the commands.
type app struct {
	cfg   *config.Config
	log   *slog.Logger
	db    *gorm.DB
	redis *redis.Client
}

func bootstrap(ctx context.Context) (*app, error) {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.Logging)
	slog.SetDefault(log)

	conn, err := db.Connect(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, db: conn}, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// connectRedis returns nil when Redis is not configured or unreachable;
// roles are then cached in-process only.
func connectRedis(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, using in-process role cache only", "addr", cfg.Addr, "err", err)
		_ = rdb.Close()
		return nil
	}
	log.Info("connected to redis", "addr", cfg.Addr)
	return rdb
}

// handler wires the authorization gate, metrics and routes.
func (a *app) handler() (http.Handler, error) {
	ag := policy.NewAuthGate(a.db, policy.Options{
		CacheTTL: a.cfg.App.RoleCacheTTL,
		Redis:    a.redis,
		Logger:   a.log,
	})
	return handlers.NewRouter(handlers.RouterConfig{
		DB:       a.db,
		Issuer:   auth.NewIssuer(a.cfg.JWT),
		AuthGate: ag,
		Metrics:  metrics.New(),
		Logger:   a.log,
	})
}

func (a *app) serve(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cfg.App.Dev || a.cfg.App.Migrations {
		if err := db.Migrate(a.db, a.cfg); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	if a.cfg.App.AdminEmail != "" {
		if _, err := db.EnsureAdmin(ctx, a.db, a.cfg.App.AdminEmail, a.cfg.App.AdminPassword, a.log); err != nil {
			return err
		}
	}

	a.redis = connectRedis(ctx, a.cfg.Redis, a.log)
	h, err := a.handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      h,
		ReadTimeout:  time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", "port", a.cfg.Server.Port, "dev", a.cfg.App.Dev)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.log.Info("server stopped gracefully")
	return nil
}
