package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/JonMunkholm/bizdir/internal/auth"
	"github.com/JonMunkholm/bizdir/internal/config"
	"github.com/JonMunkholm/bizdir/internal/core"
	"github.com/JonMunkholm/bizdir/internal/logging"
	"github.com/JonMunkholm/bizdir/internal/notify"
	"github.com/JonMunkholm/bizdir/internal/ratelimit"
	"github.com/JonMunkholm/bizdir/internal/store"
	"github.com/JonMunkholm/bizdir/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Overload lets a local .env win over inherited variables.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	closeLog := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	defer closeLog()

	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	pool, err := connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	pg := store.NewPostgres(pool)
	if cfg.Database.EnsureSchema {
		if err := pg.EnsureSchema(ctx); err != nil {
			slog.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
	}

	limiter, closeLimiter, err := newRateLimiter(ctx, cfg.Rate)
	if err != nil {
		slog.Error("failed to create rate limiter", "error", err)
		os.Exit(1)
	}
	defer closeLimiter()

	service := core.NewService(pg, auth.NewBcryptHasher(cfg.Auth.BcryptCost), serviceOptions(cfg.Upload))
	hub := notify.NewHub(originChecker(cfg.Security.AllowedOrigins))

	server := web.NewServer(cfg, web.Deps{
		Importer: service,
		Limiter:  limiter,
		Notifier: hub,
		Events:   hub.ServeWS,
		Health:   pg.Ping,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.ImportLimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		hub.Close()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}

// newRateLimiter builds the configured backend. The returned close func is
// always non-nil.
func newRateLimiter(ctx context.Context, cfg config.RateLimitConfig) (ratelimit.Limiter, func(), error) {
	if strings.EqualFold(cfg.Backend, "redis") && cfg.Enabled {
		rl, err := ratelimit.NewRedisFromURL(ctx, cfg.RedisURL, "bizdir:ratelimit:")
		if err != nil {
			return nil, nil, err
		}
		slog.Info("rate limiting via redis")
		return rl, func() { _ = rl.Close() }, nil
	}

	mem := ratelimit.NewMemory()
	sweepCtx, cancel := context.WithCancel(context.Background())
	go mem.Run(sweepCtx, time.Minute)
	return mem, cancel, nil
}

// originChecker admits websocket upgrades from same-origin pages and the
// configured CORS origins.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

func serviceOptions(u config.UploadConfig) core.ServiceOptions {
	return core.ServiceOptions{
		MaxFileSize:   u.MaxFileSize,
		MaxConcurrent: u.MaxConcurrent,
		MaxWaitTime:   u.MaxWaitTime,
		Timeout:       u.Timeout,
	}
}
