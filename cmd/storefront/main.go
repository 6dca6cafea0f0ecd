// storefront is an interactive shell over the storefront backend API.
// Run: API_BASE_URL=http://127.0.0.1:5000 go run ./cmd/storefront
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/storefront-client/config"
	"github.com/ErlanBelekov/storefront-client/internal/apiclient"
	"github.com/ErlanBelekov/storefront-client/internal/health"
	"github.com/ErlanBelekov/storefront-client/internal/infrastructure/file"
	"github.com/ErlanBelekov/storefront-client/internal/infrastructure/memory"
	"github.com/ErlanBelekov/storefront-client/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/storefront-client/internal/infrastructure/redis"
	ctxlog "github.com/ErlanBelekov/storefront-client/internal/log"
	"github.com/ErlanBelekov/storefront-client/internal/metrics"
	"github.com/ErlanBelekov/storefront-client/internal/repository"
	"github.com/ErlanBelekov/storefront-client/internal/session"
	"github.com/ErlanBelekov/storefront-client/internal/store"
	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Logs go to stderr so they never interleave with command output.
	logger := ctxlog.New(os.Stderr, cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openStateRepository(ctx, cfg, logger)
	if err != nil {
		stop()
		log.Fatalf("state backend: %v", err)
	}
	defer closeRepo()

	client, sess, err := connect(ctx, cfg, logger, repo, closeRepo)
	if err != nil {
		stop()
		log.Fatalf("%v", err)
	}

	metrics.RegisterClient(prometheus.DefaultRegisterer)
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer,
		health.Dependency{Name: "backend", Pinger: client},
		health.Dependency{Name: "state_" + cfg.StateBackend, Pinger: repo},
	)

	var metricsSrv *http.Server
	if cfg.MetricsPort != "" {
		metricsSrv = metrics.NewServer(":"+cfg.MetricsPort, checker)
		go func() {
			logger.Info("metrics server started", "port", cfg.MetricsPort)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", "error", err)
			}
		}()
	}

	figure.NewFigure("storefront", "", true).Print()
	fmt.Println()

	sh := newShell(os.Stdout, sess,
		store.NewProductStore(client, cfg.ProductsPerPage, logger),
		store.NewCartStore(client, logger),
		store.NewChatbotStore(client, logger),
		checker,
	)
	sh.run(ctx, os.Stdin)

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown", "error", err)
		}
	}
}

// connect builds the API client and restores the session over repo. On
// failure it calls closeRepo, since the caller exits without running defers.
func connect(ctx context.Context, cfg *config.Config, logger *slog.Logger, repo repository.StateRepository, closeRepo func()) (*apiclient.Client, *session.Manager, error) {
	client, err := apiclient.New(cfg.APIBaseURL, logger, apiclient.WithTimeout(cfg.HTTPTimeout()))
	if err != nil {
		closeRepo()
		return nil, nil, fmt.Errorf("api client: %w", err)
	}

	sess, err := session.Open(ctx, client, repo, cfg.StorageName, logger)
	if err != nil {
		closeRepo()
		return nil, nil, fmt.Errorf("open session: %w", err)
	}
	client.SetSession(sess)
	return client, sess, nil
}

// openStateRepository picks where the session snapshot lives. The returned
// func releases any connection the backend holds.
func openStateRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.StateRepository, func(), error) {
	switch cfg.StateBackend {
	case "memory":
		return memory.NewStateRepository(), func() {}, nil
	case "redis":
		rdb, err := redis.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return redis.NewStateRepository(rdb), func() { _ = rdb.Close() }, nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo := postgres.NewStateRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil
	default:
		repo, err := file.NewStateRepository(cfg.StateDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("session state on disk", "dir", cfg.StateDir)
		return repo, func() {}, nil
	}
}
