// devserver runs the storefront backend API locally, backed by in-memory
// stores and a seeded catalogue.
// Run: JWT_SECRET=... go run ./cmd/devserver
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/storefront-client/config"
	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/ErlanBelekov/storefront-client/internal/health"
	"github.com/ErlanBelekov/storefront-client/internal/infrastructure/memory"
	ctxlog "github.com/ErlanBelekov/storefront-client/internal/log"
	"github.com/ErlanBelekov/storefront-client/internal/metrics"
	"github.com/ErlanBelekov/storefront-client/internal/scheduler"
	httptransport "github.com/ErlanBelekov/storefront-client/internal/transport/http"
	"github.com/ErlanBelekov/storefront-client/internal/transport/http/handler"
	"github.com/ErlanBelekov/storefront-client/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadDevServer()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := ctxlog.New(os.Stdout, cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Accounts and tokens
	userRepo := memory.NewUserRepository()
	revoked := memory.NewRevocationList()
	authUsecase := usecase.NewAuthUsecase(userRepo, revoked, []byte(cfg.JWTSecret),
		usecase.WithTokenTTLs(cfg.AccessTokenTTL(), cfg.RefreshTokenTTL()))

	if cfg.DemoEmail != "" {
		_, err := authUsecase.Register(ctx, usecase.RegisterInput{
			Username: "demo",
			Email:    cfg.DemoEmail,
			Password: cfg.DemoPassword,
		})
		if err != nil && !errors.Is(err, domain.ErrEmailTaken) {
			stop()
			log.Fatalf("seed demo user: %v", err)
		}
		logger.Info("demo user seeded", "email", cfg.DemoEmail)
	}

	// Catalogue and carts
	catalogRepo := memory.NewCatalogRepository(memory.SeedProducts())
	cartRepo := memory.NewCartRepository()
	shopUsecase := usecase.NewShopUsecase(catalogRepo, cartRepo)
	chatbotUsecase := usecase.NewChatbotUsecase(catalogRepo, cartRepo, usecase.WithConversationTTL(cfg.ChatIdleTTL()))

	handlers := httptransport.Handlers{
		Auth:     handler.NewAuthHandler(authUsecase, cfg.SecureCookies, logger),
		Products: handler.NewProductHandler(shopUsecase, logger),
		Cart:     handler.NewCartHandler(shopUsecase, logger),
		Chatbot:  handler.NewChatbotHandler(chatbotUsecase, logger),
	}

	pruner, err := scheduler.NewPruner(authUsecase, cfg.RevocationPruneCron, logger,
		scheduler.WithConversations(chatbotUsecase),
	)
	if err != nil {
		stop()
		log.Fatalf("pruner: %v", err)
	}

	metrics.RegisterServer(prometheus.DefaultRegisterer)
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httptransport.NewRouter(logger, handlers, authUsecase, userRepo, cfg.SecureCookies),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go pruner.Start(ctx)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}
