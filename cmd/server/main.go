package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Zeenoside1/shopify-product-addons-app/internal/api"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/config"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/logging"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/repository/postgres"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/repository/redisstore"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/security"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/service"
	"github.com/Zeenoside1/shopify-product-addons-app/internal/shopify"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting product add-ons server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)

	cipher, err := security.NewTokenCipher(cfg.Security.TokenEncKeyB64)
	if err != nil {
		logger.Fatal("Invalid token encryption key", zap.Error(err))
	}

	// Initialize database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := postgres.RunMigrations(cfg.Database); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	rdb, err := config.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Initialize repositories
	repos := postgres.NewRepositories(db, logger)
	repos.OAuthState = redisstore.NewOAuthStateStore(rdb)
	repos.Idempotency = redisstore.NewIdempotencyStore(rdb)

	shopifySvc := service.NewShopifyService(
		cfg.Shopify,
		repos,
		shopify.NewClientFactory(cfg.Shopify, logger),
		shopify.NewOAuth(cfg.Shopify),
		cipher,
		logger,
	)
	svcs := &api.Services{
		Addons:  service.NewAddonService(repos, shopifySvc, logger),
		Shopify: shopifySvc,
	}

	// Initialize router
	router := api.NewRouter(cfg, repos, svcs, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Selection purge: run once on startup, then every PurgeInterval
	purgeCtx, stopPurge := context.WithCancel(context.Background())
	defer stopPurge()
	go service.RunSelectionPurgeLoop(purgeCtx, cfg.Storefront, rdb, logger)
	logger.Info("Selection purge job started", zap.Duration("interval", cfg.Storefront.PurgeInterval))

	logger.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopPurge()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
