package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finledger/ledger-service/internal/api"
	"github.com/finledger/ledger-service/internal/config"
	"github.com/finledger/ledger-service/internal/pkg/cache"
	"github.com/finledger/ledger-service/internal/pkg/database"
	"github.com/finledger/ledger-service/internal/pkg/logger"
)

func main() {
	// Load configuration first; it fails fast on weak secrets.
	cfg, err := config.Load()
	if err != nil {
		logger.Init(logger.Config{Level: "info", Format: "json"})
		logger.Fatal("Failed to load configuration", err)
	}

	logger.Init(logger.Config{
		Level:  cfg.Log.Level,
		Format: "json",
	})

	logger.Info("Starting Ledger API Server...", logger.Fields{
		"environment": cfg.Environment,
		"api_port":    cfg.API.Port,
	})

	// Initialize database connection
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database connection", err)
	}

	// Wait for database to be ready (useful in Docker environments)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.WaitForConnection(ctx, db, 5); err != nil {
		logger.Fatal("Database connection failed", err)
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal("Database migration failed", err)
	}

	logger.Info("Database connection established")

	// Initialize Redis connection
	var redisCache cache.Cache
	if cfg.Redis.URL != "" {
		redisCache, err = cache.NewRedisCacheFromURL(cfg.Redis.URL)
		if err != nil {
			if cfg.IsProduction() {
				logger.Fatal("Failed to initialize Redis connection", err)
			}
			logger.Warn("Redis unavailable, continuing without cache", logger.Fields{
				"error": err.Error(),
			})
		}
	}

	// Build and start the HTTP server
	server := api.NewServer(&api.ServerConfig{
		Config: cfg,
		DB:     db,
		Cache:  redisCache,
	})

	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server", err)
	}

	// Block until asked to stop, then shut down gracefully.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err)
	}

	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			logger.Error("Redis close failed", err)
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("Ledger API Server stopped")
}
