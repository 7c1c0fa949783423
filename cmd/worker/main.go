package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finledger/ledger-service/internal/config"
	"github.com/finledger/ledger-service/internal/pkg/database"
	"github.com/finledger/ledger-service/internal/pkg/logger"
	"github.com/finledger/ledger-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(logger.Config{Level: "info", Format: "json"})
		logger.Fatal("Failed to load configuration", err)
	}

	logger.Init(logger.Config{
		Level:  cfg.Log.Level,
		Format: "json",
	})

	logger.Info("Starting Ledger Worker Service...", logger.Fields{
		"environment":   cfg.Environment,
		"sweep_enabled": cfg.Reconcile.Enabled,
	})

	// Initialize database connection
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database connection", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.WaitForConnection(ctx, db, 5); err != nil {
		logger.Fatal("Database connection failed", err)
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Fatal("Invalid REDIS_URL", err)
	}

	var source worker.ExternalBalanceSource
	if cfg.Reconcile.SourceURL != "" {
		source = worker.NewHTTPBalanceSource(cfg.Reconcile.SourceURL, cfg.Reconcile.SourceRPS)
	}

	server, err := worker.NewServer(&worker.ServerConfig{
		RedisAddr:     redisOpts.Addr,
		RedisPassword: redisOpts.Password,
		RedisDB:       redisOpts.DB,
		DB:            db,
		Source:        source,
		SweepSpec:     cfg.Reconcile.Interval,
		SweepEnabled:  cfg.Reconcile.Enabled,
	})
	if err != nil {
		logger.Fatal("Failed to build worker server", err)
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Worker server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutdown signal received")
	server.Shutdown()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("Ledger Worker Service stopped")
}
