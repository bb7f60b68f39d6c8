package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Eswarhead/handcrafted-marketplace/internal/app"
	"github.com/Eswarhead/handcrafted-marketplace/internal/config"
	"github.com/Eswarhead/handcrafted-marketplace/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if cfg.JWT.Secret == "" {
		lg.Warn("JWT_SECRET is empty, tokens are signed with an empty key (development only)")
	}

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("Failed to initialize application", zap.Error(err))
	}

	runErr := a.Run(ctx)
	if err := a.Close(); err != nil {
		lg.Warn("Error releasing resources", zap.Error(err))
	}
	if runErr != nil {
		lg.Error("Server stopped with error", zap.Error(runErr))
		os.Exit(1)
	}
	lg.Info("Server gracefully stopped")
}
