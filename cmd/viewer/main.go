// Package main is the entry point for the model guide viewer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/BesedinAlex/guides-fusion360-client/internal/app"
	"github.com/BesedinAlex/guides-fusion360-client/internal/config"
	"github.com/BesedinAlex/guides-fusion360-client/internal/logger"
)

func main() {
	os.Exit(run())
}

// run returns the exit code so deferred cleanup happens before os.Exit.
func run() int {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return 1
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("=== Guides Model Viewer ===", zap.Int("model_id", cfg.Viewer.ModelID))
	logger.Sugar.Debugf("Config: %+v", cfg)

	if config.Headless() {
		return runHeadless(cfg)
	}
	return runWindowed(cfg)
}

func runHeadless(cfg *config.Config) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.NewHeadless(cfg).Run(ctx); err != nil {
		logger.Error("headless viewer error", zap.Error(err))
		return 1
	}
	logger.Info("headless viewer stopped")
	return 0
}

func runWindowed(cfg *config.Config) int {
	a, err := app.New(cfg)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		return 1
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		return 1
	}

	logger.Info("viewer closed normally")
	return 0
}
