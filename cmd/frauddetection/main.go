// Package main trains the fraud-detection pipeline on synthetic transactions,
// prints its evaluation and saves it to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/FlavioCFOliveira/GoFraud/internal/config"
	"github.com/FlavioCFOliveira/GoFraud/internal/runner"
	"github.com/FlavioCFOliveira/GoFraud/internal/telemetry"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "YAML config file (default "+config.DefaultPath+" if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdown, err := telemetry.SetupTracing(ctx, cfg.Tracing.OTLPEndpoint, version)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	_, err = runner.Run(ctx, cfg, os.Stdout, logger)
	if shutdownErr := shutdown(context.Background()); shutdownErr != nil {
		logger.Warn("failed to flush traces", "error", shutdownErr)
	}
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}
