package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"claimguard/internal/config"
	"claimguard/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := prepareEnvironment(cfg); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, err := buildDaemon(cfg, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		_ = d.Close()
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("claimguardd shutting down")
	if err := d.Close(); err != nil {
		logger.Warn("close daemon", logging.Error(err))
	}
}
