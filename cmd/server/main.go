package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/preston-bernstein/fixture-calendar-service/internal/config"
	"github.com/preston-bernstein/fixture-calendar-service/internal/logging"
	"github.com/preston-bernstein/fixture-calendar-service/internal/server"
)

const (
	appName    = "fixture-calendar-service"
	appVersion = "dev"
)

func main() {
	if os.Getenv("SKIP_SERVER_RUN") == "1" {
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logging.NewLogger(logging.Config{Service: appName}).Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(logging.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: appName,
		Version: appVersion,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("server setup failed", "err", err)
		os.Exit(1)
	}
	srv.Run(ctx, stop)
}
