package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/preston-bernstein/fixture-calendar-service/internal/calsync"
	"github.com/preston-bernstein/fixture-calendar-service/internal/config"
	"github.com/preston-bernstein/fixture-calendar-service/internal/logging"
)

func main() {
	opts, err := calsync.ParseOptions(flag.CommandLine, os.Args[1:])
	if err != nil {
		if errors.Is(err, calsync.ErrNothingToDo) {
			flag.Usage()
		}
		exitf("Error: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		exitf("Error: invalid configuration: %v", err)
	}
	logger := logging.NewLogger(logging.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "calsync",
		Output:  os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := calsync.Run(ctx, opts, cfg, logger, os.Stdout); err != nil {
		stop()
		exitf("Error: %v", err)
	}
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
