package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Ambarees369/chat-blindado/internal/config"
	"github.com/Ambarees369/chat-blindado/internal/logging"
	"github.com/Ambarees369/chat-blindado/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Configuration & logger
	cfg, err := config.LoadServer(config.ServerOptions{})
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger := logging.Init(cfg.LogLevel, slog.LevelInfo)

	// 2. Stop on SIGINT / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Serve until told otherwise
	return server.Run(ctx, cfg, logger)
}
