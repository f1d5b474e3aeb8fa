package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/Ambarees369/chat-blindado/internal/config"
	"github.com/Ambarees369/chat-blindado/internal/relay"
)

// Run serves the relay on cfg.Addr() until ctx is cancelled, then shuts the
// HTTP server and the hub down.
func Run(ctx context.Context, cfg *config.Server, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}
	return Serve(ctx, ln, cfg, logger)
}

// Serve is Run on an existing listener.
func Serve(ctx context.Context, ln net.Listener, cfg *config.Server, logger *slog.Logger) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()

	hub := relay.NewHub(
		relay.WithLogger(logger),
		relay.WithLeaveOnRejoin(cfg.LeaveOnRejoin),
	)
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(hubCtx)
	}()

	srv := &http.Server{
		Handler: NewRouter(hub, cfg, logger),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	logger.Info("relay listening", "addr", ln.Addr().String())

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown; stopping
	// the hub closes them.
	stopHub()
	<-hubDone

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
