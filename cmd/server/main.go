// Package main runs the clerk service: the assistant collaborator API, the
// hosted session API, and health and metrics endpoints.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/clerk/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatal("config load failed", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		fatal("server init failed", err)
	}

	if err := srv.Start(); err != nil {
		fatal("server start failed", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	if err := srv.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		srv.infra.Logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}

	srv.infra.Logger.Info("clerk stopped")
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
