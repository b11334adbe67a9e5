package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecoreceipt/backend/config"
	"github.com/ecoreceipt/backend/internal/bootstrap"
	httpDelivery "github.com/ecoreceipt/backend/internal/delivery/http"
	"github.com/ecoreceipt/backend/internal/infrastructure/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stdout); err != nil {
		return err
	}

	slog.Info("Starting EcoReceipt backend",
		"version", httpDelivery.Version,
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port)

	app, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(app.Receipts, cfg.Server.MaxUploadMB)
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
