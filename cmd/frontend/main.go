package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/config"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/logging"
)

func main() {
	// Load and validate configuration
	cfg, err := config.LoadAndValidate()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}
	defer logger.Sync()

	srv, err := internal.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("create server", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting catalog frontend",
			zap.String("addr", cfg.ListenAddr),
			zap.String("backend", cfg.BackendURL),
			zap.String("environment", cfg.Environment),
			zap.Bool("metrics", cfg.EnableMetrics),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
