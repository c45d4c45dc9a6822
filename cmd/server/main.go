package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-engine/internal/config"
	"github.com/dgnsrekt/gex-engine/internal/normalize"
	"github.com/dgnsrekt/gex-engine/internal/server"
	"github.com/dgnsrekt/gex-engine/internal/snapshot"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Setup logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	// Load config
	cfg, err := config.Load(os.Getenv("GEX_CONFIG"))
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}

	logger.Info("configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.String("snapshotPath", cfg.Server.SnapshotPath),
		zap.Float64("riskFreeRate", cfg.Engine.RiskFreeRate),
		zap.Float64("defaultVolatility", cfg.Engine.DefaultVolatility),
		zap.Int("binomialSteps", cfg.Engine.BinomialSteps),
		zap.Int("workers", cfg.Engine.Workers),
	)

	if cfg.Server.SnapshotPath == "" {
		logger.Error("no snapshot configured (set GEX_SNAPSHOT_PATH)")
		return 1
	}

	// Load and normalize snapshot
	start := time.Now()
	rows, err := snapshot.Load(cfg.Server.SnapshotPath)
	if err != nil {
		logger.Error("failed to load snapshot", zap.Error(err))
		return 1
	}

	records := normalize.New(logger).Normalize(rows)
	logger.Info("snapshot loaded",
		zap.Int("rawRows", len(rows)),
		zap.Int("records", len(records)),
		zap.Duration("duration", time.Since(start)),
	)

	// Create server and router
	srv := server.NewServer(records, cfg, logger)
	router := server.NewRouter(srv, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}
