package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Arbiter/internal/api"
	"github.com/MikeSquared-Agency/Arbiter/internal/broker"
	"github.com/MikeSquared-Agency/Arbiter/internal/config"
	"github.com/MikeSquared-Agency/Arbiter/internal/hermes"
	"github.com/MikeSquared-Agency/Arbiter/internal/metrics"
	"github.com/MikeSquared-Agency/Arbiter/internal/store"
	"github.com/MikeSquared-Agency/Arbiter/internal/telemetry"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, metrics endpoint and NATS subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return serve(cmd.Context(), cfg, debugFlag(cmd))
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	return cmd
}

func serve(parent context.Context, cfg *config.Config, debug bool) error {
	logger, err := newLogger(cfg.Logging, debug, os.Stdout)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Tracing
	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName, version, cfg.Telemetry.Insecure)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	// Database
	db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()
	logger.Info("store ready", "driver", cfg.Database.Driver)

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	// Broker
	m := metrics.New(prometheus.DefaultRegisterer)
	b, err := broker.New(db, hermesClient, m, cfg, logger)
	if err != nil {
		return err
	}
	b.SetupSubscriptions()
	logger.Info("broker ready", "default_method", b.DefaultMethod())

	// API server
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(db, hermesClient, b, cfg.Server.AdminToken, cfg.Server.CORSOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- fmt.Errorf("API server: %w", err)
		}
	}()
	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		logger.Error("server failed", "error", serveErr)
	}

	logger.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
	return serveErr
}
