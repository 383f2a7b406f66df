package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/internal/config"
	"github.com/agrisense/agridata/internal/observability/metrics"
	"github.com/agrisense/agridata/internal/pipeline"
	"github.com/agrisense/agridata/internal/server"
	"github.com/agrisense/agridata/pkg/constants"
)

func main() {
	cfgFile := flag.String("config", "", "config file path")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	var m *metrics.PipelineMetrics
	if cfg.Metrics.Enabled {
		m = metrics.NewPipelineMetrics(logger)
	}

	service, err := pipeline.NewService(cfg, m, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build pipeline service")
	}
	defer service.Close()

	srv := server.NewServer(&cfg.Server, service, m, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownPeriod)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("Graceful shutdown failed")
		}
	}
}
