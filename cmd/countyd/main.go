package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/county-data-pipeline/internal/adapter/geofeed"
	"github.com/couchcryptid/county-data-pipeline/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/county-data-pipeline/internal/adapter/kafka"
	"github.com/couchcryptid/county-data-pipeline/internal/adapter/source"
	"github.com/couchcryptid/county-data-pipeline/internal/config"
	"github.com/couchcryptid/county-data-pipeline/internal/observability"
	"github.com/couchcryptid/county-data-pipeline/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	fetcher := source.NewFetcher(cfg.DataDir, cfg.FetchTimeout, logger)
	geometry := geofeed.NewCachedProvider(
		geofeed.NewClient(fetcher, cfg.Catalog.Geometry.NameProperty, metrics, logger),
		cfg.GeometryCacheTTL, clockwork.NewRealClock(), metrics, logger,
	)

	// Snapshot publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var (
		publisher pipeline.SnapshotPublisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("snapshot publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("snapshot publishing disabled")
	}

	p := pipeline.New(fetcher, geometry, publisher, pipeline.Options{
		Catalog:          cfg.Catalog,
		GeometryURL:      cfg.GeometryURL,
		GeometryIDPrefix: cfg.GeometryIDPrefix,
		RefreshInterval:  cfg.RefreshInterval,
		DatasetCacheSize: cfg.DatasetCacheSize,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
