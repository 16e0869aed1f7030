// Command tracker fetches the population and daily state snapshots, computes
// per-state metrics and the cross-state comparison, and writes the report.
// With SERVE=true it keeps serving the report over HTTP until interrupted.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/covid-state-tracker/internal/adapter/files"
	httpadapter "github.com/couchcryptid/covid-state-tracker/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/covid-state-tracker/internal/adapter/kafka"
	"github.com/couchcryptid/covid-state-tracker/internal/adapter/source"
	"github.com/couchcryptid/covid-state-tracker/internal/config"
	"github.com/couchcryptid/covid-state-tracker/internal/observability"
	"github.com/couchcryptid/covid-state-tracker/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := source.NewClient(cfg.SourceTimeout, metrics, logger)
	population := source.NewPopulationSource(client, cfg.PopulationURL, cfg.PopulationColumn)
	observations := source.NewObservationSource(client, cfg.ObservationsURL)

	loaders := []pipeline.Loader{files.NewWriter(cfg.OutputDir, logger)}

	// Kafka publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, metrics, logger)
		loaders = append(loaders, writer)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(population, observations, loaders, pipeline.Options{
		X:                  cfg.CompareX,
		Y:                  cfg.CompareY,
		XLabel:             cfg.CompareXLabel,
		YLabel:             cfg.CompareYLabel,
		Regions:            cfg.Regions,
		Strict:             cfg.StrictSnapshot,
		PopulationAdjusted: cfg.PopulationAdjusted,
		Workers:            cfg.Workers,
		MaxAttempts:        cfg.SourceMaxAttempts,
	}, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := 0
	if cfg.Serve {
		serve(ctx, cfg, p, metrics, logger)
	} else if _, err := p.Run(ctx); err != nil {
		code = 1
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	logger.Info("shutdown complete")
	if code != 0 {
		stop()
		os.Exit(code)
	}
}

// serve runs the pipeline once in the background and serves its report
// until the context is cancelled.
func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, metrics *observability.Metrics, logger *slog.Logger) {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, cfg.ReportCacheSize, metrics, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the tracker; /readyz reports ready once a report exists.
	go func() {
		if _, err := p.Run(ctx); err != nil {
			logger.Error("tracker run error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
}
