package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/soil-analysis-service/internal/adapter/http"
	"github.com/couchcryptid/soil-analysis-service/internal/adapter/isda"
	kafkaadapter "github.com/couchcryptid/soil-analysis-service/internal/adapter/kafka"
	"github.com/couchcryptid/soil-analysis-service/internal/analysis"
	"github.com/couchcryptid/soil-analysis-service/internal/config"
	"github.com/couchcryptid/soil-analysis-service/internal/domain"
	"github.com/couchcryptid/soil-analysis-service/internal/observability"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := isda.NewClient(isda.Config{
		BaseURL:      cfg.ISDABaseURL,
		Username:     cfg.ISDAUsername,
		Password:     cfg.ISDAPassword,
		AuthTimeout:  cfg.ISDAAuthTimeout,
		FetchTimeout: cfg.ISDAFetchTimeout,
	}, metrics, logger)

	var source domain.SoilDataSource = client
	if cfg.PayloadCacheSize > 0 {
		source = isda.NewCachedSource(client, cfg.PayloadCacheSize, metrics)
		logger.Info("payload cache enabled", "cache_size", cfg.PayloadCacheSize)
	}

	// Report publishing is feature-flagged via KAFKA_REPORT_TOPIC / KAFKA_ENABLED.
	var publisher analysis.ReportPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("report publishing enabled", "topic", cfg.KafkaReportTopic)
	} else {
		logger.Info("report publishing disabled")
	}

	svc := analysis.NewService(source, publisher, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Authenticate ahead of the first request; failure here is retried lazily.
	svc.WarmUp(ctx)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
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
