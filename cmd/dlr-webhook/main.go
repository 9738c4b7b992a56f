package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ajayykmr/sms-dispatch-go/internal/config"
	"github.com/ajayykmr/sms-dispatch-go/internal/kafka/producer"
	kafkapublisher "github.com/ajayykmr/sms-dispatch-go/internal/kafka/publisher"
	"github.com/ajayykmr/sms-dispatch-go/internal/logger"
	"github.com/ajayykmr/sms-dispatch-go/internal/metrics"
	"github.com/ajayykmr/sms-dispatch-go/internal/providers/factory"
	"github.com/ajayykmr/sms-dispatch-go/internal/store/sqlite"
	"github.com/ajayykmr/sms-dispatch-go/internal/webhook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fail("config load", err)
	}

	baseLogger, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fail("logger init", err)
	}
	log := baseLogger.With().Str("service", "dlr-webhook").Logger()

	collector := metrics.New()
	gw, err := factory.Gateway(cfg.Gateway, factory.Options{
		Timeout:  time.Duration(cfg.Timeouts.ProviderTimeoutSeconds) * time.Second,
		Observer: collector,
		Logger:   logger.Component(log, "gateway"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise sms gateway")
	}

	store, err := sqlite.Open(ctx, cfg.Webhook.StorePath, sqlite.WithLogger(logger.Component(log, "report-store")))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open report store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close report store")
		}
	}()

	opts := []webhook.Option{
		webhook.WithGateway(gw.Name(), gw),
		webhook.WithMetrics(collector.Handler()),
		webhook.WithLogger(logger.Component(log, "webhook")),
	}

	// Reports are forwarded to the status topic when Kafka is configured.
	if len(cfg.Kafka.Brokers) > 0 && cfg.Topics.Status != "" {
		prod, err := producer.New(cfg.Kafka.Brokers, logger.Component(log, "kafka"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create kafka producer")
		}
		defer func() {
			if err := prod.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close kafka producer")
			}
		}()
		opts = append(opts,
			webhook.WithPublisher(kafkapublisher.NewStatusPublisher(prod, cfg.Topics.Status, logger.Component(log, "status-publisher"))),
			webhook.WithHealthCheck("kafka", prod.Healthy),
		)
	}

	srv, err := webhook.New(store, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise webhook")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(cfg.Webhook.Listen)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("webhook shutdown failed")
		}
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("webhook terminated with error")
		}
	}
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("dlr webhook init failed")
}
