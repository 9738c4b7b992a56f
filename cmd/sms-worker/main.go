package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	smsadapter "github.com/ajayykmr/sms-dispatch-go/internal/adapters/sms"
	"github.com/ajayykmr/sms-dispatch-go/internal/config"
	"github.com/ajayykmr/sms-dispatch-go/internal/kafka/consumer"
	"github.com/ajayykmr/sms-dispatch-go/internal/kafka/producer"
	kafkapublisher "github.com/ajayykmr/sms-dispatch-go/internal/kafka/publisher"
	"github.com/ajayykmr/sms-dispatch-go/internal/logger"
	"github.com/ajayykmr/sms-dispatch-go/internal/metrics"
	"github.com/ajayykmr/sms-dispatch-go/internal/models"
	"github.com/ajayykmr/sms-dispatch-go/internal/providers/factory"
	"github.com/ajayykmr/sms-dispatch-go/internal/worker"
	smsvalidator "github.com/ajayykmr/sms-dispatch-go/internal/worker/validator/sms"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fail("config load", err)
	}
	if err := cfg.RequireKafka(); err != nil {
		fail("config validate", err)
	}

	baseLogger, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fail("logger init", err)
	}
	log := baseLogger.With().Str("service", "sms-worker").Logger()

	collector := metrics.New()
	if cfg.Worker.MetricsListen != "" {
		go func() {
			if err := collector.Serve(ctx, cfg.Worker.MetricsListen); err != nil {
				log.Error().Err(err).Str("addr", cfg.Worker.MetricsListen).Msg("metrics endpoint stopped")
			}
		}()
	}

	gw, err := factory.Gateway(cfg.Gateway, factory.Options{
		Timeout:  time.Duration(cfg.Timeouts.ProviderTimeoutSeconds) * time.Second,
		Observer: collector,
		Logger:   logger.Component(log, "gateway"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise sms gateway")
	}

	prod, err := producer.New(cfg.Kafka.Brokers, logger.Component(log, "kafka"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create kafka producer")
	}
	defer func() {
		if err := prod.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka producer")
		}
	}()

	cons, err := consumer.New(consumer.Config{
		Brokers:             cfg.Kafka.Brokers,
		GroupID:             cfg.ConsumerGroup,
		Topics:              []string{cfg.Topics.Request},
		CommitOnSuccessOnly: cfg.Worker.CommitOnSuccessOnly,
	}, logger.Component(log, "consumer"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create kafka consumer")
	}
	defer func() {
		if err := cons.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka consumer")
		}
	}()

	statusPublisher := kafkapublisher.NewStatusPublisher(prod, cfg.Topics.Status, logger.Component(log, "status-publisher"))
	if statusPublisher == nil {
		log.Fatal().Msg("failed to create status publisher")
	}
	dlqPublisher := kafkapublisher.NewDLQPublisher(prod, cfg.Topics.DLQ, logger.Component(log, "dlq-publisher"))
	if dlqPublisher == nil {
		log.Fatal().Msg("failed to create dlq publisher")
	}

	adapterOpts := []smsadapter.Option{smsadapter.WithDefaultSender(cfg.Gateway.DefaultSender)}
	if cfg.Gateway.Account.ReportsEnabled {
		adapterOpts = append(adapterOpts, smsadapter.WithReportURL(cfg.Gateway.ReportURL))
	}
	adapter, err := smsadapter.NewAdapter(gw, logger.Component(log, "sms-adapter"), adapterOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise sms adapter")
	}

	validator := smsvalidator.New(cfg.Validation, logger.Component(log, "sms-validator"),
		smsvalidator.WithSkipNumberValidation(cfg.Gateway.Account.SkipValidation))

	engine, err := worker.NewEngine(worker.Config{
		Channel:             models.ChannelSMS,
		Gateway:             gw.Name(),
		MsgMaxBytes:         cfg.Validation.MsgMaxBytes,
		WorkerConcurrency:   cfg.Worker.Concurrency,
		CommitOnSuccessOnly: cfg.Worker.CommitOnSuccessOnly,
	}, worker.Dependencies{
		Adapter:         adapter,
		Validator:       validator,
		StatusPublisher: statusPublisher,
		DLQPublisher:    dlqPublisher,
		Committer: worker.CommitFunc(func(ctx context.Context, record *worker.Record) error {
			return record.Commit(ctx)
		}),
		Logger: logger.Component(log, "worker-engine"),
		Now:    time.Now,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise worker engine")
	}

	handler := worker.KafkaHandler(engine, cons)

	errCh := make(chan error, 1)
	go func() {
		if err := cons.Run(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info().
		Str("request_topic", cfg.Topics.Request).
		Str("gateway", gw.Name()).
		Str("provider", gw.Provider()).
		Msg("sms worker started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("consumer terminated with error")
		}
	}
	engine.Wait()
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("sms worker init failed")
}
