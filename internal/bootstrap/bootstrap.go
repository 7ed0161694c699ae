// Package bootstrap wires configuration into the running pipeline: core use
// case, infrastructure adapters, and observability.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fodder-io/masticator/internal/config"
	"github.com/fodder-io/masticator/internal/core/ports"
	"github.com/fodder-io/masticator/internal/core/usecase"
	"github.com/fodder-io/masticator/internal/infrastructure/llm/openrouter"
	"github.com/fodder-io/masticator/internal/infrastructure/notify/discord"
	natsqueue "github.com/fodder-io/masticator/internal/infrastructure/queue/nats"
	"github.com/fodder-io/masticator/internal/infrastructure/readtext"
	"github.com/fodder-io/masticator/internal/infrastructure/repository/postgres"
	"github.com/fodder-io/masticator/internal/infrastructure/resilience"
	"github.com/fodder-io/masticator/internal/infrastructure/storage/artifact"
	"github.com/fodder-io/masticator/internal/infrastructure/watch"
	"github.com/fodder-io/masticator/internal/observability/logging"
	"github.com/fodder-io/masticator/internal/observability/metrics"
)

const serviceName = "masticator"

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Watcher *watch.Watcher
	Intake  *usecase.IntakeUseCase
	Metrics *metrics.PipelineMetrics

	closeFn func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	slogger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	pipelineMetrics := metrics.NewPipelineMetrics(serviceName)

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts: cfg.LLM.RetryAttempts,
		BreakerEnabled:   true,
	}, slogger)

	completer := openrouter.New(openrouter.Options{
		BaseURL:      cfg.LLM.BaseURL,
		APIKey:       cfg.APIKey,
		Model:        cfg.LLM.Model,
		Temperature:  cfg.LLM.Temperature,
		MaxTokens:    cfg.LLM.MaxTokens,
		Timeout:      cfg.LLMTimeout(),
		ExtraHeaders: cfg.Headers,
		Profile:      cfg.PromptProfile(),
		Executor:     executor,
	})

	placer, err := artifact.New(
		cfg.Monitoring.OutputDir,
		cfg.Classification.Categories,
		cfg.Processing.OverwriteExisting,
		slogger,
	)
	if err != nil {
		return nil, fmt.Errorf("init artifact placer: %w", err)
	}

	opts := []usecase.IntakeOption{
		usecase.WithObserver(newMetricsObserver(pipelineMetrics)),
	}
	closers := make([]func(), 0, 2)

	if cfg.DiscordToken != "" {
		notifier := discord.New(discord.Options{
			Token:                    cfg.DiscordToken,
			FodderChannelID:          cfg.Discord.FodderChannelID,
			ClassificationsChannelID: cfg.Discord.ClassificationsChannelID,
			GuildID:                  cfg.Discord.GuildID,
			MessageLimit:             cfg.Discord.MessageLimit,
			RequestsPerSecond:        cfg.Discord.RequestsPerSecond,
			Burst:                    cfg.Discord.Burst,
			Logger:                   slogger,
		})
		opts = append(opts, usecase.WithNotifier(notifier))
	}

	if cfg.Ledger.DSN != "" {
		db, err := postgres.OpenDB(cfg.Ledger.DSN)
		if err != nil {
			return nil, fmt.Errorf("open ledger db: %w", err)
		}
		ledger := postgres.NewProcessedLedger(db)
		if err := ledger.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure ledger schema: %w", err)
		}
		opts = append(opts, usecase.WithLedger(ledger))
		closers = append(closers, func() { _ = db.Close() })
	}

	if cfg.Events.NATSURL != "" {
		publisher, err := natsqueue.NewWithOptions(cfg.Events.NATSURL, cfg.Events.Subject, natsqueue.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		opts = append(opts, usecase.WithPublisher(publisher))
		closers = append(closers, publisher.Close)
	}

	intake := usecase.NewIntakeUseCase(
		usecase.IntakeConfig{
			AllowedExtensions:     cfg.Monitoring.FileExtensions,
			MaxFileSize:           cfg.Processing.MaxFileSize,
			DeleteAfterProcessing: cfg.Processing.DeleteAfterProcessing,
			Profile:               cfg.PromptProfile(),
		},
		readtext.New(),
		completer,
		placer,
		slogger,
		opts...,
	)

	watcher, err := watch.New(cfg.Monitoring.InputDir, cfg.SettleDelay(), intake, slogger)
	if err != nil {
		return nil, fmt.Errorf("init watcher: %w", err)
	}

	return &App{
		Config:  cfg,
		Logger:  slogger,
		Watcher: watcher,
		Intake:  intake,
		Metrics: pipelineMetrics,
		closeFn: func() {
			for _, closer := range closers {
				closer()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// MetricsServer serves the Prometheus endpoint on the configured port.
func (a *App) MetricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Metrics.Handler())
	return &http.Server{
		Addr:         ":" + a.Config.Metrics.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}

// metricsObserver bridges intake lifecycle signals onto Prometheus.
type metricsObserver struct {
	metrics *metrics.PipelineMetrics
}

func newMetricsObserver(m *metrics.PipelineMetrics) ports.PipelineObserver {
	return &metricsObserver{metrics: m}
}

func (o *metricsObserver) FileStarted() {
	o.metrics.StartFile()
}

func (o *metricsObserver) FileFinished(duration time.Duration, err error) {
	o.metrics.FinishFile(serviceName, duration, err)
}

func (o *metricsObserver) FileSkipped(reason string) {
	o.metrics.Skipped(serviceName, reason)
}
