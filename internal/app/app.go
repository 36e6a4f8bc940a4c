package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"arxivmonitor/internal/config"
	"arxivmonitor/internal/infrastructure/llm"
	"arxivmonitor/internal/infrastructure/mail"
	"arxivmonitor/internal/infrastructure/parser"
	"arxivmonitor/internal/infrastructure/schedule"
	"arxivmonitor/internal/infrastructure/storage"
	"arxivmonitor/internal/logging"
	"arxivmonitor/internal/ports"
	"arxivmonitor/internal/scanner"
	"arxivmonitor/internal/usecase"
)

// Application wires configuration to the pipeline stages and owns the
// database handle.
type Application struct {
	cfg    config.Settings
	logger *slog.Logger
	db     *sql.DB

	collector *usecase.Collector
	processor *usecase.Processor
	digest    *usecase.Digest
}

// New builds a runnable application instance.
func New(cfg config.Settings, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.LogLevel)
	}

	db, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DatabasePath, err)
	}
	store := storage.New(db)

	registry := scanner.NewRegistry()
	registry.Register(parser.NewArxivAPIScanner(cfg.Arxiv.APIURL))
	registry.Register(parser.NewArxivListingScanner(nil))

	source := parser.NewStrategySource(registry, cfg.Arxiv.Source, cfg.Arxiv,
		baseLogger.With("component", "source"))

	summarizer, err := newSummarizer(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	mailer := mail.NewSMTPMailer(cfg.SMTP, cfg.Recipients)

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		db:     db,
		collector: usecase.NewCollector(source, store, cfg.Arxiv.LookbackDays,
			baseLogger.With("component", "collector")),
		processor: usecase.NewProcessor(store, summarizer, cfg.BatchSize, cfg.ProcessingDelay,
			baseLogger.With("component", "processor")),
		digest: usecase.NewDigest(store, mailer, cfg.MinRelevance, cfg.SubjectPrefix, cfg.Recipients,
			baseLogger.With("component", "digest")),
	}, nil
}

func newSummarizer(cfg config.Settings) (ports.Summarizer, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.Model)
	default:
		return llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.Model), nil
	}
}

// Close releases the database handle.
func (a *Application) Close() error {
	return a.db.Close()
}

// RunCollection executes one collection pass.
func (a *Application) RunCollection(ctx context.Context) error {
	return a.collector.Run(ctx)
}

// RunProcessing executes one scoring pass.
func (a *Application) RunProcessing(ctx context.Context) error {
	return a.processor.Run(ctx)
}

// RunDigest composes and sends one digest.
func (a *Application) RunDigest(ctx context.Context) error {
	return a.digest.Run(ctx)
}

// RunScheduled drives all three stages on their daily timers until ctx is
// cancelled. Stage failures are logged by the scheduler and retried at the
// next fire; they never stop the service.
func (a *Application) RunScheduled(ctx context.Context) error {
	svc := schedule.New(a.logger.With("component", "scheduler"),
		schedule.Job{Name: "collection", At: a.cfg.CollectionAt, Run: a.RunCollection},
		schedule.Job{Name: "processing", At: a.cfg.ProcessingAt, Run: a.RunProcessing},
		schedule.Job{Name: "digest", At: a.cfg.DigestAt, Run: a.RunDigest},
	)

	if a.cfg.RunImmediate {
		a.logger.Info("running all stages immediately per RUN_IMMEDIATE")
		svc.TriggerAll(ctx)
	}

	svc.Start(ctx)
	<-ctx.Done()
	svc.Wait()
	return nil
}
