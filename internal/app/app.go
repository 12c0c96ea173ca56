package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"FinkBridge/internal/config"
	"FinkBridge/internal/domain"
	"FinkBridge/internal/infrastructure/clock"
	"FinkBridge/internal/infrastructure/replay"
	"FinkBridge/internal/infrastructure/skyportal"
	"FinkBridge/internal/infrastructure/storage"
	"FinkBridge/internal/logging"
	"FinkBridge/internal/ports"
	"FinkBridge/internal/stream"
	"FinkBridge/internal/taxonomy"
	"FinkBridge/internal/usecase"
)

// ErrJournalDisabled is returned by History when no database is configured.
var ErrJournalDisabled = errors.New("submission journal is disabled (set database.dsn)")

// Options overrides process-level dependencies, mostly for tests.
type Options struct {
	Stdin   io.Reader
	Sleeper ports.Sleeper
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	client   *skyportal.Client
	registry *stream.Registry
	sleeper  ports.Sleeper
	document domain.TaxonomyDocument
	db       *sql.DB
	journal  *storage.PostgresJournal
}

// New builds the application. The journal database is opened only when a DSN is configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts Options) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	document, err := loadTaxonomy(cfg.Taxonomy)
	if err != nil {
		return nil, err
	}

	registry := stream.NewRegistry()
	registry.Register(replay.Factory{Stdin: opts.Stdin})

	sleeper := opts.Sleeper
	if sleeper == nil {
		sleeper = clock.Sleeper{}
	}

	a := &Application{
		cfg:      cfg,
		logger:   baseLogger,
		client:   skyportal.NewClient(cfg.SkyPortal),
		registry: registry,
		sleeper:  sleeper,
		document: document,
	}

	if cfg.Database.DSN != "" {
		db, err := storage.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		journal := storage.NewPostgresJournal(db)
		if err := journal.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
		a.journal = journal
	}

	return a, nil
}

// Close releases the journal database.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Bootstrap resolves the group, stream, filter and taxonomy ids.
func (a *Application) Bootstrap(ctx context.Context) (domain.PlatformContext, error) {
	boot := usecase.NewBootstrap(a.client, a.cfg.SkyPortal, a.document, a.component("bootstrap"))
	pc, err := boot.Run(ctx)
	if err != nil {
		return pc, fmt.Errorf("bootstrap: %w", err)
	}
	return pc, nil
}

// Run bootstraps and then consumes the stream until ctx is cancelled
// or the configured idle bound is reached.
func (a *Application) Run(ctx context.Context) error {
	pc, err := a.Bootstrap(ctx)
	if err != nil {
		return err
	}

	consumer, err := a.registry.Open(ctx, a.cfg.Stream)
	if err != nil {
		return err
	}

	var journal ports.Journal
	if a.journal != nil {
		journal = a.journal
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Platform:   a.client,
		Matcher:    a.matcher(),
		Journal:    journal,
		AuthorName: a.cfg.SkyPortal.AuthorName,
		Logger:     a.component("pipeline"),
	})

	loop := usecase.NewLoop(usecase.LoopDeps{
		Consumer:     consumer,
		Extractor:    usecase.NewExtractor(a.cfg.Alerts, a.cfg.Stream.Topics),
		Governor:     usecase.NewGovernor(a.cfg.Governor.Delay, a.sleeper),
		Submitter:    pipeline,
		Context:      pc,
		MaxTimeout:   a.cfg.Stream.MaxTimeout,
		MaxIdlePolls: a.cfg.Stream.MaxIdlePolls,
		Logger:       a.component("ingest"),
	})

	a.logger.Info("ingestion started",
		"stream", a.cfg.Stream.Kind,
		"whitelisted", pc.Whitelisted,
		"journal", a.journal != nil)

	if err := loop.Run(ctx); err != nil {
		return err
	}

	stats := loop.Stats()
	a.logger.Info("ingestion finished",
		"alerts", stats.Alerts,
		"submitted", stats.Submitted,
		"unusable", stats.Unusable,
		"failed", stats.Failed)
	return nil
}

// Resolve bootstraps the platform and matches label against the stored taxonomy.
func (a *Application) Resolve(ctx context.Context, label string) (taxonomy.Result, error) {
	pc, err := a.Bootstrap(ctx)
	if err != nil {
		return taxonomy.NotFound, err
	}
	return a.matcher().Resolve(ctx, label, pc.TaxonomyID)
}

// History lists journal entries for objectID, newest first.
func (a *Application) History(ctx context.Context, objectID string, limit uint64) ([]ports.JournalEntry, error) {
	if a.journal == nil {
		return nil, ErrJournalDisabled
	}
	return a.journal.History(ctx, objectID, limit)
}

func (a *Application) matcher() *taxonomy.Matcher {
	return taxonomy.NewMatcher(a.client, a.cfg.Taxonomy.Prefixes)
}

func (a *Application) component(name string) *slog.Logger {
	return a.logger.With("component", name)
}

func loadTaxonomy(cfg config.TaxonomyConfig) (domain.TaxonomyDocument, error) {
	if cfg.Path == "" {
		doc, err := taxonomy.Bundled()
		if err != nil {
			return doc, fmt.Errorf("bundled taxonomy: %w", err)
		}
		return doc, nil
	}

	doc, err := taxonomy.Load(cfg.Path)
	if err != nil {
		return doc, fmt.Errorf("taxonomy %s: %w", cfg.Path, err)
	}
	return doc, nil
}
