package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/unit-converter/internal/config"
	"github.com/kirillkom/unit-converter/internal/core/converter"
	"github.com/kirillkom/unit-converter/internal/core/ports"
	"github.com/kirillkom/unit-converter/internal/core/usecase"
	"github.com/kirillkom/unit-converter/internal/infrastructure/auditlog"
	"github.com/kirillkom/unit-converter/internal/infrastructure/queue/nats"
	"github.com/kirillkom/unit-converter/internal/infrastructure/repository/memory"
	"github.com/kirillkom/unit-converter/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/unit-converter/internal/infrastructure/repository/sqlite"
	"github.com/kirillkom/unit-converter/internal/infrastructure/resilience"
	"github.com/kirillkom/unit-converter/internal/infrastructure/security/hashing"
)

type App struct {
	Config config.Config

	Sink      *auditlog.Sink
	Events    *nats.EventStream
	Converter *usecase.ConvertUseCase
	// Accounts is nil when the login gate is disabled.
	Accounts *usecase.AccountUseCase

	closers []func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}

	sink, err := auditlog.Open(cfg.ConversionLogPath)
	if err != nil {
		return nil, fmt.Errorf("open conversion log: %w", err)
	}
	app.Sink = sink
	app.closers = append(app.closers, func() { _ = sink.Close() })

	opts := []usecase.ConvertOption{usecase.WithPrecision(cfg.DisplayPrecision)}
	if cfg.NATSURL != "" {
		events, err := connectEvents(cfg, "unit-converter")
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Events = events
		app.closers = append(app.closers, events.Close)
		opts = append(opts, usecase.WithEventPublisher(events))
	}
	app.Converter = usecase.NewConvertUseCase(converter.New(), sink.Logger(), opts...)

	if cfg.AuthEnabled {
		store, closeStore, err := openCredentialStore(ctx, cfg)
		if err != nil {
			app.Close()
			return nil, err
		}
		if closeStore != nil {
			app.closers = append(app.closers, closeStore)
		}
		app.Accounts = usecase.NewAccountUseCase(store, hashing.NewBcryptHasher(cfg.BcryptCost), sink.Logger())
	}

	return app, nil
}

// NewWorker wires the consumer side: the event stream and the worker's own log file.
func NewWorker(cfg config.Config) (*App, error) {
	if cfg.NATSURL == "" {
		return nil, fmt.Errorf("NATS_URL is required for the worker")
	}
	app := &App{Config: cfg}

	sink, err := auditlog.Open(cfg.WorkerLogPath)
	if err != nil {
		return nil, fmt.Errorf("open worker log: %w", err)
	}
	app.Sink = sink
	app.closers = append(app.closers, func() { _ = sink.Close() })

	events, err := connectEvents(cfg, "unit-converter-worker")
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Events = events
	app.closers = append(app.closers, events.Close)
	return app, nil
}

func connectEvents(cfg config.Config, name string) (*nats.EventStream, error) {
	events, err := nats.Connect(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		Name:  name,
		Guard: resilience.NewGuard(resilience.DefaultPolicy()),
	})
	if err != nil {
		return nil, fmt.Errorf("init event stream: %w", err)
	}
	return events, nil
}

func openCredentialStore(ctx context.Context, cfg config.Config) (ports.CredentialStore, func(), error) {
	switch cfg.CredentialStore {
	case config.StoreMemory:
		slog.Warn("credential_store_in_memory", "detail", "accounts are lost on restart")
		return memory.NewStore(), nil, nil
	case config.StoreSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite credential store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case config.StorePostgres:
		db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewCredentialRepository(db, resilience.NewGuard(resilience.DefaultPolicy()))
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown credential store %q", cfg.CredentialStore)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
