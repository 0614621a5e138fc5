package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// app is one CLI session: a database, the ledger services and the
// in-process event bus they publish to.
type app struct {
	log      *zap.Logger
	db       *persistence.Database
	bus      *event.InMemoryEventBus
	store    *cache.InMemoryIdempotencyStore
	services *ledgerapp.Services
	validate *validator.Validate
}

func openApp(ctx context.Context, opts *rootOptions) (*app, error) {
	log, err := logger.New(logger.Config{Level: opts.logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	ledgerOpts := ledgerapp.Options{SyncAccountDebt: true}
	var (
		db          *persistence.Database
		lockTimeout time.Duration
	)
	if opts.sqlitePath != "" {
		db, err = persistence.NewSQLiteDatabase(opts.sqlitePath, persistence.Options{Logger: log, LogLevel: "silent"})
		if err != nil {
			return nil, err
		}
	} else {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		db, err = persistence.NewDatabase(&cfg.Database, persistence.Options{Logger: log, LogLevel: opts.logLevel})
		if err != nil {
			return nil, err
		}
		ledgerOpts, lockTimeout = serviceSettings(cfg)
	}

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewLedgerActivityLogger(log))
	if err := bus.Start(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	if err := middleware.RegisterValidations(v); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := cache.NewInMemoryIdempotencyStore()
	return &app{
		log:   log,
		db:    db,
		bus:   bus,
		store: store,
		services: ledgerapp.NewServices(ledgerapp.Dependencies{
			UnitOfWork:  persistence.NewUnitOfWork(db.DB, lockTimeout),
			Publisher:   bus,
			Idempotency: store,
			Logger:      log,
			Options:     ledgerOpts,
		}),
		validate: v,
	}, nil
}

// serviceSettings maps the server configuration onto the ledger services.
// The lock timeout keeps a CLI session from waiting forever on a row another
// process holds.
func serviceSettings(cfg *config.Config) (ledgerapp.Options, time.Duration) {
	return ledgerapp.Options{
		SyncAccountDebt: cfg.Ledger.SyncAccountDebt,
		MaxRetries:      cfg.Ledger.MaxRetries,
		IdempotencyTTL:  cfg.Ledger.IdempotencyTTL,
		PendingTTL:      cfg.Ledger.PendingTTL,
	}, cfg.Database.LockTimeout
}

// check runs the request tags the HTTP layer enforces through gin binding
func (a *app) check(req any) error {
	var verrs validator.ValidationErrors
	if err := a.validate.Struct(req); errors.As(err, &verrs) {
		fe := verrs[0]
		return fmt.Errorf("invalid %s: failed %q validation", fe.Field(), fe.Tag())
	} else if err != nil {
		return err
	}
	return nil
}

func (a *app) Close(ctx context.Context) {
	if err := a.bus.Stop(ctx); err != nil {
		a.log.Warn("Error stopping event bus", zap.Error(err))
	}
	_ = a.store.Close()
	if err := a.db.Close(); err != nil {
		a.log.Warn("Error closing database", zap.Error(err))
	}
	_ = a.log.Sync()
}

// withApp opens a session, runs fn and closes the session again
func withApp(ctx context.Context, opts *rootOptions, fn func(*app) error) error {
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close(ctx)
	return fn(a)
}
