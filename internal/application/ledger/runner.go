package ledger

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Options configures the ledger services
type Options struct {
	// SyncAccountDebt accrues credit invoice remainders onto account debt and
	// releases it again as the invoice is settled.
	SyncAccountDebt bool
	// MaxRetries is the number of attempts for a use case that hits CONCURRENT_MODIFICATION
	MaxRetries int
	// IdempotencyTTL bounds how long payment idempotency keys are cached
	IdempotencyTTL time.Duration
	// PendingTTL bounds an in-flight key claim so a crashed request frees it
	PendingTTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxRetries < 1 {
		o.MaxRetries = 3
	}
	if o.IdempotencyTTL <= 0 {
		o.IdempotencyTTL = 24 * time.Hour
	}
	if o.PendingTTL <= 0 || o.PendingTTL > o.IdempotencyTTL {
		o.PendingTTL = min(time.Minute, o.IdempotencyTTL)
	}
	return o
}

// events gathers domain events raised inside a transaction.
// They are published only after the transaction commits.
type events struct {
	pending []shared.DomainEvent
}

func (e *events) collect(aggregates ...shared.AggregateRoot) {
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		e.pending = append(e.pending, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
}

type txFunc func(ctx context.Context, repos ledger.Repositories, ev *events) error

// runner executes one use case per transaction with retry on lost updates
type runner struct {
	uow       ledger.UnitOfWork
	publisher shared.EventPublisher
	metrics   *telemetry.LedgerMetrics
	logger    *zap.Logger
	opts      Options
}

func newRunner(uow ledger.UnitOfWork, publisher shared.EventPublisher, metrics *telemetry.LedgerMetrics, log *zap.Logger, opts Options) *runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &runner{uow: uow, publisher: publisher, metrics: metrics, logger: log, opts: opts.withDefaults()}
}

// run executes fn in a fresh transaction, retrying the whole use case on
// CONCURRENT_MODIFICATION. Aggregates are reloaded on every attempt.
func (r *runner) run(ctx context.Context, operation string, fn txFunc) error {
	start := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", operation)
	defer span.End()

	var err error
	for attempt := 1; attempt <= r.opts.MaxRetries; attempt++ {
		ev := &events{}
		err = r.uow.Do(ctx, func(ctx context.Context, repos ledger.Repositories) error {
			return fn(ctx, repos, ev)
		})
		if err == nil {
			telemetry.SetAttributes(span, telemetry.SpanAttrAttempt, attempt)
			r.metrics.ObserveOperation(ctx, operation, start, nil)
			r.publish(ctx, ev.pending)
			return nil
		}
		if !shared.IsConcurrentModification(err) || attempt == r.opts.MaxRetries {
			break
		}
		logger.Or(ctx, r.logger).Warn("Concurrent modification, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if werr := backoff(ctx, attempt); werr != nil {
			err = werr
			break
		}
	}

	telemetry.RecordError(span, err)
	r.metrics.ObserveOperation(ctx, operation, start, err)
	return err
}

func (r *runner) publish(ctx context.Context, pending []shared.DomainEvent) {
	if r.publisher == nil || len(pending) == 0 {
		return
	}
	if err := r.publisher.Publish(ctx, pending...); err != nil {
		logger.Or(ctx, r.logger).Error("Failed to publish ledger events", zap.Int("count", len(pending)), zap.Error(err))
	}
}

// read runs fn on the non-transactional repositories
func (r *runner) read(ctx context.Context, operation string, fn func(ctx context.Context, repos ledger.Repositories) error) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", operation)
	defer span.End()
	err := fn(ctx, r.uow.Repositories())
	telemetry.RecordError(span, err)
	return err
}

func backoff(ctx context.Context, attempt int) error {
	t := time.NewTimer(time.Duration(attempt*attempt) * 5 * time.Millisecond)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func logRejected(ctx context.Context, base *zap.Logger, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("code", shared.ErrorCode(err)), zap.Error(err))
	log := logger.Or(ctx, base)
	if shared.ErrorCode(err) == "" {
		log.Error(msg, fields...)
		return
	}
	log.Warn(msg, fields...)
}
