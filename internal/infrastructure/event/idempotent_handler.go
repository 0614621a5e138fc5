package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"go.uber.org/zap"
)

const eventKeyPrefix = "event:"

// IdempotencyStats is a snapshot of handler counters
type IdempotencyStats struct {
	Processed int64 `json:"processed"`
	Duplicate int64 `json:"duplicate"`
	Failed    int64 `json:"failed"`
}

// IdempotentHandler skips events whose ID was already handled within ttl
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	ttl     time.Duration
	logger  *zap.Logger

	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// NewIdempotentHandler wraps handler
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) *IdempotentHandler {
	return &IdempotentHandler{handler: handler, store: store, ttl: ttl, logger: logger}
}

// EventTypes delegates to the wrapped handler
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle runs the wrapped handler once per event ID. When the store is
// unreachable the event is handled anyway.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := eventKeyPrefix + event.EventID().String()

	isNew, err := h.store.Remember(ctx, key, event.EventType(), h.ttl)
	if err != nil {
		h.logger.Warn("Idempotency check failed, handling event anyway",
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
	} else if !isNew {
		h.duplicate.Add(1)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		// release the key so a redelivery can retry
		if ferr := h.store.Forget(ctx, key); ferr != nil {
			h.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(ferr))
		}
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns the current counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed: h.processed.Load(),
		Duplicate: h.duplicate.Load(),
		Failed:    h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
