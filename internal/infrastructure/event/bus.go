package event

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// InMemoryEventBus delivers events synchronously to registered handlers.
// Application services publish after their transaction commits, so a handler
// failure never rolls back a balance change.
type InMemoryEventBus struct {
	registry  *HandlerRegistry
	logger    *zap.Logger
	running   atomic.Bool
	delivered atomic.Int64
	failed    atomic.Int64
}

// NewInMemoryEventBus creates a bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish hands every event to its handlers. Handler errors and panics are
// logged and counted but do not stop delivery to the remaining handlers.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if !b.running.Load() {
		b.logger.Debug("Event bus not started, dropping events", zap.Int("count", len(events)))
		return nil
	}
	log := logger.Or(ctx, b.logger)
	for _, event := range events {
		for _, handler := range b.registry.GetHandlers(event.EventType()) {
			if err := b.dispatch(ctx, handler, event); err != nil {
				b.failed.Add(1)
				log.Error("Event handler failed",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err),
				)
				continue
			}
			b.delivered.Add(1)
		}
	}
	return nil
}

// Subscribe registers handler for eventTypes, or for the handler's own types when none are given
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes handler from every event type
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start enables delivery
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.running.Store(true)
	b.logger.Info("Event bus started", zap.Int("handlers", len(b.registry.GetAllHandlers())))
	return nil
}

// Stop disables delivery
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)
	b.logger.Info("Event bus stopped",
		zap.Int64("delivered", b.delivered.Load()),
		zap.Int64("failed", b.failed.Load()),
	)
	return nil
}

// Stats returns delivered and failed handler invocations
func (b *InMemoryEventBus) Stats() (delivered, failed int64) {
	return b.delivered.Load(), b.failed.Load()
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
