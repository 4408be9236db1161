package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InMemoryEventBus dispatches domain events to subscribed handlers in-process.
// Handler failures are logged and never reach the publisher: a tier change or
// boost transition is already committed by the time its event is published.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	running  atomic.Bool
	inFlight sync.WaitGroup
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish dispatches events synchronously, in order, to every matching handler
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.inFlight.Add(1)
	defer b.inFlight.Done()

	for _, event := range events {
		if event == nil {
			continue
		}
		b.dispatch(ctx, event)
	}
	return nil
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, event shared.DomainEvent) {
	handlers := b.registry.GetHandlers(event.EventType())
	if len(handlers) == 0 {
		return
	}

	ctx, span := telemetry.StartSpan(ctx, "event.dispatch",
		telemetry.WithAttribute("event.type", event.EventType()),
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, event.TenantID().String()),
	)
	defer span.End()

	for _, handler := range handlers {
		if err := b.invoke(ctx, handler, event); err != nil {
			telemetry.RecordError(span, err)
			b.logger.Error("Event handler failed",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.String("aggregate_id", event.AggregateID().String()),
				zap.String("tenant_id", event.TenantID().String()),
				zap.Error(err),
			)
		}
	}
}

// invoke runs one handler, converting a panic into an error
func (b *InMemoryEventBus) invoke(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

// Subscribe registers a handler. With no explicit types the handler's own
// EventTypes are used; an empty list subscribes to everything.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Event handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler from every event type
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start marks the bus as running
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.running.Store(true)
	b.logger.Info("Event bus started", zap.Int("handlers", len(b.registry.GetAllHandlers())))
	return nil
}

// Stop waits for in-flight publishes or ctx cancellation, whichever comes first
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)

	done := make(chan struct{})
	go func() {
		b.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("Event bus stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus stop: %w", ctx.Err())
	}
}

// IsRunning reports whether Start has been called without a matching Stop
func (b *InMemoryEventBus) IsRunning() bool {
	return b.running.Load()
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
