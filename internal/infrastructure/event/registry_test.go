package event

import (
	"context"
	"testing"

	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

type mockHandler struct {
	eventTypes []string
}

func newMockHandler(eventTypes ...string) *mockHandler {
	return &mockHandler{eventTypes: eventTypes}
}

func (h *mockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	return nil
}

func (h *mockHandler) EventTypes() []string {
	return h.eventTypes
}

func TestHandlerRegistry_Register_SpecificTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newMockHandler("TierChanged", "BoostStatusChanged")

	registry.Register(handler, "TierChanged", "BoostStatusChanged")

	handlers := registry.GetHandlers("TierChanged")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])

	handlers = registry.GetHandlers("BoostStatusChanged")
	assert.Len(t, handlers, 1)

	assert.Empty(t, registry.GetHandlers("SomethingElse"))
}

func TestHandlerRegistry_Register_Twice(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newMockHandler("TierChanged")

	registry.Register(handler, "TierChanged")
	registry.Register(handler, "TierChanged")

	assert.Len(t, registry.GetHandlers("TierChanged"), 1)
}

func TestHandlerRegistry_Register_Wildcard(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newMockHandler()

	registry.Register(handler)

	assert.Len(t, registry.GetHandlers("TierChanged"), 1)
	assert.Len(t, registry.GetHandlers("AnyEventType"), 1)
}

func TestHandlerRegistry_Register_MixedTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	specificHandler := newMockHandler("TierChanged")
	wildcardHandler := newMockHandler()

	registry.Register(specificHandler, "TierChanged")
	registry.Register(wildcardHandler)

	handlers := registry.GetHandlers("TierChanged")
	assert.Len(t, handlers, 2)
	assert.Equal(t, specificHandler, handlers[0], "specific handlers come first")

	handlers = registry.GetHandlers("OtherEvent")
	assert.Len(t, handlers, 1)
	assert.Equal(t, wildcardHandler, handlers[0])
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	handler1 := newMockHandler("TierChanged")
	handler2 := newMockHandler("TierChanged")
	wildcard := newMockHandler()

	registry.Register(handler1, "TierChanged")
	registry.Register(handler2, "TierChanged")
	registry.Register(wildcard)
	assert.Len(t, registry.GetHandlers("TierChanged"), 3)

	registry.Unregister(handler1)
	registry.Unregister(wildcard)

	handlers := registry.GetHandlers("TierChanged")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler2, handlers[0])
	assert.Empty(t, registry.GetHandlers("AnyEvent"))
}

func TestHandlerRegistry_GetAllHandlers_NoDuplicates(t *testing.T) {
	registry := NewHandlerRegistry()
	multi := newMockHandler("TierChanged", "BoostStatusChanged")
	other := newMockHandler("BoostStatusChanged")
	wildcard := newMockHandler()

	registry.Register(multi, "TierChanged", "BoostStatusChanged")
	registry.Register(other, "BoostStatusChanged")
	registry.Register(wildcard)

	assert.Len(t, registry.GetAllHandlers(), 3)
}
