package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/exchange/pkg/domain/events"
)

// SimpleEventBus is a synchronous in-memory EventBus. Handlers run in the
// publisher's goroutine, after the publisher's transaction has committed.
type SimpleEventBus struct {
	handlers map[string][]func(context.Context, events.Event)
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewSimpleEventBus creates an empty bus.
func NewSimpleEventBus(logger *slog.Logger) *SimpleEventBus {
	return &SimpleEventBus{
		handlers: make(map[string][]func(context.Context, events.Event)),
		logger:   logger,
	}
}

func (b *SimpleEventBus) Publish(ctx context.Context, event events.Event) error {
	b.logger.Debug("eventbus publish", "event_type", event.Type())
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, handler := range b.handlers[event.Type()] {
		handler(ctx, event)
	}
	return nil
}

func (b *SimpleEventBus) Subscribe(eventType string, handler func(context.Context, events.Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
