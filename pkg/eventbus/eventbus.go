// Package eventbus provides the in-process publish/subscribe bus used to
// fan lifecycle events out to notification and audit consumers.
package eventbus

import (
	"context"

	"github.com/amirasaad/exchange/pkg/domain/events"
)

// EventBus publishes domain events to registered handlers.
type EventBus interface {
	Publish(ctx context.Context, event events.Event) error
	Subscribe(eventType string, handler func(context.Context, events.Event))
}
