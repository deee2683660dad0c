// Package sink delivers collaboration domain events to external systems.
// Delivery is fire-and-forget: one attempt, failures logged, never
// surfaced to the operation that produced the event.
package sink

import (
	"context"
	"log"
)

// Event is a domain event forwarded to external systems.
type Event struct {
	Name          string `json:"event"`
	CorrelationID string `json:"correlation_id"`
	OwnerUserID   string `json:"owner_user_id"`
	Payload       any    `json:"payload,omitempty"`
}

// Sink receives domain events. Implementations must swallow their own
// failures; Notify never returns an error.
type Sink interface {
	Notify(ctx context.Context, ev Event)
}

// Multi fans an event out to several sinks in order.
type Multi []Sink

// Notify delivers the event to every wrapped sink.
func (m Multi) Notify(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Notify(ctx, ev)
	}
}

// Discard is a Sink that drops all events. Useful as a default when no
// outbound delivery is configured.
type Discard struct{}

// Notify drops the event.
func (Discard) Notify(ctx context.Context, ev Event) {}

// Logger is a Sink that writes events to the process log. Used in
// development setups without an external receiver.
type Logger struct{}

// Notify logs the event.
func (Logger) Notify(ctx context.Context, ev Event) {
	log.Printf("sink: event %s correlation=%s owner=%s", ev.Name, ev.CorrelationID, ev.OwnerUserID)
}
