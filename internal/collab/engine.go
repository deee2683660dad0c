// Package collab implements the collaboration engine: the single
// authority for session, message, task, and approval state. All mutations
// of those entities go through an Engine.
package collab

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"gorm.io/gorm"

	"github.com/conclave-hq/conclave/internal/bus"
	"github.com/conclave-hq/conclave/internal/models"
	"github.com/conclave-hq/conclave/internal/sink"
)

// Engine coordinates all collaboration state for every session sharing
// one store. Mutating operations on the same session are serialized by a
// per-session lock so getSession observes a single ordered ledger.
type Engine struct {
	db   *gorm.DB
	bus  bus.Bus
	sink sink.Sink

	locks sync.Map // session ID -> *sync.Mutex

	// syncEffects makes broadcast and sink delivery run inline instead of
	// in a goroutine. Tests use this for deterministic assertions.
	syncEffects bool
}

// EngineOpts holds parameters for creating an Engine.
type EngineOpts struct {
	DB   *gorm.DB
	Bus  bus.Bus   // defaults to a fresh in-process hub
	Sink sink.Sink // defaults to discarding events

	// SyncEffects runs side effects inline. For tests.
	SyncEffects bool
}

// NewEngine creates an Engine. DB is required.
func NewEngine(opts EngineOpts) *Engine {
	e := &Engine{
		db:          opts.DB,
		bus:         opts.Bus,
		sink:        opts.Sink,
		syncEffects: opts.SyncEffects,
	}
	if e.bus == nil {
		e.bus = bus.NewHub()
	}
	if e.sink == nil {
		e.sink = sink.Discard{}
	}
	return e
}

// lockSession acquires the per-session mutex, creating it on first use.
// The returned func releases it.
func (e *Engine) lockSession(sessionID string) func() {
	v, _ := e.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// dispatch runs a side effect off the caller's critical path. Side
// effects must never fail an operation whose primary write succeeded.
func (e *Engine) dispatch(fn func()) {
	if e.syncEffects {
		fn()
		return
	}
	go fn()
}

// broadcast fans a notification out to a room after the primary write
// has committed.
func (e *Engine) broadcast(room, event string, payload any) {
	e.dispatch(func() {
		e.bus.BroadcastToRoom(room, event, payload)
	})
}

// forward delivers a domain event to the outbound sink. The sink swallows
// its own failures; delivery is detached from the caller's context so a
// finished request cannot cancel it.
func (e *Engine) forward(ev sink.Event) {
	e.dispatch(func() {
		e.sink.Notify(context.Background(), ev)
	})
}

// writeEvent appends an audit event for a session. Best-effort: a failed
// audit write is logged and never fails the operation that produced it.
func (e *Engine) writeEvent(ctx context.Context, sessionID, eventType, description string, metadata any) {
	meta, err := marshalJSON(metadata)
	if err != nil {
		log.Printf("collab: marshal %s event metadata: %v", eventType, err)
		meta = ""
	}
	ev := models.Event{
		SessionID:   sessionID,
		Type:        eventType,
		Description: description,
		Metadata:    meta,
	}
	if err := e.db.WithContext(ctx).Create(&ev).Error; err != nil {
		log.Printf("collab: write %s event for session %s: %v", eventType, sessionID, err)
	}
}

// sinkEvent builds the outbound representation of a domain event.
func sinkEvent(name, correlationID, ownerUserID string, payload any) sink.Event {
	return sink.Event{
		Name:          name,
		CorrelationID: correlationID,
		OwnerUserID:   ownerUserID,
		Payload:       payload,
	}
}

// marshalJSON marshals a value to a JSON string, returning empty string for nil.
func marshalJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
