package bus

import (
	"log"
	"sync"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls this far behind starts losing notifications.
const subscriberBuffer = 64

// Hub is an in-process Bus implementation. Subscribers register per room
// and receive notifications on a buffered channel; broadcasts never block
// the publisher.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Subscriber]struct{}
}

// Subscriber is a single registered listener on a room.
type Subscriber struct {
	room string
	ch   chan Notification
}

// C returns the subscriber's notification channel. It is closed when the
// subscriber is removed from the hub.
func (s *Subscriber) C() <-chan Notification {
	return s.ch
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Subscriber]struct{})}
}

// Subscribe registers a listener on a room.
func (h *Hub) Subscribe(room string) *Subscriber {
	sub := &Subscriber{room: room, ch: make(chan Notification, subscriberBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[room]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.rooms[room] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes a listener and closes its channel. Safe to call once
// per subscriber.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[sub.room]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.rooms, sub.room)
	}
	close(sub.ch)
}

// BroadcastToRoom delivers a notification to every subscriber of the room.
// Subscribers with full buffers are skipped so a slow listener cannot
// stall the engine.
func (h *Hub) BroadcastToRoom(room, event string, payload any) {
	n := Notification{Room: room, Event: event, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.rooms[room] {
		select {
		case sub.ch <- n:
		default:
			log.Printf("bus: dropping %s for slow subscriber in %s", event, room)
		}
	}
}
