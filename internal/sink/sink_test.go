package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// recordingSink captures notified events for assertions.
type recordingSink struct {
	events []Event
}

func (r *recordingSink) Notify(ctx context.Context, ev Event) {
	r.events = append(r.events, ev)
}

func TestMulti_FansOut(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	m := Multi{a, b}

	m.Notify(context.Background(), Event{Name: "session_created", CorrelationID: "s1"})

	for i, r := range []*recordingSink{a, b} {
		if len(r.events) != 1 {
			t.Fatalf("sink %d received %d events, want 1", i, len(r.events))
		}
		if r.events[0].Name != "session_created" {
			t.Errorf("sink %d event = %q", i, r.events[0].Name)
		}
	}
}

func TestDiscard_NoPanic(t *testing.T) {
	Discard{}.Notify(context.Background(), Event{Name: "anything"})
}

func TestWebhook_PostsJSON(t *testing.T) {
	var received Event
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhook(WebhookOpts{URL: srv.URL})
	w.Notify(context.Background(), Event{
		Name:          "task_assigned",
		CorrelationID: "task-1",
		OwnerUserID:   "user1",
	})

	if contentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", contentType)
	}
	if received.Name != "task_assigned" {
		t.Errorf("event = %q, want task_assigned", received.Name)
	}
	if received.CorrelationID != "task-1" {
		t.Errorf("correlation = %q, want task-1", received.CorrelationID)
	}
}

func TestWebhook_SwallowsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWebhook(WebhookOpts{URL: srv.URL})
	// Must not panic; Notify has no error to return.
	w.Notify(context.Background(), Event{Name: "session_created"})
}

func TestWebhook_SwallowsUnreachable(t *testing.T) {
	w := NewWebhook(WebhookOpts{URL: "http://127.0.0.1:1/unreachable"})
	w.Notify(context.Background(), Event{Name: "session_created"})
}
