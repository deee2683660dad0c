package collab

import (
	"context"
	"testing"
	"time"

	"github.com/conclave-hq/conclave/internal/bus"
	"github.com/conclave-hq/conclave/internal/models"
)

func newSession(t *testing.T, e *Engine, agents ...string) *models.Session {
	t.Helper()
	if len(agents) == 0 {
		agents = []string{"a1", "a2"}
	}
	session, err := e.CreateSession(context.Background(), CreateSessionOpts{
		Name:        "test",
		OwnerUserID: "user1",
		AgentIDs:    agents,
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return session
}

func TestSendMessage_Directed(t *testing.T) {
	e, b, _ := testEngine(t)
	ctx := context.Background()
	session := newSession(t, e)

	msg, err := e.SendMessage(ctx, SendMessageOpts{
		SessionID: session.ID,
		FromAgent: "a1",
		ToAgent:   "a2",
		Content:   "hello",
		Type:      models.MessageText,
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.Broadcast() {
		t.Error("directed message reported as broadcast")
	}
	if !b.has(bus.SessionRoom(session.ID), "message_received") {
		t.Error("message_received not broadcast to session room")
	}

	// The target survives every subsequent read.
	got, err := e.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	var found bool
	for _, m := range got.Messages {
		if m.ID == msg.ID {
			found = true
			if m.ToAgent != "a2" {
				t.Errorf("ToAgent = %q, want a2", m.ToAgent)
			}
		}
	}
	if !found {
		t.Error("message missing from session ledger")
	}
}

func TestSendMessage_Broadcast(t *testing.T) {
	e, _, _ := testEngine(t)
	ctx := context.Background()
	session := newSession(t, e)

	msg, err := e.SendMessage(ctx, SendMessageOpts{
		SessionID: session.ID,
		FromAgent: "a1",
		Content:   "to everyone",
		Type:      models.MessageText,
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if !msg.Broadcast() {
		t.Error("message without ToAgent should be broadcast")
	}

	// Broadcast messages stay in the session ledger.
	got, _ := e.GetSession(ctx, session.ID)
	var found bool
	for _, m := range got.Messages {
		if m.ID == msg.ID && m.Broadcast() {
			found = true
		}
	}
	if !found {
		t.Error("broadcast message dropped from session ledger")
	}
}

func TestSendMessage_UnknownType(t *testing.T) {
	e, _, _ := testEngine(t)
	session := newSession(t, e)

	_, err := e.SendMessage(context.Background(), SendMessageOpts{
		SessionID: session.ID,
		FromAgent: "a1",
		Content:   "x",
		Type:      "bogus",
	})
	if !IsValidation(err) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	// Nothing persisted.
	got, _ := e.GetSession(context.Background(), session.ID)
	if len(got.Messages) != 0 {
		t.Errorf("messages = %d, want 0 after rejected send", len(got.Messages))
	}
}

func TestSendMessage_MissingContent(t *testing.T) {
	e, _, _ := testEngine(t)
	session := newSession(t, e)

	_, err := e.SendMessage(context.Background(), SendMessageOpts{
		SessionID: session.ID,
		FromAgent: "a1",
		Type:      models.MessageText,
	})
	if !IsValidation(err) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestSendMessage_UnknownSession(t *testing.T) {
	e, _, _ := testEngine(t)

	_, err := e.SendMessage(context.Background(), SendMessageOpts{
		SessionID: "missing",
		FromAgent: "a1",
		Content:   "x",
		Type:      models.MessageText,
	})
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

// Messages come back in creation order on every read, and no message
// already returned may disappear from a later call.
func TestSendMessage_AppendOnlyOrdering(t *testing.T) {
	e, _, _ := testEngine(t)
	ctx := context.Background()
	session := newSession(t, e)

	contents := []string{"one", "two", "three", "four", "five"}
	for _, c := range contents {
		if _, err := e.SendMessage(ctx, SendMessageOpts{
			SessionID: session.ID,
			FromAgent: "a1",
			Content:   c,
			Type:      models.MessageText,
		}); err != nil {
			t.Fatalf("SendMessage(%s): %v", c, err)
		}
	}

	var prevIDs []string
	for read := 0; read < 3; read++ {
		got, err := e.GetSession(ctx, session.ID)
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if len(got.Messages) != len(contents) {
			t.Fatalf("messages = %d, want %d", len(got.Messages), len(contents))
		}
		for i, m := range got.Messages {
			if m.Content != contents[i] {
				t.Errorf("read %d: message[%d] = %q, want %q", read, i, m.Content, contents[i])
			}
			if i > 0 && got.Messages[i].CreatedAt.Before(got.Messages[i-1].CreatedAt) {
				t.Errorf("read %d: message[%d] out of time order", read, i)
			}
		}
		ids := make([]string, len(got.Messages))
		for i, m := range got.Messages {
			ids[i] = m.ID
		}
		if prevIDs != nil {
			for i := range prevIDs {
				if ids[i] != prevIDs[i] {
					t.Errorf("read %d: message order changed at %d", read, i)
				}
			}
		}
		prevIDs = ids
	}
}

// The ledger's order comes from the per-session sequence, not from
// timestamps: MySQL truncates CreatedAt to milliseconds, so back-to-back
// writes can tie. Flattening every timestamp must not reorder anything.
func TestSendMessage_OrderSurvivesTimestampTies(t *testing.T) {
	e, _, _ := testEngine(t)
	ctx := context.Background()
	session := newSession(t, e)

	contents := []string{"first", "second", "third", "fourth"}
	for _, c := range contents {
		if _, err := e.SendMessage(ctx, SendMessageOpts{
			SessionID: session.ID,
			FromAgent: "a1",
			Content:   c,
			Type:      models.MessageText,
		}); err != nil {
			t.Fatalf("SendMessage(%s): %v", c, err)
		}
	}

	// Collapse all timestamps into one tie bucket.
	if err := e.db.Model(&models.Message{}).
		Where("session_id = ?", session.ID).
		Update("created_at", time.Now()).Error; err != nil {
		t.Fatalf("flatten timestamps: %v", err)
	}

	got, err := e.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(got.Messages) != len(contents) {
		t.Fatalf("messages = %d, want %d", len(got.Messages), len(contents))
	}
	for i, m := range got.Messages {
		if m.Content != contents[i] {
			t.Errorf("message[%d] = %q, want %q", i, m.Content, contents[i])
		}
		if m.Seq != int64(i+1) {
			t.Errorf("message[%d] seq = %d, want %d", i, m.Seq, i+1)
		}
	}
}

// Sequences are scoped per session; one session's ledger never advances
// another's.
func TestSendMessage_SeqPerSession(t *testing.T) {
	e, _, _ := testEngine(t)
	ctx := context.Background()
	s1 := newSession(t, e)
	s2 := newSession(t, e)

	for _, sessionID := range []string{s1.ID, s1.ID, s2.ID} {
		if _, err := e.SendMessage(ctx, SendMessageOpts{
			SessionID: sessionID,
			FromAgent: "a1",
			Content:   "ping",
			Type:      models.MessageText,
		}); err != nil {
			t.Fatalf("SendMessage: %v", err)
		}
	}

	got, err := e.GetSession(ctx, s2.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(got.Messages))
	}
	if got.Messages[0].Seq != 1 {
		t.Errorf("seq = %d, want 1", got.Messages[0].Seq)
	}
}
