package collab

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conclave-hq/conclave/internal/bus"
	"github.com/conclave-hq/conclave/internal/models"
)

// SendMessageOpts holds parameters for sending a message. An empty
// ToAgent broadcasts to all session participants.
type SendMessageOpts struct {
	SessionID string
	FromAgent string
	ToAgent   string
	Content   string
	Type      string
	Metadata  map[string]any
}

// SendMessage appends a message to a session's ledger. Messages are
// immutable once written. Task and approval records are not synthesized
// from message metadata; callers needing those use AssignTask and
// RequestApproval, which emit their own correlated messages.
func (e *Engine) SendMessage(ctx context.Context, opts SendMessageOpts) (*models.Message, error) {
	unlock := e.lockSession(opts.SessionID)
	defer unlock()
	return e.sendMessageLocked(ctx, opts)
}

// sendMessageLocked is SendMessage without lock acquisition, for
// operations that already hold the session lock and need to append a
// correlated message.
func (e *Engine) sendMessageLocked(ctx context.Context, opts SendMessageOpts) (*models.Message, error) {
	if opts.FromAgent == "" {
		return nil, validationf("message sender is required")
	}
	if opts.Content == "" {
		return nil, validationf("message content is required")
	}
	if opts.Type == "" {
		return nil, validationf("message type is required")
	}
	if !models.ValidMessageType(opts.Type) {
		return nil, validationf("unknown message type %q", opts.Type)
	}

	session, err := e.loadSession(ctx, opts.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionActive {
		return nil, conflictf("session %s is %s", session.ID, session.Status)
	}

	meta, err := marshalJSON(opts.Metadata)
	if err != nil {
		return nil, fmt.Errorf("collab: marshal message metadata: %w", err)
	}

	seq, err := e.nextMessageSeq(ctx, opts.SessionID)
	if err != nil {
		return nil, err
	}

	msg := models.Message{
		ID:        uuid.NewString(),
		SessionID: opts.SessionID,
		FromAgent: opts.FromAgent,
		ToAgent:   opts.ToAgent,
		Content:   opts.Content,
		Type:      opts.Type,
		Metadata:  meta,
		Seq:       seq,
		CreatedAt: time.Now(),
	}
	if err := e.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("collab: send message: %w", err)
	}

	e.broadcast(bus.SessionRoom(opts.SessionID), "message_received", &msg)
	e.writeEvent(ctx, opts.SessionID, models.EventMessageSent,
		fmt.Sprintf("%s message from %s", msg.Type, msg.FromAgent),
		map[string]any{"message_id": msg.ID, "to": msg.ToAgent})
	e.forward(sinkEvent(models.EventMessageSent, msg.ID, session.OwnerUserID, map[string]any{
		"session_id": msg.SessionID,
		"from":       msg.FromAgent,
		"to":         msg.ToAgent,
		"type":       msg.Type,
	}))

	return &msg, nil
}

// nextMessageSeq returns the next ledger position for a session. The
// caller holds the session lock, so the read-then-insert cannot race.
func (e *Engine) nextMessageSeq(ctx context.Context, sessionID string) (int64, error) {
	var max int64
	err := e.db.WithContext(ctx).Model(&models.Message{}).
		Where("session_id = ?", sessionID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("collab: next message seq for session %s: %w", sessionID, err)
	}
	return max + 1, nil
}
