package collab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conclave-hq/conclave/internal/bus"
	"github.com/conclave-hq/conclave/internal/models"
)

// RequestApprovalOpts holds parameters for raising an approval gate.
type RequestApprovalOpts struct {
	SessionID   string
	AgentID     string
	Title       string
	Description string
	RequestData map[string]any
}

// RequestApproval records a pending human-in-the-loop checkpoint and
// notifies the session owner's personal room. The engine only records
// and announces decisions; conditioning further work on the outcome is a
// caller responsibility.
func (e *Engine) RequestApproval(ctx context.Context, opts RequestApprovalOpts) (*models.Approval, error) {
	unlock := e.lockSession(opts.SessionID)
	defer unlock()

	if opts.AgentID == "" {
		return nil, validationf("requesting agent is required")
	}
	if opts.Title == "" {
		return nil, validationf("approval title is required")
	}
	if opts.Description == "" {
		return nil, validationf("approval description is required")
	}

	session, err := e.loadSession(ctx, opts.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionActive {
		return nil, conflictf("session %s is %s", session.ID, session.Status)
	}

	data, err := marshalJSON(opts.RequestData)
	if err != nil {
		return nil, fmt.Errorf("collab: marshal approval request data: %w", err)
	}

	approval := models.Approval{
		ID:          uuid.NewString(),
		SessionID:   opts.SessionID,
		AgentID:     opts.AgentID,
		Title:       opts.Title,
		Description: opts.Description,
		RequestData: data,
		Status:      models.ApprovalPending,
		CreatedAt:   time.Now(),
	}
	if err := e.db.WithContext(ctx).Create(&approval).Error; err != nil {
		return nil, fmt.Errorf("collab: request approval: %w", err)
	}

	e.writeEvent(ctx, opts.SessionID, models.EventApprovalRequested,
		fmt.Sprintf("approval %q requested by %s", approval.Title, approval.AgentID),
		map[string]any{"approval_id": approval.ID})
	// The owner decides, so their personal room gets the notification.
	e.broadcast(bus.UserRoom(session.OwnerUserID), models.EventApprovalRequested, &approval)
	e.forward(sinkEvent(models.EventApprovalRequested, approval.ID, session.OwnerUserID, map[string]any{
		"session_id": approval.SessionID,
		"agent":      approval.AgentID,
		"title":      approval.Title,
	}))

	return &approval, nil
}

// HandleApprovalResponse records a human decision on a pending approval.
// Both approved and rejected are terminal; a second response fails with
// ConflictError rather than overwriting the first.
func (e *Engine) HandleApprovalResponse(ctx context.Context, approvalID, userID string, approved bool, feedback string) (*models.Approval, error) {
	if userID == "" {
		return nil, validationf("responding user is required")
	}

	var approval models.Approval
	err := e.db.WithContext(ctx).First(&approval, "id = ?", approvalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "approval", ID: approvalID}
	}
	if err != nil {
		return nil, fmt.Errorf("collab: load approval %s: %w", approvalID, err)
	}

	unlock := e.lockSession(approval.SessionID)
	defer unlock()

	// Re-read under the lock so two responders cannot both see pending.
	if err := e.db.WithContext(ctx).First(&approval, "id = ?", approvalID).Error; err != nil {
		return nil, fmt.Errorf("collab: load approval %s: %w", approvalID, err)
	}
	if approval.Status != models.ApprovalPending {
		return nil, conflictf("approval %s already %s", approvalID, approval.Status)
	}

	now := time.Now()
	updates := map[string]any{
		"responded_at": &now,
		"feedback":     feedback,
	}
	decision := models.ApprovalRejected
	if approved {
		decision = models.ApprovalApproved
		updates["status"] = models.ApprovalApproved
		updates["approved_by_user_id"] = userID
	} else {
		updates["status"] = models.ApprovalRejected
		updates["rejected_by_user_id"] = userID
	}

	if err := e.db.WithContext(ctx).Model(&approval).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("collab: respond to approval %s: %w", approvalID, err)
	}
	if err := e.db.WithContext(ctx).First(&approval, "id = ?", approvalID).Error; err != nil {
		return nil, fmt.Errorf("collab: reload approval %s: %w", approvalID, err)
	}

	content := fmt.Sprintf("Approval %q %s by %s", approval.Title, decision, userID)
	if feedback != "" {
		content += ": " + feedback
	}
	if _, err := e.sendMessageLocked(ctx, SendMessageOpts{
		SessionID: approval.SessionID,
		FromAgent: models.SystemAgent,
		ToAgent:   approval.AgentID,
		Content:   content,
		Type:      models.MessageText,
		Metadata:  map[string]any{"approval_id": approval.ID, "decision": decision},
	}); err != nil {
		return nil, fmt.Errorf("collab: approval decision message: %w", err)
	}

	e.writeEvent(ctx, approval.SessionID, models.EventApprovalResponded,
		fmt.Sprintf("approval %q %s", approval.Title, decision),
		map[string]any{"approval_id": approval.ID, "decision": decision})
	e.broadcast(bus.SessionRoom(approval.SessionID), models.EventApprovalResponded, &approval)
	e.forward(sinkEvent(models.EventApprovalResponded, approval.ID, userID, map[string]any{
		"session_id": approval.SessionID,
		"decision":   decision,
	}))

	return &approval, nil
}
