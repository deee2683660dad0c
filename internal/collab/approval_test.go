package collab

import (
	"context"
	"strings"
	"testing"

	"github.com/conclave-hq/conclave/internal/bus"
	"github.com/conclave-hq/conclave/internal/models"
)

func requestApproval(t *testing.T, e *Engine, session *models.Session) *models.Approval {
	t.Helper()
	approval, err := e.RequestApproval(context.Background(), RequestApprovalOpts{
		SessionID:   session.ID,
		AgentID:     "a1",
		Title:       "Deploy?",
		Description: "Needs human OK",
	})
	if err != nil {
		t.Fatalf("RequestApproval: %v", err)
	}
	return approval
}

func TestRequestApproval(t *testing.T) {
	e, b, s := testEngine(t)
	session := newSession(t, e)

	approval := requestApproval(t, e, session)

	if approval.Status != models.ApprovalPending {
		t.Errorf("status = %q, want pending", approval.Status)
	}
	// The owner's personal room gets the pending notification.
	if !b.has(bus.UserRoom("user1"), models.EventApprovalRequested) {
		t.Error("approval_requested not sent to owner's user room")
	}
	if !s.has(models.EventApprovalRequested) {
		t.Error("approval_requested not forwarded to sink")
	}
}

func TestRequestApproval_Validation(t *testing.T) {
	e, _, _ := testEngine(t)
	session := newSession(t, e)
	ctx := context.Background()

	if _, err := e.RequestApproval(ctx, RequestApprovalOpts{
		SessionID: session.ID, AgentID: "a1", Description: "d",
	}); !IsValidation(err) {
		t.Errorf("missing title: err = %v, want ValidationError", err)
	}
	if _, err := e.RequestApproval(ctx, RequestApprovalOpts{
		SessionID: session.ID, AgentID: "a1", Title: "t",
	}); !IsValidation(err) {
		t.Errorf("missing description: err = %v, want ValidationError", err)
	}
}

func TestHandleApprovalResponse_Approve(t *testing.T) {
	e, b, _ := testEngine(t)
	ctx := context.Background()
	session := newSession(t, e)
	approval := requestApproval(t, e, session)

	responded, err := e.HandleApprovalResponse(ctx, approval.ID, "user1", true, "go ahead")
	if err != nil {
		t.Fatalf("HandleApprovalResponse: %v", err)
	}

	if responded.Status != models.ApprovalApproved {
		t.Errorf("status = %q, want approved", responded.Status)
	}
	if responded.ApprovedByUserID != "user1" {
		t.Errorf("ApprovedByUserID = %q, want user1", responded.ApprovedByUserID)
	}
	if responded.RejectedByUserID != "" {
		t.Error("RejectedByUserID set on approval")
	}
	if responded.RespondedAt == nil {
		t.Error("RespondedAt not stamped")
	}
	if responded.Feedback != "go ahead" {
		t.Errorf("feedback = %q", responded.Feedback)
	}
	if !b.has(bus.SessionRoom(session.ID), models.EventApprovalResponded) {
		t.Error("approval_responded not broadcast")
	}

	// A system -> requesting-agent message announces the decision.
	got, _ := e.GetSession(ctx, session.ID)
	var found bool
	for _, m := range got.Messages {
		if m.FromAgent == models.SystemAgent && m.ToAgent == "a1" {
			found = true
			if !strings.Contains(m.Content, "go ahead") {
				t.Errorf("decision message %q missing feedback", m.Content)
			}
		}
	}
	if !found {
		t.Error("decision message missing from ledger")
	}
}

func TestHandleApprovalResponse_Reject(t *testing.T) {
	e, _, _ := testEngine(t)
	session := newSession(t, e)
	approval := requestApproval(t, e, session)

	responded, err := e.HandleApprovalResponse(context.Background(), approval.ID, "user2", false, "not yet")
	if err != nil {
		t.Fatalf("HandleApprovalResponse: %v", err)
	}
	if responded.Status != models.ApprovalRejected {
		t.Errorf("status = %q, want rejected", responded.Status)
	}
	if responded.RejectedByUserID != "user2" {
		t.Errorf("RejectedByUserID = %q, want user2", responded.RejectedByUserID)
	}
	if responded.ApprovedByUserID != "" {
		t.Error("ApprovedByUserID set on rejection")
	}
}

// Responding twice leaves the first terminal state and fails with
// ConflictError, never a silent overwrite.
func TestHandleApprovalResponse_SingleResponse(t *testing.T) {
	e, _, _ := testEngine(t)
	ctx := context.Background()
	session := newSession(t, e)
	approval := requestApproval(t, e, session)

	if _, err := e.HandleApprovalResponse(ctx, approval.ID, "user1", true, ""); err != nil {
		t.Fatalf("first response: %v", err)
	}

	_, err := e.HandleApprovalResponse(ctx, approval.ID, "user2", false, "overruled")
	if !IsConflict(err) {
		t.Fatalf("second response err = %v, want ConflictError", err)
	}

	got, _ := e.GetSession(ctx, session.ID)
	if len(got.Approvals) != 1 {
		t.Fatalf("approvals = %d, want 1", len(got.Approvals))
	}
	final := got.Approvals[0]
	if final.Status != models.ApprovalApproved {
		t.Errorf("status = %q, first decision must stand", final.Status)
	}
	if final.ApprovedByUserID != "user1" || final.RejectedByUserID != "" {
		t.Errorf("responder columns = %q/%q, want user1/empty", final.ApprovedByUserID, final.RejectedByUserID)
	}
}

func TestHandleApprovalResponse_NotFound(t *testing.T) {
	e, _, _ := testEngine(t)

	_, err := e.HandleApprovalResponse(context.Background(), "missing", "user1", true, "")
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}
