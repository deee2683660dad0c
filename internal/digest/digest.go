// Package digest builds periodic reminder reports for approvals that have
// been sitting unanswered and pushes them to the configured notification
// sinks. It never mutates collaboration state; stale approvals stay
// pending until a human responds.
package digest

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/conclave-hq/conclave/internal/models"
)

// EventApprovalDigest is the sink event name for pending-approval reminders.
const EventApprovalDigest = "approval_digest"

// PendingApproval is one stale approval entry in a digest report.
type PendingApproval struct {
	ApprovalID  string        `json:"approval_id"`
	SessionID   string        `json:"session_id"`
	SessionName string        `json:"session_name"`
	OwnerUserID string        `json:"owner_user_id"`
	AgentID     string        `json:"agent_id"`
	Title       string        `json:"title"`
	Age         time.Duration `json:"age"`
}

// Report holds the pending approvals older than the configured threshold,
// grouped per session owner so each owner only sees their own backlog.
type Report struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Approvals   []PendingApproval `json:"approvals"`
}

// ByOwner splits the report's entries by session owner.
func (r *Report) ByOwner() map[string][]PendingApproval {
	byOwner := make(map[string][]PendingApproval)
	for _, a := range r.Approvals {
		byOwner[a.OwnerUserID] = append(byOwner[a.OwnerUserID], a)
	}
	return byOwner
}

// BuildPendingApprovalReport queries for approvals that have been pending
// longer than olderThan. Returns nil when there is nothing to report.
func BuildPendingApprovalReport(db *gorm.DB, olderThan time.Duration) (*Report, error) {
	now := time.Now()
	cutoff := now.Add(-olderThan)

	var approvals []models.Approval
	if err := db.
		Where("status = ? AND created_at < ?", models.ApprovalPending, cutoff).
		Order("created_at ASC").
		Preload("Session").
		Find(&approvals).Error; err != nil {
		return nil, fmt.Errorf("digest: pending approvals: %w", err)
	}

	// Suppress when nothing is stale.
	if len(approvals) == 0 {
		return nil, nil
	}

	report := &Report{GeneratedAt: now}
	for _, a := range approvals {
		report.Approvals = append(report.Approvals, PendingApproval{
			ApprovalID:  a.ID,
			SessionID:   a.SessionID,
			SessionName: a.Session.Name,
			OwnerUserID: a.Session.OwnerUserID,
			AgentID:     a.AgentID,
			Title:       a.Title,
			Age:         now.Sub(a.CreatedAt),
		})
	}
	return report, nil
}

// FormatReport renders a plain-text summary of one owner's stale approvals.
func FormatReport(entries []PendingApproval) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d approval(s) awaiting your response:\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s (session %q, requested by %s, waiting %s)\n",
			e.Title, e.SessionName, e.AgentID, formatAge(e.Age))
	}
	return b.String()
}

// formatAge rounds an age to the largest sensible unit for display.
func formatAge(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
}
