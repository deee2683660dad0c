package models

import "time"

// Audit event types written by the collaboration engine.
const (
	EventSessionCreated    = "session_created"
	EventSessionClosed     = "session_closed"
	EventMessageSent       = "message_sent"
	EventTaskAssigned      = "task_assigned"
	EventTaskUpdated       = "task_updated"
	EventApprovalRequested = "approval_requested"
	EventApprovalResponded = "approval_responded"
)

// Event is an append-only audit log entry for a session. Events are never
// mutated or deleted independently of their session.
type Event struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	SessionID   string    `gorm:"size:36;not null;index"`
	Type        string    `gorm:"size:32;not null;index"`
	Description string    `gorm:"type:text"`
	Metadata    string    `gorm:"type:json"`
	CreatedAt   time.Time

	Session Session `gorm:"foreignKey:SessionID"`
}
