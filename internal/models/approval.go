package models

import "time"

// Approval statuses. Both responded states are terminal.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Approval is a human-in-the-loop checkpoint raised by an agent. Exactly
// one of ApprovedByUserID / RejectedByUserID is set, and only on the
// terminal transition.
type Approval struct {
	ID               string     `gorm:"primaryKey;size:36"`
	SessionID        string     `gorm:"size:36;not null;index"`
	AgentID          string     `gorm:"size:64;not null"`
	Title            string     `gorm:"not null"`
	Description      string     `gorm:"type:text;not null"`
	RequestData      string     `gorm:"type:json"`
	Status           string     `gorm:"size:16;default:pending;index"`
	ApprovedByUserID string     `gorm:"size:64"`
	RejectedByUserID string     `gorm:"size:64"`
	Feedback         string     `gorm:"type:text"`
	RespondedAt      *time.Time
	CreatedAt        time.Time

	Session Session `gorm:"foreignKey:SessionID"`
}
