package models

import "time"

// Message types.
const (
	MessageText            = "text"
	MessageTask            = "task"
	MessageResult          = "result"
	MessageQuestion        = "question"
	MessageApprovalRequest = "approval_request"
)

// SystemAgent is the synthetic sender for engine-originated messages,
// such as approval decision announcements.
const SystemAgent = "system"

// Message is an append-only record of agent-to-agent communication.
// An empty ToAgent means the message is a broadcast to all participants.
type Message struct {
	ID        string `gorm:"primaryKey;size:36"`
	SessionID string `gorm:"size:36;not null;index;index:idx_messages_session_seq,priority:1"`
	FromAgent string `gorm:"size:64;not null"`
	ToAgent   string `gorm:"size:64"`
	Content   string `gorm:"type:text;not null"`
	Type      string `gorm:"size:24;not null"`
	Metadata  string `gorm:"type:json"`
	// Seq orders the ledger within a session. Timestamps are too coarse:
	// MySQL stores DATETIME(3), so back-to-back writes can tie on
	// CreatedAt while Seq stays strictly increasing.
	Seq       int64     `gorm:"not null;index:idx_messages_session_seq,priority:2"`
	CreatedAt time.Time `gorm:"index"`

	Session Session `gorm:"foreignKey:SessionID"`
}

// Broadcast reports whether the message targets all session participants.
func (m *Message) Broadcast() bool {
	return m.ToAgent == ""
}

// ValidMessageType reports whether t is one of the enumerated message types.
func ValidMessageType(t string) bool {
	switch t {
	case MessageText, MessageTask, MessageResult, MessageQuestion, MessageApprovalRequest:
		return true
	}
	return false
}
