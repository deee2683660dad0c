package models

import "time"

// Session statuses.
const (
	SessionActive = "active"
	SessionClosed = "closed"
)

// Participant roles.
const (
	RoleSupervisor = "supervisor"
	RoleWorker     = "worker"
)

// Session is a bounded collaboration context for a fixed set of agents.
// Once closed, a session is never reopened.
type Session struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Name        string    `gorm:"not null"`
	Description string    `gorm:"type:text"`
	OwnerUserID string    `gorm:"size:64;not null;index"`
	Status      string    `gorm:"size:16;default:active;index"`
	Config      string    `gorm:"type:json"`
	CreatedAt   time.Time

	Participants []Participant `gorm:"foreignKey:SessionID"`
	Messages     []Message     `gorm:"foreignKey:SessionID"`
	Tasks        []Task        `gorm:"foreignKey:SessionID"`
	Approvals    []Approval    `gorm:"foreignKey:SessionID"`
	Events       []Event       `gorm:"foreignKey:SessionID"`
}

// Participant records one agent's membership in a session. An agent
// appears at most once per session.
type Participant struct {
	SessionID string    `gorm:"primaryKey;size:36"`
	AgentID   string    `gorm:"primaryKey;size:64"`
	Role      string    `gorm:"size:16;not null"`
	JoinedAt  time.Time

	Session Session `gorm:"foreignKey:SessionID"`
}
