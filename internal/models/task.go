package models

import "time"

// Task statuses.
const (
	TaskAssigned   = "assigned"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskFailed     = "failed"
	TaskCancelled  = "cancelled"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Task is a directed unit of delegated work between two agents. Tasks are
// never broadcast; ToAgent is always a specific participant.
type Task struct {
	ID           string     `gorm:"primaryKey;size:36"`
	SessionID    string     `gorm:"size:36;not null;index"`
	FromAgent    string     `gorm:"size:64;not null"`
	ToAgent      string     `gorm:"size:64;not null"`
	Title        string     `gorm:"not null"`
	Description  string     `gorm:"type:text;not null"`
	Priority     string     `gorm:"size:8;default:medium"`
	DueAt        *time.Time
	Requirements string     `gorm:"type:json"`
	Status       string     `gorm:"size:16;default:assigned;index"`
	Result       string     `gorm:"type:json"`
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Session Session `gorm:"foreignKey:SessionID"`
}

// ValidTaskStatus reports whether s is one of the enumerated statuses.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskAssigned, TaskInProgress, TaskCompleted, TaskFailed, TaskCancelled:
		return true
	}
	return false
}

// TerminalTaskStatus reports whether s permits no further transitions.
func TerminalTaskStatus(s string) bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// LegalTaskTransition reports whether a task may move from one status to
// another. The lifecycle is assigned → in_progress → completed or
// failed; cancellation is reachable from any non-terminal status.
// Backward edges and self-transitions are not.
func LegalTaskTransition(from, to string) bool {
	if to == TaskCancelled {
		return !TerminalTaskStatus(from)
	}
	switch from {
	case TaskAssigned:
		return to == TaskInProgress
	case TaskInProgress:
		return to == TaskCompleted || to == TaskFailed
	}
	return false
}

// ValidPriority reports whether p is one of the enumerated priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
