package models

import "time"

// Agent statuses. An agent is usable only once it reaches ready.
const (
	AgentProvisioning = "provisioning"
	AgentReady        = "ready"
)

// Agent is a registry record for a configured agent. Framework names the
// template the agent was stamped from; Capabilities and Integrations are
// JSON-encoded merge results of template defaults and caller overrides.
type Agent struct {
	ID           string    `gorm:"primaryKey;size:36"`
	OwnerUserID  string    `gorm:"size:64;not null;index"`
	Name         string    `gorm:"not null"`
	Framework    string    `gorm:"size:32;not null;index"`
	Role         string    `gorm:"size:16"`
	Status       string    `gorm:"size:16;default:provisioning"`
	Capabilities string    `gorm:"type:json"`
	Integrations string    `gorm:"type:json"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
