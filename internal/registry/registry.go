// Package registry manages agent records for the orchestration planner.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conclave-hq/conclave/internal/models"
)

// Registry persists and retrieves agent records.
type Registry struct {
	db *gorm.DB
}

// New creates a Registry backed by db.
func New(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// CreateOpts holds parameters for registering an agent.
type CreateOpts struct {
	OwnerUserID  string
	Name         string
	Framework    string
	Role         string
	Capabilities string // JSON array
	Integrations string // JSON map
}

// Create registers a new agent in the provisioning state. Callers must
// not treat the agent as usable until it has been marked ready.
func (r *Registry) Create(ctx context.Context, opts CreateOpts) (*models.Agent, error) {
	if opts.OwnerUserID == "" {
		return nil, fmt.Errorf("registry: owner user ID is required")
	}
	if opts.Name == "" {
		return nil, fmt.Errorf("registry: agent name is required")
	}

	now := time.Now()
	agent := models.Agent{
		ID:           uuid.NewString(),
		OwnerUserID:  opts.OwnerUserID,
		Name:         opts.Name,
		Framework:    opts.Framework,
		Role:         opts.Role,
		Status:       models.AgentProvisioning,
		Capabilities: opts.Capabilities,
		Integrations: opts.Integrations,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.db.WithContext(ctx).Create(&agent).Error; err != nil {
		return nil, fmt.Errorf("registry: create agent: %w", err)
	}
	return &agent, nil
}

// Get loads an agent by ID.
func (r *Registry) Get(ctx context.Context, agentID string) (*models.Agent, error) {
	var agent models.Agent
	err := r.db.WithContext(ctx).First(&agent, "id = ?", agentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("registry: agent not found: %s", agentID)
	}
	if err != nil {
		return nil, fmt.Errorf("registry: get agent %s: %w", agentID, err)
	}
	return &agent, nil
}

// ListByOwner returns all agents belonging to a user, oldest first.
func (r *Registry) ListByOwner(ctx context.Context, ownerUserID string) ([]models.Agent, error) {
	var agents []models.Agent
	err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at ASC").
		Find(&agents).Error
	if err != nil {
		return nil, fmt.Errorf("registry: list agents for %s: %w", ownerUserID, err)
	}
	return agents, nil
}

// MarkReady transitions an agent from provisioning to ready.
func (r *Registry) MarkReady(ctx context.Context, agentID string) error {
	result := r.db.WithContext(ctx).Model(&models.Agent{}).
		Where("id = ?", agentID).
		Updates(map[string]any{"status": models.AgentReady, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("registry: mark agent %s ready: %w", agentID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("registry: agent not found: %s", agentID)
	}
	return nil
}
