package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conclave-hq/conclave/internal/bus"
	"github.com/conclave-hq/conclave/internal/models"
)

// CreateSessionOpts holds parameters for creating a session.
type CreateSessionOpts struct {
	Name        string
	Description string
	OwnerUserID string
	AgentIDs    []string       // first agent becomes supervisor
	Config      map[string]any // opaque session configuration
}

// CreateSession persists a new session with one participant per agent.
// The first listed agent gets the supervisor role, the rest are workers;
// duplicate agent IDs are collapsed to the first occurrence.
func (e *Engine) CreateSession(ctx context.Context, opts CreateSessionOpts) (*models.Session, error) {
	if opts.Name == "" {
		return nil, validationf("session name is required")
	}
	if opts.OwnerUserID == "" {
		return nil, validationf("owner user ID is required")
	}
	if len(opts.AgentIDs) == 0 {
		return nil, validationf("at least one agent is required")
	}

	cfg, err := marshalJSON(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("collab: marshal session config: %w", err)
	}

	now := time.Now()
	session := models.Session{
		ID:          uuid.NewString(),
		Name:        opts.Name,
		Description: opts.Description,
		OwnerUserID: opts.OwnerUserID,
		Status:      models.SessionActive,
		Config:      cfg,
		CreatedAt:   now,
	}

	seen := make(map[string]bool, len(opts.AgentIDs))
	for i, agentID := range opts.AgentIDs {
		if agentID == "" {
			return nil, validationf("agent ID at position %d is empty", i)
		}
		if seen[agentID] {
			continue
		}
		seen[agentID] = true

		role := models.RoleWorker
		if len(session.Participants) == 0 {
			role = models.RoleSupervisor
		}
		session.Participants = append(session.Participants, models.Participant{
			SessionID: session.ID,
			AgentID:   agentID,
			Role:      role,
			JoinedAt:  now,
		})
	}

	if err := e.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("collab: create session: %w", err)
	}

	e.writeEvent(ctx, session.ID, models.EventSessionCreated,
		fmt.Sprintf("session %q created with %d participants", session.Name, len(session.Participants)),
		map[string]any{"owner": opts.OwnerUserID})
	e.broadcast(bus.SessionRoom(session.ID), models.EventSessionCreated, &session)
	e.forward(sinkEvent(models.EventSessionCreated, session.ID, opts.OwnerUserID, map[string]any{
		"name":         session.Name,
		"participants": len(session.Participants),
	}))

	return &session, nil
}

// GetSession loads a session with participants, ordered messages, tasks,
// approvals, and events.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	err := e.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC, agent_id ASC")
		}).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Approvals", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "session", ID: sessionID}
	}
	if err != nil {
		return nil, fmt.Errorf("collab: get session %s: %w", sessionID, err)
	}
	return &session, nil
}

// CloseSession transitions a session from active to closed. Closed
// sessions are never reopened.
func (e *Engine) CloseSession(ctx context.Context, sessionID string) (*models.Session, error) {
	unlock := e.lockSession(sessionID)
	defer unlock()

	session, err := e.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionActive {
		return nil, conflictf("session %s is already %s", sessionID, session.Status)
	}

	session.Status = models.SessionClosed
	if err := e.db.WithContext(ctx).Model(session).Update("status", models.SessionClosed).Error; err != nil {
		return nil, fmt.Errorf("collab: close session %s: %w", sessionID, err)
	}

	e.writeEvent(ctx, sessionID, models.EventSessionClosed, "session closed", nil)
	e.broadcast(bus.SessionRoom(sessionID), models.EventSessionClosed, session)
	e.forward(sinkEvent(models.EventSessionClosed, sessionID, session.OwnerUserID, nil))

	return session, nil
}

// SetSessionConfigValue merges a single key into a session's config map.
// Used by the planner to record the current orchestration phase.
func (e *Engine) SetSessionConfigValue(ctx context.Context, sessionID, key string, value any) error {
	unlock := e.lockSession(sessionID)
	defer unlock()

	session, err := e.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}

	cfg := map[string]any{}
	if session.Config != "" {
		if err := json.Unmarshal([]byte(session.Config), &cfg); err != nil {
			return fmt.Errorf("collab: parse config for session %s: %w", sessionID, err)
		}
	}
	cfg[key] = value

	raw, err := marshalJSON(cfg)
	if err != nil {
		return fmt.Errorf("collab: marshal config for session %s: %w", sessionID, err)
	}
	if err := e.db.WithContext(ctx).Model(session).Update("config", raw).Error; err != nil {
		return fmt.Errorf("collab: update config for session %s: %w", sessionID, err)
	}
	return nil
}

// loadSession fetches the bare session row, mapping missing rows to
// NotFoundError.
func (e *Engine) loadSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	err := e.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "session", ID: sessionID}
	}
	if err != nil {
		return nil, fmt.Errorf("collab: load session %s: %w", sessionID, err)
	}
	return &session, nil
}

// isParticipant reports whether the agent belongs to the session.
func (e *Engine) isParticipant(ctx context.Context, sessionID, agentID string) (bool, error) {
	var count int64
	err := e.db.WithContext(ctx).Model(&models.Participant{}).
		Where("session_id = ? AND agent_id = ?", sessionID, agentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("collab: check participant %s in %s: %w", agentID, sessionID, err)
	}
	return count > 0, nil
}
