package orchestrator

import (
	"context"
	"encoding/json"
	"log"

	"github.com/conclave-hq/conclave/internal/models"
)

// AgentStatus is one agent's slice of a status snapshot.
type AgentStatus struct {
	AgentID   string `json:"agent_id"`
	Name      string `json:"name"`
	Framework string `json:"framework"`
	Role      string `json:"role"`
	Status    string `json:"status"`
}

// Status is a read-only projection over an orchestration's session.
type Status struct {
	SessionID      string        `json:"session_id"`
	SessionStatus  string        `json:"session_status"`
	CurrentPhase   string        `json:"current_phase,omitempty"`
	Agents         []AgentStatus `json:"agents"`
	TasksTotal     int           `json:"tasks_total"`
	TasksCompleted int           `json:"tasks_completed"`
}

// GetOrchestrationStatus builds a snapshot for the session: per-agent
// status and role, completed versus total task counts, and the current
// phase marker when present.
func (p *Planner) GetOrchestrationStatus(ctx context.Context, sessionID string) (*Status, error) {
	session, err := p.engine.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	status := &Status{
		SessionID:     session.ID,
		SessionStatus: session.Status,
		CurrentPhase:  currentPhase(session.Config),
		TasksTotal:    len(session.Tasks),
	}
	for _, task := range session.Tasks {
		if task.Status == models.TaskCompleted {
			status.TasksCompleted++
		}
	}

	for _, part := range session.Participants {
		as := AgentStatus{AgentID: part.AgentID}
		agent, err := p.registry.Get(ctx, part.AgentID)
		if err != nil {
			// Ad-hoc sessions may hold agents unknown to the registry;
			// fall back to the participant's session role.
			as.Role = part.Role
			as.Status = "unknown"
		} else {
			as.Name = agent.Name
			as.Framework = agent.Framework
			as.Role = agent.Role
			as.Status = agent.Status
		}
		status.Agents = append(status.Agents, as)
	}

	return status, nil
}

// currentPhase extracts the phase marker from a session config blob.
func currentPhase(config string) string {
	if config == "" {
		return ""
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(config), &cfg); err != nil {
		log.Printf("orchestrator: parse session config: %v", err)
		return ""
	}
	phase, _ := cfg[ConfigKeyCurrentPhase].(string)
	return phase
}
