// Package orchestrator assembles a fixed catalogue of specialized agents
// into one collaboration session and drives a pre-defined multi-phase
// plan through the collaboration engine. It sequences delegation only;
// agent intelligence and task completion live elsewhere.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/conclave-hq/conclave/internal/collab"
	"github.com/conclave-hq/conclave/internal/models"
	"github.com/conclave-hq/conclave/internal/registry"
)

// marshalJSON marshals a value to a JSON string, returning empty string for nil.
func marshalJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ConfigKeyCurrentPhase is the session config key tracking the most
// recently issued phase.
const ConfigKeyCurrentPhase = "current_phase"

// Planner drives orchestrations against one engine and one registry.
type Planner struct {
	engine   *collab.Engine
	registry *registry.Registry
}

// PlannerOpts holds parameters for creating a Planner.
type PlannerOpts struct {
	Engine   *collab.Engine
	Registry *registry.Registry
}

// NewPlanner creates a Planner.
func NewPlanner(opts PlannerOpts) *Planner {
	return &Planner{engine: opts.Engine, registry: opts.Registry}
}

// AgentConfig holds caller overrides for a specialized agent.
type AgentConfig struct {
	Framework    string
	Name         string            // defaults to the template name
	Capabilities []string          // unioned with the template's required set
	Integrations map[string]string // caller values win over template defaults
}

// CreateSpecializedAgent stamps one agent from its framework template and
// registers it. The agent is marked ready only after capability
// assignment completes; callers must not use it before then.
func (p *Planner) CreateSpecializedAgent(ctx context.Context, ownerUserID string, cfg AgentConfig) (*models.Agent, error) {
	tmpl, err := templateFor(Framework(cfg.Framework))
	if err != nil {
		return nil, err
	}

	name := cfg.Name
	if name == "" {
		name = tmpl.Name
	}
	capabilities, err := marshalJSON(unionCapabilities(tmpl.RequiredCapabilities, cfg.Capabilities))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: marshal capabilities: %w", err)
	}
	integrations, err := marshalJSON(mergeIntegrations(tmpl.DefaultIntegrations, cfg.Integrations))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: marshal integrations: %w", err)
	}

	agent, err := p.registry.Create(ctx, registry.CreateOpts{
		OwnerUserID:  ownerUserID,
		Name:         name,
		Framework:    cfg.Framework,
		Role:         tmpl.Role,
		Capabilities: capabilities,
		Integrations: integrations,
	})
	if err != nil {
		return nil, err
	}

	// Capability assignment and framework setup have completed once the
	// record holds the merged template; only now is the agent usable.
	if err := p.registry.MarkReady(ctx, agent.ID); err != nil {
		return nil, err
	}
	agent.Status = models.AgentReady
	return agent, nil
}

// BatchResult is the outcome of bulk agent creation. Creation is
// best-effort: per-framework failures accumulate in Errors and never roll
// back agents already created.
type BatchResult struct {
	Created []models.Agent
	Errors  []error
}

// CreateCatalogueAgents instantiates one agent per framework in catalogue
// order.
func (p *Planner) CreateCatalogueAgents(ctx context.Context, ownerUserID string) *BatchResult {
	result := &BatchResult{}
	for _, fw := range Catalogue() {
		agent, err := p.CreateSpecializedAgent(ctx, ownerUserID, AgentConfig{Framework: string(fw)})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("orchestrator: create %s agent: %w", fw, err))
			continue
		}
		result.Created = append(result.Created, *agent)
	}
	return result
}

// Phase is one named step of a plan: a coordinator, its participant set,
// and the tasks issued to the coordinator.
type Phase struct {
	Name         string
	Coordinator  string // agent ID
	Participants []string
	TaskNames    []string
}

// Plan is an ordered sequence of phases plus fallback policy metadata.
// Fallback strategies are descriptive only: the planner never enforces
// timeouts, and reacting to stalled phases is a caller responsibility.
type Plan struct {
	Phases    []Phase
	Fallbacks map[string]string
}

// Orchestration is the result of materializing and issuing a plan.
type Orchestration struct {
	SessionID string
	Agents    []models.Agent
	Plan      Plan
}

// CreateOrchestration creates one agent per catalogue framework, opens a
// session containing all of them, and issues the fixed plan phase by
// phase. Phase N+1 work is not issued until all of phase N's calls have
// returned; the planner does not wait for task completion.
func (p *Planner) CreateOrchestration(ctx context.Context, ownerUserID string) (*Orchestration, error) {
	batch := p.CreateCatalogueAgents(ctx, ownerUserID)
	if len(batch.Errors) > 0 {
		// Already-created agents are deliberately left behind.
		return nil, fmt.Errorf("orchestrator: catalogue instantiation failed (%d created, %d errors): %w",
			len(batch.Created), len(batch.Errors), batch.Errors[0])
	}

	agentIDs := make([]string, len(batch.Created))
	byFramework := make(map[Framework]string, len(batch.Created))
	for i, a := range batch.Created {
		agentIDs[i] = a.ID
		byFramework[Framework(a.Framework)] = a.ID
	}

	session, err := p.engine.CreateSession(ctx, collab.CreateSessionOpts{
		Name:        "Orchestration",
		Description: "Catalogue orchestration across all frameworks",
		OwnerUserID: ownerUserID,
		AgentIDs:    agentIDs,
		Config:      map[string]any{"orchestration": true},
	})
	if err != nil {
		return nil, err
	}

	plan := buildPlan(byFramework, agentIDs)
	if err := p.executePlan(ctx, session.ID, plan); err != nil {
		return nil, err
	}

	return &Orchestration{
		SessionID: session.ID,
		Agents:    batch.Created,
		Plan:      plan,
	}, nil
}

// buildPlan constructs the fixed phase sequence over the created agents.
func buildPlan(byFramework map[Framework]string, allAgents []string) Plan {
	return Plan{
		Phases: []Phase{
			{
				Name:         "planning",
				Coordinator:  byFramework[FrameworkOrchestrator],
				Participants: allAgents,
				TaskNames:    []string{"Define objectives", "Decompose workstreams"},
			},
			{
				Name:         "automation-setup",
				Coordinator:  byFramework[FrameworkAutomation],
				Participants: allAgents,
				TaskNames:    []string{"Provision integrations", "Configure triggers"},
			},
			{
				Name:         "security-review",
				Coordinator:  byFramework[FrameworkSecurity],
				Participants: allAgents,
				TaskNames:    []string{"Scan configurations", "Compile risk report"},
			},
			{
				Name:         "data-pipeline",
				Coordinator:  byFramework[FrameworkDataProcessing],
				Participants: allAgents,
				TaskNames:    []string{"Ingest sources", "Transform datasets"},
			},
			{
				Name:         "workflow-assembly",
				Coordinator:  byFramework[FrameworkWorkflowBuilder],
				Participants: allAgents,
				TaskNames:    []string{"Compose workflow", "Validate end-to-end"},
			},
		},
		Fallbacks: map[string]string{
			"timeout":         "escalate_to_operator",
			"failure":         "reassign_phase",
			"security_threat": "halt_and_notify",
		},
	}
}

// executePlan issues every phase strictly in declared order: one
// self-assigned task per task name to the coordinator, then one text
// coordination message from the coordinator to each other participant.
func (p *Planner) executePlan(ctx context.Context, sessionID string, plan Plan) error {
	for _, phase := range plan.Phases {
		if err := p.engine.SetSessionConfigValue(ctx, sessionID, ConfigKeyCurrentPhase, phase.Name); err != nil {
			return err
		}

		for _, taskName := range phase.TaskNames {
			_, err := p.engine.AssignTask(ctx, collab.AssignTaskOpts{
				SessionID:   sessionID,
				FromAgent:   phase.Coordinator,
				ToAgent:     phase.Coordinator,
				Title:       taskName,
				Description: fmt.Sprintf("%s (phase: %s)", taskName, phase.Name),
				Priority:    models.PriorityHigh,
			})
			if err != nil {
				return fmt.Errorf("orchestrator: phase %s task %q: %w", phase.Name, taskName, err)
			}
		}

		for _, participant := range phase.Participants {
			if participant == phase.Coordinator {
				continue
			}
			_, err := p.engine.SendMessage(ctx, collab.SendMessageOpts{
				SessionID: sessionID,
				FromAgent: phase.Coordinator,
				ToAgent:   participant,
				Content:   fmt.Sprintf("Phase %s underway; report findings to the coordinator", phase.Name),
				Type:      models.MessageText,
				Metadata:  map[string]any{"phase": phase.Name},
			})
			if err != nil {
				return fmt.Errorf("orchestrator: phase %s coordination message: %w", phase.Name, err)
			}
		}
	}
	return nil
}
