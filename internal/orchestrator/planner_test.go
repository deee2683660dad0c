package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/conclave-hq/conclave/internal/collab"
	"github.com/conclave-hq/conclave/internal/db"
	"github.com/conclave-hq/conclave/internal/models"
	"github.com/conclave-hq/conclave/internal/registry"
)

func testPlanner(t *testing.T) (*Planner, *collab.Engine) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conclave.db")
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	engine := collab.NewEngine(collab.EngineOpts{DB: gdb, SyncEffects: true})
	planner := NewPlanner(PlannerOpts{Engine: engine, Registry: registry.New(gdb)})
	return planner, engine
}

func TestCreateSpecializedAgent(t *testing.T) {
	p, _ := testPlanner(t)
	ctx := context.Background()

	agent, err := p.CreateSpecializedAgent(ctx, "user1", AgentConfig{
		Framework:    string(FrameworkSecurity),
		Capabilities: []string{"custom_scan"},
		Integrations: map[string]string{"alert_channel": "#sec-alerts"},
	})
	if err != nil {
		t.Fatalf("CreateSpecializedAgent: %v", err)
	}

	if agent.Status != models.AgentReady {
		t.Errorf("status = %q, agent must be ready after setup", agent.Status)
	}
	if agent.Role != RoleMonitor {
		t.Errorf("role = %q, want monitor", agent.Role)
	}

	var caps []string
	if err := json.Unmarshal([]byte(agent.Capabilities), &caps); err != nil {
		t.Fatalf("parse capabilities: %v", err)
	}
	hasRequired, hasCustom := false, false
	for _, c := range caps {
		if c == "threat_detection" {
			hasRequired = true
		}
		if c == "custom_scan" {
			hasCustom = true
		}
	}
	if !hasRequired || !hasCustom {
		t.Errorf("capabilities = %v, want union of template and caller", caps)
	}

	var integrations map[string]string
	if err := json.Unmarshal([]byte(agent.Integrations), &integrations); err != nil {
		t.Fatalf("parse integrations: %v", err)
	}
	if integrations["alert_channel"] != "#sec-alerts" {
		t.Errorf("alert_channel = %q, caller override must win", integrations["alert_channel"])
	}
}

func TestCreateSpecializedAgent_UnsupportedFramework(t *testing.T) {
	p, _ := testPlanner(t)

	_, err := p.CreateSpecializedAgent(context.Background(), "user1", AgentConfig{Framework: "quantum"})
	var ufe *UnsupportedFrameworkError
	if !errors.As(err, &ufe) {
		t.Fatalf("err = %v, want UnsupportedFrameworkError", err)
	}
}

func TestCreateCatalogueAgents(t *testing.T) {
	p, _ := testPlanner(t)

	result := p.CreateCatalogueAgents(context.Background(), "user1")
	if len(result.Errors) != 0 {
		t.Fatalf("errors = %v", result.Errors)
	}
	if len(result.Created) != len(Catalogue()) {
		t.Fatalf("created = %d, want %d", len(result.Created), len(Catalogue()))
	}
	if Framework(result.Created[0].Framework) != FrameworkOrchestrator {
		t.Errorf("first agent framework = %q, want orchestrator", result.Created[0].Framework)
	}
}

func TestCreateOrchestration(t *testing.T) {
	p, engine := testPlanner(t)
	ctx := context.Background()

	orch, err := p.CreateOrchestration(ctx, "user1")
	if err != nil {
		t.Fatalf("CreateOrchestration: %v", err)
	}

	if len(orch.Agents) != 5 {
		t.Fatalf("agents = %d, want 5", len(orch.Agents))
	}
	if len(orch.Plan.Phases) != 5 {
		t.Fatalf("phases = %d, want 5", len(orch.Plan.Phases))
	}
	for _, key := range []string{"timeout", "failure", "security_threat"} {
		if orch.Plan.Fallbacks[key] == "" {
			t.Errorf("fallback %q missing", key)
		}
	}

	session, err := engine.GetSession(ctx, orch.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}

	// The orchestrator agent is listed first and supervises the session.
	roles := map[string]string{}
	for _, part := range session.Participants {
		roles[part.AgentID] = part.Role
	}
	coordinator := orch.Plan.Phases[0].Coordinator
	if roles[coordinator] != models.RoleSupervisor {
		t.Errorf("coordinator role = %q, want supervisor", roles[coordinator])
	}

	// Every phase issued one self-assigned task per task name.
	wantTasks := 0
	for _, phase := range orch.Plan.Phases {
		wantTasks += len(phase.TaskNames)
	}
	if len(session.Tasks) != wantTasks {
		t.Fatalf("tasks = %d, want %d", len(session.Tasks), wantTasks)
	}
	for _, task := range session.Tasks {
		if task.FromAgent != task.ToAgent {
			t.Errorf("task %q not self-assigned: %s -> %s", task.Title, task.FromAgent, task.ToAgent)
		}
		if task.Status != models.TaskAssigned {
			t.Errorf("task %q status = %q, want assigned", task.Title, task.Status)
		}
	}
}

// Phase N+1 tasks never appear in the ledger before all phase-N tasks.
func TestCreateOrchestration_PhaseOrdering(t *testing.T) {
	p, engine := testPlanner(t)
	ctx := context.Background()

	orch, err := p.CreateOrchestration(ctx, "user1")
	if err != nil {
		t.Fatalf("CreateOrchestration: %v", err)
	}

	phaseOf := map[string]int{}
	for i, phase := range orch.Plan.Phases {
		phaseOf[phase.Coordinator] = i
	}

	session, _ := engine.GetSession(ctx, orch.SessionID)
	lastPhase := 0
	for _, task := range session.Tasks {
		phase := phaseOf[task.ToAgent]
		if phase < lastPhase {
			t.Fatalf("task %q of phase %d issued after phase %d", task.Title, phase, lastPhase)
		}
		lastPhase = phase
	}

	// Each coordinator messaged every other participant during its phase.
	coordMsgs := map[string]int{}
	for _, msg := range session.Messages {
		if msg.Type == models.MessageText && msg.ToAgent != "" {
			coordMsgs[msg.FromAgent]++
		}
	}
	for _, phase := range orch.Plan.Phases {
		if coordMsgs[phase.Coordinator] < len(phase.Participants)-1 {
			t.Errorf("phase %s coordinator sent %d coordination messages, want %d",
				phase.Name, coordMsgs[phase.Coordinator], len(phase.Participants)-1)
		}
	}
}

func TestGetOrchestrationStatus(t *testing.T) {
	p, engine := testPlanner(t)
	ctx := context.Background()

	orch, err := p.CreateOrchestration(ctx, "user1")
	if err != nil {
		t.Fatalf("CreateOrchestration: %v", err)
	}

	status, err := p.GetOrchestrationStatus(ctx, orch.SessionID)
	if err != nil {
		t.Fatalf("GetOrchestrationStatus: %v", err)
	}

	if status.SessionStatus != models.SessionActive {
		t.Errorf("session status = %q, want active", status.SessionStatus)
	}
	if len(status.Agents) != 5 {
		t.Errorf("agents = %d, want 5", len(status.Agents))
	}
	if status.TasksTotal != 10 {
		t.Errorf("tasks total = %d, want 10", status.TasksTotal)
	}
	if status.TasksCompleted != 0 {
		t.Errorf("tasks completed = %d, want 0", status.TasksCompleted)
	}
	// The marker records the last issued phase.
	if status.CurrentPhase != "workflow-assembly" {
		t.Errorf("current phase = %q, want workflow-assembly", status.CurrentPhase)
	}

	// Completing a task moves the counter.
	session, _ := engine.GetSession(ctx, orch.SessionID)
	if _, err := engine.UpdateTaskStatus(ctx, session.Tasks[0].ID, models.TaskInProgress, nil); err != nil {
		t.Fatalf("to in_progress: %v", err)
	}
	if _, err := engine.UpdateTaskStatus(ctx, session.Tasks[0].ID, models.TaskCompleted, nil); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	status, _ = p.GetOrchestrationStatus(ctx, orch.SessionID)
	if status.TasksCompleted != 1 {
		t.Errorf("tasks completed = %d, want 1", status.TasksCompleted)
	}
}

func TestGetOrchestrationStatus_NotFound(t *testing.T) {
	p, _ := testPlanner(t)

	_, err := p.GetOrchestrationStatus(context.Background(), "missing")
	if !collab.IsNotFound(err) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}
