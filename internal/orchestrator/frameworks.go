package orchestrator

// Framework identifies one of the fixed agent templates the planner can
// stamp agents from. The catalogue is closed; unknown tags are rejected
// with UnsupportedFrameworkError.
type Framework string

const (
	FrameworkOrchestrator    Framework = "orchestrator"
	FrameworkAutomation      Framework = "automation"
	FrameworkSecurity        Framework = "security"
	FrameworkDataProcessing  Framework = "data-processing"
	FrameworkWorkflowBuilder Framework = "workflow-builder"
)

// Agent roles within an orchestration.
const (
	RoleCoordinator = "coordinator"
	RoleExecutor    = "executor"
	RoleMonitor     = "monitor"
	RoleValidator   = "validator"
)

// UnsupportedFrameworkError reports a framework tag outside the catalogue.
type UnsupportedFrameworkError struct {
	Framework string
}

func (e *UnsupportedFrameworkError) Error() string {
	return "orchestrator: unsupported framework: " + e.Framework
}

// Template is the fixed configuration a framework stamps onto new agents.
// Caller-supplied capabilities are unioned with RequiredCapabilities;
// caller integrations override DefaultIntegrations key by key.
type Template struct {
	Name                 string
	Role                 string
	Description          string
	RequiredCapabilities []string
	DefaultIntegrations  map[string]string
}

// Catalogue returns the frameworks in their fixed instantiation order.
// The orchestrator framework comes first so its agent becomes the
// session supervisor.
func Catalogue() []Framework {
	return []Framework{
		FrameworkOrchestrator,
		FrameworkAutomation,
		FrameworkSecurity,
		FrameworkDataProcessing,
		FrameworkWorkflowBuilder,
	}
}

// TemplateFor resolves a framework to its template.
func TemplateFor(fw Framework) (Template, error) {
	return templateFor(fw)
}

// templateFor resolves a framework to its template. The switch is
// exhaustive over the catalogue; extending the catalogue without a
// template here is a compile-visible omission.
func templateFor(fw Framework) (Template, error) {
	switch fw {
	case FrameworkOrchestrator:
		return Template{
			Name:                 "Mission Orchestrator",
			Role:                 RoleCoordinator,
			Description:          "Coordinates phases and delegates work across the catalogue",
			RequiredCapabilities: []string{"plan_phases", "delegate_tasks", "track_progress"},
			DefaultIntegrations:  map[string]string{"channel": "internal"},
		}, nil
	case FrameworkAutomation:
		return Template{
			Name:                 "Automation Runner",
			Role:                 RoleExecutor,
			Description:          "Provisions and executes external workflow triggers",
			RequiredCapabilities: []string{"invoke_triggers", "manage_connections"},
			DefaultIntegrations:  map[string]string{"trigger_endpoint": "placeholder"},
		}, nil
	case FrameworkSecurity:
		return Template{
			Name:                 "Security Sentinel",
			Role:                 RoleMonitor,
			Description:          "Reviews configurations and raises threat findings",
			RequiredCapabilities: []string{"threat_detection", "policy_audit"},
			DefaultIntegrations:  map[string]string{"alert_channel": "placeholder"},
		}, nil
	case FrameworkDataProcessing:
		return Template{
			Name:                 "Data Wrangler",
			Role:                 RoleExecutor,
			Description:          "Ingests and transforms datasets for downstream phases",
			RequiredCapabilities: []string{"ingest_sources", "transform_records"},
			DefaultIntegrations:  map[string]string{"warehouse": "placeholder"},
		}, nil
	case FrameworkWorkflowBuilder:
		return Template{
			Name:                 "Workflow Composer",
			Role:                 RoleValidator,
			Description:          "Assembles validated workflows from phase outputs",
			RequiredCapabilities: []string{"compose_workflows", "validate_output"},
			DefaultIntegrations:  map[string]string{"builder_mode": "draft"},
		}, nil
	}
	return Template{}, &UnsupportedFrameworkError{Framework: string(fw)}
}

// mergeIntegrations layers caller values over template defaults; caller
// values win on conflicting keys.
func mergeIntegrations(defaults, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// unionCapabilities appends caller capabilities not already required by
// the template, preserving template order first.
func unionCapabilities(required, extra []string) []string {
	seen := make(map[string]bool, len(required))
	union := make([]string, 0, len(required)+len(extra))
	for _, c := range required {
		if !seen[c] {
			seen[c] = true
			union = append(union, c)
		}
	}
	for _, c := range extra {
		if !seen[c] {
			seen[c] = true
			union = append(union, c)
		}
	}
	return union
}
