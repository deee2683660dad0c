package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conclave-hq/conclave/internal/collab"
	"github.com/conclave-hq/conclave/internal/orchestrator"
	"github.com/conclave-hq/conclave/internal/registry"
)

func newOrchestrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orchestrate",
		Short: "Multi-phase orchestration commands",
	}

	cmd.AddCommand(newOrchestrateRunCmd())
	cmd.AddCommand(newOrchestrateStatusCmd())
	return cmd
}

func newOrchestrateRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Create agents for every framework and issue the full plan",
		Long:  "Creates one agent per catalogue framework, opens a session with all of them, and issues every phase of the fixed plan in order.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrchestrateRun(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conclave.yaml", "path to Conclave config file")
	return cmd
}

func runOrchestrateRun(cmd *cobra.Command, configPath string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	outSink, err := sinkFromConfig(cfg)
	if err != nil {
		return err
	}

	planner := orchestrator.NewPlanner(orchestrator.PlannerOpts{
		Engine:   collab.NewEngine(collab.EngineOpts{DB: gormDB, Sink: outSink}),
		Registry: registry.New(gormDB),
	})

	orch, err := planner.CreateOrchestration(cmd.Context(), cfg.Owner)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Orchestration session %s\n", orch.SessionID)
	fmt.Fprintf(out, "\nAgents (%d):\n", len(orch.Agents))
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tFRAMEWORK\tROLE")
	for _, a := range orch.Agents {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", a.ID, a.Name, a.Framework, a.Role)
	}
	w.Flush()

	fmt.Fprintf(out, "\nPlan (%d phases):\n", len(orch.Plan.Phases))
	for i, phase := range orch.Plan.Phases {
		fmt.Fprintf(out, "  %d. %s (%d tasks)\n", i+1, phase.Name, len(phase.TaskNames))
	}
	return nil
}

func newOrchestrateStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show an orchestration's progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrchestrateStatus(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conclave.yaml", "path to Conclave config file")
	return cmd
}

func runOrchestrateStatus(cmd *cobra.Command, configPath, sessionID string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	planner := orchestrator.NewPlanner(orchestrator.PlannerOpts{
		Engine:   collab.NewEngine(collab.EngineOpts{DB: gormDB}),
		Registry: registry.New(gormDB),
	})

	status, err := planner.GetOrchestrationStatus(cmd.Context(), sessionID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session:  %s (%s)\n", status.SessionID, status.SessionStatus)
	if status.CurrentPhase != "" {
		fmt.Fprintf(out, "Phase:    %s\n", status.CurrentPhase)
	}
	fmt.Fprintf(out, "Tasks:    %d/%d completed\n", status.TasksCompleted, status.TasksTotal)

	fmt.Fprintf(out, "\nAgents (%d):\n", len(status.Agents))
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tFRAMEWORK\tROLE\tSTATUS")
	for _, a := range status.Agents {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", a.AgentID, a.Name, a.Framework, a.Role, a.Status)
	}
	return w.Flush()
}
