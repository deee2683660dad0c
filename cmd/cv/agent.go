package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conclave-hq/conclave/internal/collab"
	"github.com/conclave-hq/conclave/internal/orchestrator"
	"github.com/conclave-hq/conclave/internal/registry"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Agent registry commands",
	}

	cmd.AddCommand(newAgentCreateCmd())
	cmd.AddCommand(newAgentListCmd())
	cmd.AddCommand(newAgentFrameworksCmd())
	return cmd
}

func newAgentCreateCmd() *cobra.Command {
	var (
		configPath   string
		framework    string
		name         string
		capabilities []string
		integrations []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a specialized agent from a framework template",
		Long:  "Stamps an agent from its framework template. Extra capabilities are unioned with the template's required set; integration overrides win over template defaults.",
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseKeyValues(integrations)
			if err != nil {
				return err
			}
			return runAgentCreate(cmd, configPath, orchestrator.AgentConfig{
				Framework:    framework,
				Name:         name,
				Capabilities: capabilities,
				Integrations: overrides,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conclave.yaml", "path to Conclave config file")
	cmd.Flags().StringVar(&framework, "framework", "", "framework (orchestrator, automation, security, data-processing, workflow-builder)")
	cmd.Flags().StringVar(&name, "name", "", "agent name (defaults to the template name)")
	cmd.Flags().StringSliceVar(&capabilities, "capability", nil, "extra capability (repeatable)")
	cmd.Flags().StringSliceVar(&integrations, "integration", nil, "integration override as key=value (repeatable)")
	cmd.MarkFlagRequired("framework")
	return cmd
}

func runAgentCreate(cmd *cobra.Command, configPath string, cfg orchestrator.AgentConfig) error {
	appCfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	planner := orchestrator.NewPlanner(orchestrator.PlannerOpts{
		Engine:   collab.NewEngine(collab.EngineOpts{DB: gormDB}),
		Registry: registry.New(gormDB),
	})
	agent, err := planner.CreateSpecializedAgent(cmd.Context(), appCfg.Owner, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created agent %s (%s, %s)\n", agent.ID, agent.Framework, agent.Role)
	fmt.Fprintf(out, "Status: %s\n", agent.Status)
	return nil
}

func newAgentListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your registered agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgentList(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conclave.yaml", "path to Conclave config file")
	return cmd
}

func runAgentList(cmd *cobra.Command, configPath string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	agents, err := registry.New(gormDB).ListByOwner(cmd.Context(), cfg.Owner)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(agents) == 0 {
		fmt.Fprintln(out, "No agents registered.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFRAMEWORK\tROLE\tSTATUS")
	for _, a := range agents {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Framework, a.Role, a.Status)
	}
	return w.Flush()
}

func newAgentFrameworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "frameworks",
		Short: "List the supported framework templates",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FRAMEWORK\tTEMPLATE\tROLE\tCAPABILITIES")
			for _, fw := range orchestrator.Catalogue() {
				tpl, err := orchestrator.TemplateFor(fw)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", fw, tpl.Name, tpl.Role, strings.Join(tpl.RequiredCapabilities, ", "))
			}
			w.Flush()
		},
	}
}

// parseKeyValues parses repeated key=value flags into a map.
func parseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid key=value pair %q", p)
		}
		out[key] = value
	}
	return out, nil
}
