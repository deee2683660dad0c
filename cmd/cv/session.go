package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conclave-hq/conclave/internal/collab"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Collaboration session commands",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionShowCmd())
	cmd.AddCommand(newSessionCloseCmd())
	return cmd
}

func newSessionCreateCmd() *cobra.Command {
	var (
		configPath  string
		name        string
		description string
		agents      []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a collaboration session",
		Long:  "Creates a session with the given agents as participants. The first agent becomes the supervisor.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionCreate(cmd, configPath, name, description, agents)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conclave.yaml", "path to Conclave config file")
	cmd.Flags().StringVar(&name, "name", "", "session name (required)")
	cmd.Flags().StringVar(&description, "description", "", "session description")
	cmd.Flags().StringSliceVar(&agents, "agent", nil, "participant agent ID (repeatable, first becomes supervisor)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("agent")
	return cmd
}

func runSessionCreate(cmd *cobra.Command, configPath, name, description string, agents []string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	engine := collab.NewEngine(collab.EngineOpts{DB: gormDB})
	session, err := engine.CreateSession(cmd.Context(), collab.CreateSessionOpts{
		Name:        name,
		Description: description,
		OwnerUserID: cfg.Owner,
		AgentIDs:    agents,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created session %s\n", session.ID)
	for _, p := range session.Participants {
		fmt.Fprintf(out, "  %s (%s)\n", p.AgentID, p.Role)
	}
	return nil
}

func newSessionShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session with its full ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conclave.yaml", "path to Conclave config file")
	return cmd
}

func runSessionShow(cmd *cobra.Command, configPath, sessionID string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	engine := collab.NewEngine(collab.EngineOpts{DB: gormDB})
	session, err := engine.GetSession(cmd.Context(), sessionID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session:     %s\n", session.ID)
	fmt.Fprintf(out, "Name:        %s\n", session.Name)
	fmt.Fprintf(out, "Owner:       %s\n", session.OwnerUserID)
	fmt.Fprintf(out, "Status:      %s\n", session.Status)
	fmt.Fprintf(out, "Created:     %s\n", session.CreatedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(out, "\nParticipants (%d):\n", len(session.Participants))
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  AGENT\tROLE\tJOINED")
	for _, p := range session.Participants {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", p.AgentID, p.Role, p.JoinedAt.Format("15:04:05"))
	}
	w.Flush()

	fmt.Fprintf(out, "\nMessages (%d):\n", len(session.Messages))
	for _, m := range session.Messages {
		to := m.ToAgent
		if m.Broadcast() {
			to = "*"
		}
		fmt.Fprintf(out, "  [%s] %s -> %s: %s\n", m.Type, m.FromAgent, to, truncate(m.Content, 80))
	}

	fmt.Fprintf(out, "\nTasks (%d):\n", len(session.Tasks))
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tTITLE\tASSIGNEE\tPRIORITY\tSTATUS")
	for _, t := range session.Tasks {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", t.ID, truncate(t.Title, 40), t.ToAgent, t.Priority, t.Status)
	}
	w.Flush()

	fmt.Fprintf(out, "\nApprovals (%d):\n", len(session.Approvals))
	for _, a := range session.Approvals {
		fmt.Fprintf(out, "  %s [%s] %s\n", a.ID, a.Status, a.Title)
	}
	return nil
}

func newSessionCloseCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "close <session-id>",
		Short: "Close an active session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionClose(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conclave.yaml", "path to Conclave config file")
	return cmd
}

func runSessionClose(cmd *cobra.Command, configPath, sessionID string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	engine := collab.NewEngine(collab.EngineOpts{DB: gormDB})
	session, err := engine.CloseSession(cmd.Context(), sessionID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Closed session %s\n", session.ID)
	return nil
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
