package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/conclave-hq/conclave/internal/collab"
	"github.com/conclave-hq/conclave/internal/models"
)

func newApprovalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approval",
		Short: "Human approval gate commands",
	}

	cmd.AddCommand(newApprovalRequestCmd())
	cmd.AddCommand(newApprovalRespondCmd())
	cmd.AddCommand(newApprovalListCmd())
	return cmd
}

func newApprovalRequestCmd() *cobra.Command {
	var (
		configPath  string
		sessionID   string
		agent       string
		title       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Raise an approval gate",
		Long:  "Records a pending human-in-the-loop checkpoint and notifies the session owner.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApprovalRequest(cmd, configPath, collab.RequestApprovalOpts{
				SessionID:   sessionID,
				AgentID:     agent,
				Title:       title,
				Description: description,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conclave.yaml", "path to Conclave config file")
	cmd.Flags().StringVar(&sessionID, "session", "", "session ID (required)")
	cmd.Flags().StringVar(&agent, "agent", "", "requesting agent ID (required)")
	cmd.Flags().StringVar(&title, "title", "", "approval title (required)")
	cmd.Flags().StringVar(&description, "description", "", "what is being approved (required)")
	cmd.MarkFlagRequired("session")
	cmd.MarkFlagRequired("agent")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("description")
	return cmd
}

func runApprovalRequest(cmd *cobra.Command, configPath string, opts collab.RequestApprovalOpts) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	engine := collab.NewEngine(collab.EngineOpts{DB: gormDB})
	approval, err := engine.RequestApproval(cmd.Context(), opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Approval %s pending: %s\n", approval.ID, approval.Title)
	return nil
}

func newApprovalRespondCmd() *cobra.Command {
	var (
		configPath string
		approve    bool
		reject     bool
		feedback   string
	)

	cmd := &cobra.Command{
		Use:   "respond <approval-id>",
		Short: "Approve or reject a pending approval",
		RunE: func(cmd *cobra.Command, args []string) error {
			if approve == reject {
				return fmt.Errorf("exactly one of --approve or --reject is required")
			}
			return runApprovalRespond(cmd, configPath, args[0], approve, feedback)
		},
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conclave.yaml", "path to Conclave config file")
	cmd.Flags().BoolVar(&approve, "approve", false, "approve the request")
	cmd.Flags().BoolVar(&reject, "reject", false, "reject the request")
	cmd.Flags().StringVar(&feedback, "feedback", "", "feedback relayed to the requesting agent")
	return cmd
}

func runApprovalRespond(cmd *cobra.Command, configPath, approvalID string, approved bool, feedback string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	engine := collab.NewEngine(collab.EngineOpts{DB: gormDB})
	approval, err := engine.HandleApprovalResponse(cmd.Context(), approvalID, cfg.Owner, approved, feedback)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Approval %s %s\n", approval.ID, approval.Status)
	return nil
}

func newApprovalListCmd() *cobra.Command {
	var (
		configPath string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List approvals (pending by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApprovalList(cmd, configPath, all)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conclave.yaml", "path to Conclave config file")
	cmd.Flags().BoolVar(&all, "all", false, "include responded approvals")
	return cmd
}

func runApprovalList(cmd *cobra.Command, configPath string, all bool) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	query := gormDB.Order("created_at ASC")
	if !all {
		query = query.Where("status = ?", models.ApprovalPending)
	}

	var approvals []models.Approval
	if err := query.Find(&approvals).Error; err != nil {
		return fmt.Errorf("list approvals: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(approvals) == 0 {
		fmt.Fprintln(out, "No approvals found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSESSION\tAGENT\tTITLE\tSTATUS\tAGE")
	now := time.Now()
	for _, a := range approvals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.SessionID, a.AgentID, truncate(a.Title, 40), a.Status,
			now.Sub(a.CreatedAt).Round(time.Minute))
	}
	return w.Flush()
}
