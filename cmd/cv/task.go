package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conclave-hq/conclave/internal/collab"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task assignment commands",
	}

	cmd.AddCommand(newTaskAssignCmd())
	cmd.AddCommand(newTaskUpdateCmd())
	return cmd
}

func newTaskAssignCmd() *cobra.Command {
	var (
		configPath  string
		sessionID   string
		from        string
		to          string
		title       string
		description string
		priority    string
	)

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign a task to an agent",
		Long:  "Creates a task and appends a task message to the session ledger. The assignee must be a session participant.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskAssign(cmd, configPath, collab.AssignTaskOpts{
				SessionID:   sessionID,
				FromAgent:   from,
				ToAgent:     to,
				Title:       title,
				Description: description,
				Priority:    priority,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conclave.yaml", "path to Conclave config file")
	cmd.Flags().StringVar(&sessionID, "session", "", "session ID (required)")
	cmd.Flags().StringVar(&from, "from", "", "assigning agent ID (required)")
	cmd.Flags().StringVar(&to, "to", "", "assignee agent ID (required)")
	cmd.Flags().StringVar(&title, "title", "", "task title (required)")
	cmd.Flags().StringVar(&description, "description", "", "task description (required)")
	cmd.Flags().StringVar(&priority, "priority", "", "priority (low, medium, high, urgent; default medium)")
	cmd.MarkFlagRequired("session")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("description")
	return cmd
}

func runTaskAssign(cmd *cobra.Command, configPath string, opts collab.AssignTaskOpts) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	engine := collab.NewEngine(collab.EngineOpts{DB: gormDB})
	task, err := engine.AssignTask(cmd.Context(), opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Assigned task %s to %s (priority %s)\n", task.ID, task.ToAgent, task.Priority)
	return nil
}

func newTaskUpdateCmd() *cobra.Command {
	var (
		configPath string
		status     string
		resultJSON string
	)

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update a task's status",
		Long:  "Moves a task through its lifecycle. Completed, failed and cancelled are terminal; --result attaches output to completions.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskUpdate(cmd, configPath, args[0], status, resultJSON)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conclave.yaml", "path to Conclave config file")
	cmd.Flags().StringVar(&status, "status", "", "new status (in_progress, completed, failed, cancelled)")
	cmd.Flags().StringVar(&resultJSON, "result", "", "result payload as JSON (completed only)")
	cmd.MarkFlagRequired("status")
	return cmd
}

func runTaskUpdate(cmd *cobra.Command, configPath, taskID, status, resultJSON string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	var result map[string]any
	if resultJSON != "" {
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			return fmt.Errorf("parse --result: %w", err)
		}
	}

	engine := collab.NewEngine(collab.EngineOpts{DB: gormDB})
	task, err := engine.UpdateTaskStatus(cmd.Context(), taskID, status, result)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now %s\n", task.ID, task.Status)
	return nil
}
