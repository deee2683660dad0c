package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conclave-hq/conclave/internal/bus"
	"github.com/conclave-hq/conclave/internal/collab"
	"github.com/conclave-hq/conclave/internal/dashboard"
	"github.com/conclave-hq/conclave/internal/orchestrator"
	"github.com/conclave-hq/conclave/internal/registry"
)

func newDashboardCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Start the read-only web dashboard",
		Long:  "Launches the HTTP dashboard: session and orchestration projections plus a live event stream.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conclave.yaml", "path to Conclave config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (defaults to config)")
	return cmd
}

func runDashboard(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	outSink, err := sinkFromConfig(cfg)
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Dashboard.Port
	}

	hub := bus.NewHub()
	engine := collab.NewEngine(collab.EngineOpts{DB: gormDB, Bus: hub, Sink: outSink})
	planner := orchestrator.NewPlanner(orchestrator.PlannerOpts{
		Engine:   engine,
		Registry: registry.New(gormDB),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	return dashboard.Start(ctx, dashboard.StartOpts{
		Engine:  engine,
		Planner: planner,
		Hub:     hub,
		Port:    port,
		Out:     cmd.OutOrStdout(),
	})
}
