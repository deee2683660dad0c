package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conclave-hq/conclave/internal/digest"
)

func newDigestCmd() *cobra.Command {
	var (
		configPath string
		once       bool
	)

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Run the pending-approval digest scheduler",
		Long:  "Periodically reminds session owners about approvals that have sat unanswered. With --once, fires a single digest and exits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(cmd, configPath, once)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "conclave.yaml", "path to Conclave config file")
	cmd.Flags().BoolVar(&once, "once", false, "fire one digest immediately and exit")
	return cmd
}

func runDigest(cmd *cobra.Command, configPath string, once bool) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	outSink, err := sinkFromConfig(cfg)
	if err != nil {
		return err
	}

	runner, err := digest.NewRunner(digest.RunnerOpts{
		DB:           gormDB,
		Sink:         outSink,
		Schedule:     cfg.Digest.Schedule,
		PendingAfter: time.Duration(cfg.Digest.PendingAfterMinutes) * time.Minute,
	})
	if err != nil {
		return err
	}

	if once {
		runner.Fire(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "Digest fired.")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Digest scheduler running (%s)\n", cfg.Digest.Schedule)
	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
