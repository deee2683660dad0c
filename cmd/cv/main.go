package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/conclave-hq/conclave/internal/config"
	"github.com/conclave-hq/conclave/internal/db"
	"github.com/conclave-hq/conclave/internal/sink"
	"github.com/conclave-hq/conclave/internal/sink/discord"
	"github.com/conclave-hq/conclave/internal/sink/slack"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cv",
		Short: "Conclave — multi-agent collaboration and orchestration",
		Long:  "Conclave coordinates sessions of AI agents: typed messaging, task assignment, human approval gates, and multi-phase orchestration plans.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newSessionCmd())
	cmd.AddCommand(newMessageCmd())
	cmd.AddCommand(newTaskCmd())
	cmd.AddCommand(newApprovalCmd())
	cmd.AddCommand(newAgentCmd())
	cmd.AddCommand(newOrchestrateCmd())
	cmd.AddCommand(newDashboardCmd())
	cmd.AddCommand(newDigestCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cv %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// connectFromConfig loads the config file and opens the database it names.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.DB.User, cfg.DB.Host, cfg.DB.Port, cfg.DB.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.DB.Database, err)
	}

	return cfg, gormDB, nil
}

// sinkFromConfig assembles the outbound notification sink from the
// configured adapters. Returns Discard when none are configured.
func sinkFromConfig(cfg *config.Config) (sink.Sink, error) {
	var multi sink.Multi

	if cfg.Sinks.Webhook.URL != "" {
		multi = append(multi, sink.NewWebhook(sink.WebhookOpts{URL: cfg.Sinks.Webhook.URL}))
	}
	if cfg.Sinks.Slack.BotToken != "" {
		s, err := slack.New(slack.Opts{
			BotToken:  cfg.Sinks.Slack.BotToken,
			ChannelID: cfg.Sinks.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		multi = append(multi, s)
	}
	if cfg.Sinks.Discord.BotToken != "" {
		d, err := discord.New(discord.Opts{
			BotToken:  cfg.Sinks.Discord.BotToken,
			ChannelID: cfg.Sinks.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		multi = append(multi, d)
	}

	if len(multi) == 0 {
		return sink.Discard{}, nil
	}
	return multi, nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
