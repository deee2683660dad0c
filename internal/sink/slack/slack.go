// Package slack implements the outbound event sink for Slack.
package slack

import (
	"context"
	"fmt"
	"log"

	slackapi "github.com/slack-go/slack"

	"github.com/conclave-hq/conclave/internal/sink"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Sink posts domain events to a Slack channel as attachment messages.
type Sink struct {
	client    slackClient
	channelID string
}

// Opts holds parameters for creating a Slack Sink.
type Opts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // channel to post events to
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// New creates a Slack Sink.
func New(opts Opts) (*Sink, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel ID is required")
	}

	s := &Sink{client: opts.Client, channelID: opts.ChannelID}
	if s.client == nil {
		s.client = slackapi.New(opts.BotToken)
	}
	return s, nil
}

// Notify posts the event to the configured channel. Best-effort: errors
// are logged, not returned.
func (s *Sink) Notify(ctx context.Context, ev sink.Event) {
	attachment := slackapi.Attachment{
		Title: ev.Name,
		Color: colorFor(ev.Name),
		Fields: []slackapi.AttachmentField{
			{Title: "Correlation", Value: ev.CorrelationID, Short: true},
			{Title: "Owner", Value: ev.OwnerUserID, Short: true},
		},
	}

	_, _, err := s.client.PostMessageContext(ctx, s.channelID,
		slackapi.MsgOptionText(fmt.Sprintf("Conclave event: %s", ev.Name), false),
		slackapi.MsgOptionAttachments(attachment),
	)
	if err != nil {
		log.Printf("sink: slack deliver %s: %v", ev.Name, err)
	}
}

// colorFor maps event names to sidebar colors.
func colorFor(event string) string {
	switch event {
	case "approval_requested":
		return "#f2c744"
	case "task_updated":
		return "#439fe0"
	default:
		return "#36a64f"
	}
}
