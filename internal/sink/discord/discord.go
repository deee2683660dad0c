// Package discord implements the outbound event sink for Discord.
package discord

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/conclave-hq/conclave/internal/sink"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Sink posts domain events to a Discord channel as embeds.
type Sink struct {
	sess      session
	channelID string
}

// Opts holds parameters for creating a Discord Sink.
type Opts struct {
	BotToken  string // Discord bot token
	ChannelID string // channel to post events to
	// For testing: inject a mock session instead of the real Discord API.
	Session session
}

// New creates a Discord Sink.
func New(opts Opts) (*Sink, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel ID is required")
	}

	s := &Sink{sess: opts.Session, channelID: opts.ChannelID}
	if s.sess == nil {
		dg, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		s.sess = dg
	}
	return s, nil
}

// Notify posts the event to the configured channel. Best-effort: errors
// are logged, not returned.
func (s *Sink) Notify(ctx context.Context, ev sink.Event) {
	embed := &discordgo.MessageEmbed{
		Title: ev.Name,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Correlation", Value: orDash(ev.CorrelationID), Inline: true},
			{Name: "Owner", Value: orDash(ev.OwnerUserID), Inline: true},
		},
	}

	if _, err := s.sess.ChannelMessageSendEmbed(s.channelID, embed); err != nil {
		log.Printf("sink: discord deliver %s: %v", ev.Name, err)
	}
}

// orDash substitutes a placeholder for empty embed field values, which
// Discord rejects.
func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
