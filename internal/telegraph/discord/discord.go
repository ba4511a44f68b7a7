// Package discord implements the telegraph Adapter for Discord webhooks.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/hookyard/internal/telegraph"
)

// webhookExecutor abstracts the discordgo.Session method we use, enabling test mocks.
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Adapter implements telegraph.Adapter for a Discord channel webhook.
type Adapter struct {
	exec         webhookExecutor
	webhookID    string
	webhookToken string
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	WebhookID    string
	WebhookToken string
	// For testing: inject a mock executor instead of real Discord API.
	Executor webhookExecutor
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.WebhookID == "" || opts.WebhookToken == "" {
		return nil, fmt.Errorf("discord: webhook id and token are required")
	}
	a := &Adapter{
		exec:         opts.Executor,
		webhookID:    opts.WebhookID,
		webhookToken: opts.WebhookToken,
	}
	if a.exec == nil {
		// Webhook execution authenticates with the webhook token, not a bot token.
		s, err := discordgo.New("")
		if err != nil {
			return nil, fmt.Errorf("discord: new session: %w", err)
		}
		a.exec = s
	}
	return a, nil
}

// Name implements telegraph.Adapter.
func (a *Adapter) Name() string { return "discord" }

// Send implements telegraph.Adapter.
func (a *Adapter) Send(ctx context.Context, msg telegraph.OutboundMessage) error {
	_, err := a.exec.WebhookExecute(a.webhookID, a.webhookToken, false, buildWebhookParams(msg), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: execute webhook: %w", err)
	}
	return nil
}

// buildWebhookParams converts an OutboundMessage to Discord webhook params.
func buildWebhookParams(msg telegraph.OutboundMessage) *discordgo.WebhookParams {
	params := &discordgo.WebhookParams{Content: msg.Text}
	for _, evt := range msg.Events {
		params.Embeds = append(params.Embeds, eventToEmbed(evt))
	}
	return params
}

// eventToEmbed converts a FormattedEvent to a Discord Embed.
func eventToEmbed(evt telegraph.FormattedEvent) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       evt.Title,
		Description: evt.Body,
	}

	if evt.Color != "" {
		embed.Color = parseHexColor(evt.Color)
	}

	for _, f := range evt.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Short,
		})
	}

	return embed
}

// parseHexColor converts a hex color string (e.g. "#36a64f") to an int.
func parseHexColor(hex string) int {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	var color int
	for _, c := range hex {
		color <<= 4
		switch {
		case c >= '0' && c <= '9':
			color |= int(c - '0')
		case c >= 'a' && c <= 'f':
			color |= int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			color |= int(c-'A') + 10
		}
	}
	return color
}
