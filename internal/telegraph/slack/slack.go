// Package slack implements the telegraph Adapter for Slack incoming webhooks.
package slack

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/hookyard/internal/telegraph"
)

// webhookPoster abstracts slackapi.PostWebhookContext, enabling test mocks.
type webhookPoster func(ctx context.Context, url string, msg *slackapi.WebhookMessage) error

// Adapter implements telegraph.Adapter for a Slack incoming webhook.
type Adapter struct {
	webhookURL string
	post       webhookPoster
}

// AdapterOpts holds parameters for creating a Slack Adapter.
type AdapterOpts struct {
	WebhookURL string // https://hooks.slack.com/services/...
	// For testing: inject a poster instead of the real Slack API.
	Post webhookPoster
}

// New creates a Slack Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.WebhookURL == "" {
		return nil, fmt.Errorf("slack: webhook URL is required")
	}
	a := &Adapter{webhookURL: opts.WebhookURL, post: opts.Post}
	if a.post == nil {
		a.post = slackapi.PostWebhookContext
	}
	return a, nil
}

// Name implements telegraph.Adapter.
func (a *Adapter) Name() string { return "slack" }

// Send implements telegraph.Adapter.
func (a *Adapter) Send(ctx context.Context, msg telegraph.OutboundMessage) error {
	if err := a.post(ctx, a.webhookURL, buildWebhookMessage(msg)); err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	return nil
}

// buildWebhookMessage converts an OutboundMessage to a Slack webhook payload.
func buildWebhookMessage(msg telegraph.OutboundMessage) *slackapi.WebhookMessage {
	wm := &slackapi.WebhookMessage{Text: msg.Text}
	for _, evt := range msg.Events {
		wm.Attachments = append(wm.Attachments, eventToAttachment(evt))
	}
	return wm
}

// eventToAttachment converts a FormattedEvent to a Slack Attachment.
func eventToAttachment(evt telegraph.FormattedEvent) slackapi.Attachment {
	att := slackapi.Attachment{
		Title:    evt.Title,
		Text:     evt.Body,
		Color:    evt.Color,
		Fallback: evt.Title,
	}

	for _, f := range evt.Fields {
		att.Fields = append(att.Fields, slackapi.AttachmentField{
			Title: f.Name,
			Value: f.Value,
			Short: f.Short,
		})
	}

	return att
}
