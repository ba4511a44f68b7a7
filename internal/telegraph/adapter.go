// Package telegraph delivers Hookyard outcome messages to chat platforms
// (Slack, Discord).
package telegraph

import "context"

// Adapter is the interface platform-specific implementations must satisfy.
type Adapter interface {
	// Name identifies the platform, e.g. "slack".
	Name() string

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error
}

// OutboundMessage represents a message to be sent to the chat platform.
type OutboundMessage struct {
	Text   string           // message text (platform-native formatting)
	Events []FormattedEvent // structured event attachments
}

// FormattedEvent represents a Hookyard event formatted for display in chat.
type FormattedEvent struct {
	Title    string  // event headline (e.g. "Dispatch acme/widgets")
	Body     string  // detail text
	Severity string  // "info", "warning", "error", "success"
	Color    string  // sidebar color hint (e.g. "#36a64f" for success)
	Fields   []Field // key-value metadata pairs
}

// Field is a key-value pair displayed in an event attachment.
type Field struct {
	Name  string
	Value string
	Short bool // hint: render side-by-side with another field
}
