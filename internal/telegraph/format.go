package telegraph

import "github.com/zulandar/hookyard/internal/messaging"

// Color constants for event severity.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
	ColorError   = "#e53935"
)

// severityColor maps a severity string to a sidebar color.
func severityColor(severity string) string {
	switch severity {
	case "success":
		return ColorSuccess
	case "info":
		return ColorInfo
	case "warning":
		return ColorWarning
	case "error":
		return ColorError
	default:
		return ColorInfo
	}
}

// FormatMessage converts a user-facing message into a chat message with a
// single colored event.
func FormatMessage(title string, msg messaging.Message) OutboundMessage {
	severity := "success"
	if msg.IsError() {
		severity = "error"
	}
	return OutboundMessage{
		Text: msg.Text,
		Events: []FormattedEvent{{
			Title:    title,
			Body:     msg.Text,
			Severity: severity,
			Color:    severityColor(severity),
		}},
	}
}
