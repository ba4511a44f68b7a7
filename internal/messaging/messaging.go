// Package messaging carries user-facing outcome messages from an action to
// whoever is presenting it (the web form, the CLI, a chat channel).
package messaging

import (
	"fmt"
	"io"
	"sync"
)

// Level classifies a message for display.
type Level string

const (
	LevelStatus Level = "status"
	LevelError  Level = "error"
)

// Message is a single human-readable outcome.
type Message struct {
	Level Level
	Text  string
}

// Status returns a status-level message.
func Status(text string) Message { return Message{Level: LevelStatus, Text: text} }

// Error returns an error-level message.
func Error(text string) Message { return Message{Level: LevelError, Text: text} }

// IsError reports whether the message is error-level.
func (m Message) IsError() bool { return m.Level == LevelError }

// Sink accepts messages for presentation.
type Sink interface {
	Add(msg Message)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Message)

// Add implements Sink.
func (f SinkFunc) Add(msg Message) { f(msg) }

// Flash collects the messages produced while handling one request.
type Flash struct {
	mu   sync.Mutex
	msgs []Message
}

// Add implements Sink.
func (f *Flash) Add(msg Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
}

// Messages returns the collected messages in order.
func (f *Flash) Messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, len(f.msgs))
	copy(out, f.msgs)
	return out
}

// WriterSink prints each message on its own line. Error messages are
// prefixed with "error: ".
type WriterSink struct {
	W io.Writer
}

// Add implements Sink.
func (w WriterSink) Add(msg Message) {
	if msg.IsError() {
		fmt.Fprintf(w.W, "error: %s\n", msg.Text)
		return
	}
	fmt.Fprintln(w.W, msg.Text)
}

// Multi fans a message out to every sink.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(msg Message) {
		for _, s := range sinks {
			if s != nil {
				s.Add(msg)
			}
		}
	})
}
