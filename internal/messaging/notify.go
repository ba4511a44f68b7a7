package messaging

import (
	"log"
	"os"
	"os/exec"
	"strings"
)

// Environment variables carrying the message into CommandSink commands.
const (
	EnvLevel = "HOOKYARD_LEVEL"
	EnvText  = "HOOKYARD_TEXT"
)

// CommandSink runs a shell command for every message, e.g. a desktop
// notifier. Best-effort: errors are logged, not returned.
//
// The message reaches the command only through the environment. The
// placeholders {{.Level}} and {{.Text}} expand to "$HOOKYARD_LEVEL" and
// "$HOOKYARD_TEXT", so use them unquoted in the template.
type CommandSink struct {
	Command string // template, e.g. "notify-send Hookyard {{.Text}}"
}

// Add implements Sink.
func (c CommandSink) Add(msg Message) {
	if c.Command == "" {
		return
	}
	cmd := exec.Command("sh", "-c", templateMessage(c.Command))
	cmd.Env = append(os.Environ(), EnvLevel+"="+string(msg.Level), EnvText+"="+msg.Text)
	if out, err := cmd.CombinedOutput(); err != nil {
		log.Printf("notify: command failed: %v: %s", err, strings.TrimSpace(string(out)))
	}
}

// templateMessage replaces placeholders in the command template with
// quoted references to the message variables.
func templateMessage(command string) string {
	r := strings.NewReplacer(
		"{{.Level}}", `"$`+EnvLevel+`"`,
		"{{.Text}}", `"$`+EnvText+`"`,
	)
	return r.Replace(command)
}
