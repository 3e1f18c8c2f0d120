package pixel

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/domain"
)

// Command is one recorded fbq call.
type Command struct {
	Args []any `json:"args"`
}

// Recorder is an Agent that records fbq commands so a page can replay
// them in the browser.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Init implements Agent.
func (r *Recorder) Init(pixelID string) {
	r.record("init", pixelID)
}

// Track implements Agent.
func (r *Recorder) Track(name domain.EventName, customData map[string]any, eventID string) {
	if customData == nil {
		customData = map[string]any{}
	}
	r.record("track", string(name), customData, map[string]string{"eventID": eventID})
}

// PageView implements Agent.
func (r *Recorder) PageView() {
	r.record("track", string(domain.EventPageView))
}

// Consent implements Agent.
func (r *Recorder) Consent(action ConsentAction) {
	r.record("consent", string(action))
}

// Commands returns a copy of the recorded commands in call order.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Script renders the recorded commands as JavaScript fbq calls, one per line.
func (r *Recorder) Script() (string, error) {
	var b strings.Builder
	for _, cmd := range r.Commands() {
		args := make([]string, len(cmd.Args))
		for i, arg := range cmd.Args {
			encoded, err := json.Marshal(arg)
			if err != nil {
				return "", fmt.Errorf("encode fbq argument: %w", err)
			}
			args[i] = string(encoded)
		}
		fmt.Fprintf(&b, "fbq(%s);\n", strings.Join(args, ","))
	}
	return b.String(), nil
}

func (r *Recorder) record(args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands = append(r.commands, Command{Args: args})
}
