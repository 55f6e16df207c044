// Package command routes prepared dashboard actions into Bubble Tea
// commands. Centralizing dispatch here keeps every mutating action
// observable through one trace point.
package command

import (
	"github.com/atomicstack/easyhg/internal/logging/events"
	tea "github.com/charmbracelet/bubbletea"
)

// Request is one queued mutating action: a trace kind, the human-readable
// preview echoed by status and log lines, and the work itself. Run executes
// on a Bubble Tea worker goroutine and reports completion via its returned
// message.
type Request struct {
	Kind    string
	Preview string
	Run     func() tea.Msg
}

// Bus converts requests into commands.
type Bus struct{}

func New() *Bus {
	return &Bus{}
}

// Execute queues req and returns the command that runs it.
func (b *Bus) Execute(req Request) tea.Cmd {
	events.Action.Queue(req.Kind, req.Preview)
	if req.Run == nil {
		return nil
	}
	return func() tea.Msg {
		return req.Run()
	}
}
