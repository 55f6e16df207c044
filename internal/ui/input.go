package ui

import (
	"fmt"
	"strings"

	"github.com/atomicstack/easyhg/internal/config"
	"github.com/atomicstack/easyhg/internal/hg"
	"github.com/atomicstack/easyhg/internal/logging/events"
	uistate "github.com/atomicstack/easyhg/internal/ui/state"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// confirmState is the yes/no modal guarding a prepared action.
type confirmState struct {
	message string
	action  actionRequest
}

// inputPurpose says what a submitted input line becomes.
type inputPurpose int

const (
	inputCommitMessage inputPurpose = iota
	inputCommitMessageInteractive
	inputBookmarkName
	inputShelveName
)

// inputState is the single-line text input modal.
type inputState struct {
	title   string
	purpose inputPurpose
	field   textinput.Model
}

// paletteState is the custom-command palette: a fuzzy filter over command
// titles and a cursor into the filtered rows.
type paletteState struct {
	filter   string
	selected int
}

// handleKeyMsg layers key handling: confirmation modal first, then input,
// then palette. Only when no modal consumes the key does Esc get a chance to
// clear a pinned rebase source, and only after that is the keymap consulted.
func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if handled, cmd := m.handleConfirmationKey(key); handled {
		return cmd
	}
	if handled, cmd := m.handleInputKey(key); handled {
		return cmd
	}
	if handled, cmd := m.handlePaletteKey(key); handled {
		return cmd
	}
	if key.Type == tea.KeyEsc && m.cancelPendingRebase() {
		return nil
	}
	if action, ok := m.keys.Lookup(key); ok {
		return m.dispatchAction(action)
	}
	return nil
}

func (m *Model) handleConfirmationKey(key tea.KeyMsg) (bool, tea.Cmd) {
	if m.confirm == nil {
		return false, nil
	}
	switch {
	case key.Type == tea.KeyEnter || key.String() == "y":
		req := m.confirm.action
		m.confirm = nil
		return true, m.runRequest(req)
	case key.Type == tea.KeyEsc || key.String() == "n":
		m.confirm = nil
		m.statusLine = "Action cancelled."
	}
	// The modal swallows every other key.
	return true, nil
}

// openInput opens the text input modal. The returned command starts the
// cursor blink.
func (m *Model) openInput(purpose inputPurpose, title string) tea.Cmd {
	field := textinput.New()
	field.Prompt = "> "
	cmd := field.Focus()
	m.input = &inputState{title: title, purpose: purpose, field: field}
	return cmd
}

func (m *Model) handleInputKey(key tea.KeyMsg) (bool, tea.Cmd) {
	if m.input == nil {
		return false, nil
	}
	switch key.Type {
	case tea.KeyEsc:
		m.input = nil
		m.statusLine = "Input cancelled."
		return true, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.field.Value())
		if value == "" {
			m.statusLine = "Input cannot be empty."
			return true, nil
		}
		purpose := m.input.purpose
		m.input = nil
		return true, m.submitInput(purpose, value)
	}
	var cmd tea.Cmd
	m.input.field, cmd = m.input.field.Update(key)
	return true, cmd
}

func (m *Model) submitInput(purpose inputPurpose, value string) tea.Cmd {
	switch purpose {
	case inputCommitMessage:
		return m.runHgAction(hg.Commit{Message: value, Files: m.picks.Paths()})
	case inputCommitMessageInteractive:
		m.statusLine = "Launching interactive commit; complete prompts in terminal."
		return m.execInteractiveCommit(value, m.picks.Paths())
	case inputBookmarkName:
		return m.runHgAction(hg.BookmarkCreate{Name: value})
	case inputShelveName:
		return m.runHgAction(hg.ShelveCreate{Name: value})
	}
	return nil
}

func (m *Model) openCommandPalette() {
	if len(m.commands) == 0 {
		m.statusLine = "No custom commands configured."
		return
	}
	m.palette = &paletteState{}
	m.statusLine = "Custom commands: Enter run | Esc cancel."
}

// paletteVisible returns the indexes into m.commands matching the palette
// filter, in declaration order.
func (m *Model) paletteVisible() []int {
	titles := make([]string, len(m.commands))
	for i, cmd := range m.commands {
		titles[i] = cmd.Title
	}
	return uistate.MatchIndexes(titles, m.palette.filter)
}

func (m *Model) handlePaletteKey(key tea.KeyMsg) (bool, tea.Cmd) {
	if m.palette == nil {
		return false, nil
	}
	switch key.Type {
	case tea.KeyEsc:
		// First Esc clears an active filter, the second closes the palette.
		if m.palette.filter != "" {
			m.palette.filter = ""
			m.palette.selected = 0
			events.Filter.Cleared()
			return true, nil
		}
		m.palette = nil
		m.statusLine = "Custom command selection cancelled."
		return true, nil
	case tea.KeyEnter:
		return true, m.runSelectedCustomCommand()
	case tea.KeyDown:
		if visible := m.paletteVisible(); m.palette.selected < len(visible)-1 {
			m.palette.selected++
		}
		return true, nil
	case tea.KeyUp:
		if m.palette.selected > 0 {
			m.palette.selected--
		}
		return true, nil
	case tea.KeyBackspace:
		if m.palette.filter != "" {
			runes := []rune(m.palette.filter)
			m.palette.filter = string(runes[:len(runes)-1])
			m.palette.selected = 0
			events.Filter.Backspace(m.palette.filter)
		}
		return true, nil
	case tea.KeySpace:
		m.palette.filter += " "
		m.palette.selected = 0
		events.Filter.Append(m.palette.filter)
		return true, nil
	case tea.KeyRunes:
		if !key.Alt {
			m.palette.filter += string(key.Runes)
			m.palette.selected = 0
			events.Filter.Append(m.palette.filter)
		}
		return true, nil
	}
	return true, nil
}

func (m *Model) runSelectedCustomCommand() tea.Cmd {
	var chosen *config.CustomCommand
	if m.palette != nil {
		visible := m.paletteVisible()
		if len(visible) > 0 {
			sel := m.palette.selected
			if sel >= len(visible) {
				sel = len(visible) - 1
			}
			chosen = &m.commands[visible[sel]]
		}
	}
	m.palette = nil
	if chosen == nil {
		m.statusLine = "No custom command selected."
		return nil
	}
	req, err := m.prepareCustomRun(*chosen)
	if err != nil {
		m.statusLine = "Custom command not runnable."
		m.appendLog(fmt.Sprintf("Custom command '%s' failed: %v", chosen.ID, err))
		m.setDetailText(err.Error())
		return nil
	}
	events.Command.Run(chosen.ID, req.preview)
	if chosen.NeedsConfirmation {
		m.confirmAction(req, fmt.Sprintf("Run custom command '%s'?\n%s", chosen.Title, req.preview))
		return nil
	}
	return m.runRequest(req)
}
