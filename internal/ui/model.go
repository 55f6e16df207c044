package ui

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/atomicstack/easyhg/internal/backend"
	"github.com/atomicstack/easyhg/internal/config"
	"github.com/atomicstack/easyhg/internal/hg"
	"github.com/atomicstack/easyhg/internal/keymap"
	"github.com/atomicstack/easyhg/internal/logging/events"
	"github.com/atomicstack/easyhg/internal/theme"
	"github.com/atomicstack/easyhg/internal/ui/command"
	uistate "github.com/atomicstack/easyhg/internal/ui/state"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	// revisionLimit caps how many revisions a full refresh loads.
	revisionLimit = 200
	// maxLogLines caps the in-memory command log; older lines are dropped.
	maxLogLines = 300
	// tickInterval drives periodic work (refresh checks, spinner-free UI).
	tickInterval = 250 * time.Millisecond
	// refreshInterval is the minimum gap between periodic snapshot refreshes.
	refreshInterval = 7 * time.Second
	// doubleClickWindow is how close together two clicks must land to count
	// as a double click.
	doubleClickWindow = 300 * time.Millisecond
)

// Panel identifies one of the selectable dashboard panels. The declaration
// order is the Tab cycling order.
type Panel int

const (
	PanelFiles Panel = iota
	PanelRevisions
	PanelBookmarks
	PanelShelves
	PanelConflicts
	PanelLog

	panelCount
)

func (p Panel) String() string {
	switch p {
	case PanelFiles:
		return "files"
	case PanelRevisions:
		return "revisions"
	case PanelBookmarks:
		return "bookmarks"
	case PanelShelves:
		return "shelves"
	case PanelConflicts:
		return "conflicts"
	case PanelLog:
		return "log"
	}
	return "unknown"
}

// msgHandler consumes one tea.Msg and optionally returns a follow-up command.
type msgHandler func(tea.Msg) tea.Cmd

// mouseClick remembers the last left click for double-click detection.
type mouseClick struct {
	panel    Panel
	index    int
	hasIndex bool
	at       time.Time
}

// Options carries everything NewModel needs to assemble a session.
type Options struct {
	Client       hg.Client
	Config       config.Config
	Keys         *keymap.KeyMap
	Styles       *theme.Styles
	Watcher      *backend.Watcher
	ConfigIssues []string
	KeymapIssues []string
}

// Model is the Bubble Tea model for the dashboard session. It owns the
// current snapshot, per-panel cursors, the detail pane, the command log, and
// whichever modal is open.
type Model struct {
	client   hg.Client
	keys     *keymap.KeyMap
	styles   *theme.Styles
	commands []config.CustomCommand

	watcher  *backend.Watcher
	throttle *backend.Throttle
	bus      *command.Bus

	width  int
	height int
	rects  layoutRects

	snapshot hg.RepoSnapshot

	focus  Panel
	panels [panelCount]uistate.Panel
	picks  uistate.Selection

	detailText   string
	detailScroll int

	logLines   []string
	statusLine string

	confirm *confirmState
	input   *inputState
	palette *paletteState

	pendingRebaseSource *int64
	lastRebaseHint      string
	haveRebaseHint      bool
	graphWarned         bool
	rebaseUnavailNoted  bool

	generation      uint64
	detailRequestID uint64

	lastClick *mouseClick
	quitting  bool

	handlers map[reflect.Type]msgHandler
}

// NewModel builds the session model and seeds the startup log with config
// warnings, keybinding warnings, and the loaded custom commands.
func NewModel(opts Options) *Model {
	keys := opts.Keys
	if keys == nil {
		keys, _ = keymap.NewKeyMap(nil)
	}
	styles := opts.Styles
	if styles == nil {
		styles = theme.Default()
	}
	m := &Model{
		client:     opts.Client,
		keys:       keys,
		styles:     styles,
		commands:   opts.Config.Commands,
		watcher:    opts.Watcher,
		throttle:   backend.NewThrottle(refreshInterval),
		bus:        command.New(),
		detailText: "Loading…",
		statusLine: fmt.Sprintf("Theme: %s | key overrides: %d | q to quit.", opts.Config.Theme, len(opts.Config.Keys)),
	}
	for _, issue := range opts.ConfigIssues {
		m.appendLog("Config warning: " + issue)
	}
	for _, issue := range opts.KeymapIssues {
		m.appendLog("Keybinding warning: " + issue)
	}
	if len(m.commands) == 0 {
		m.appendLog("No custom commands configured.")
	} else {
		for _, cmd := range m.commands {
			note := ""
			if cmd.NeedsConfirmation {
				note = " [confirm]"
			}
			m.appendLog(fmt.Sprintf("Loaded custom command: %s (%s) [%s] => %s%s",
				cmd.ID, cmd.Title, cmd.Context, cmd.Command, note))
		}
	}
	m.registerHandlers()
	return m
}

// Init starts the tick loop, issues the first full refresh, and begins
// waiting on repository events when a watcher is attached.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), m.refreshCmd(false, true)}
	if m.watcher != nil {
		cmds = append(cmds, waitForRepoEvent(m.watcher))
	}
	return tea.Batch(cmds...)
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):        m.handleKeyMsg,
		reflect.TypeOf(tea.MouseMsg{}):      m.handleMouseMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}): m.handleWindowSizeMsg,
		reflect.TypeOf(tickMsg{}):           m.handleTickMsg,
		reflect.TypeOf(snapshotMsg{}):       m.handleSnapshotMsg,
		reflect.TypeOf(detailMsg{}):         m.handleDetailMsg,
		reflect.TypeOf(actionDoneMsg{}):     m.handleActionDoneMsg,
		reflect.TypeOf(repoEventMsg{}):      m.handleRepoEventMsg,
		reflect.TypeOf(watcherDoneMsg{}):    m.handleWatcherDoneMsg,
		reflect.TypeOf(execDoneMsg{}):       m.handleExecDoneMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t != nil && t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

// Update routes messages through the handler registry. Non-key messages are
// additionally forwarded to an open text input so its cursor keeps blinking.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, 2)
	if m.input != nil {
		if _, isKey := msg.(tea.KeyMsg); !isKey {
			var cmd tea.Cmd
			m.input.field, cmd = m.input.field.Update(msg)
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}
	if handler := m.handlerFor(msg); handler != nil {
		if cmd := handler(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, m.finishUpdate(cmds)
}

func (m *Model) finishUpdate(cmds []tea.Cmd) tea.Cmd {
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	resize, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	m.width = resize.Width
	m.height = resize.Height
	m.rects = computeLayout(m.width, m.height)
	m.adjustIndexes()
	return nil
}

// appendLog stamps line with the wall-clock time and appends it to the
// command log, dropping the oldest lines beyond the cap.
func (m *Model) appendLog(line string) {
	m.logLines = append(m.logLines, "["+time.Now().Format("15:04:05")+"] "+line)
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
}

// keyFor returns the primary key bound to action, or "?" when unbound. The
// label is embedded in status hints so they match the live keymap.
func (m *Model) keyFor(action keymap.ActionID) string {
	if key := m.keys.PrimaryKey(action); key != "" {
		return key
	}
	return "?"
}

func (m *Model) panelLen(p Panel) int {
	switch p {
	case PanelFiles:
		return len(m.snapshot.Files)
	case PanelRevisions:
		return len(m.snapshot.Revisions)
	case PanelBookmarks:
		return len(m.snapshot.Bookmarks)
	case PanelShelves:
		return len(m.snapshot.Shelves)
	case PanelConflicts:
		return len(m.snapshot.Conflicts)
	case PanelLog:
		return len(m.logLines)
	}
	return 0
}

// panelBodyRows is the row count inside a panel's border.
func (m *Model) panelBodyRows(p Panel) int {
	rows := m.rects.panel(p).h - 2
	if rows < 0 {
		rows = 0
	}
	return rows
}

func (m *Model) fileAt(idx int) (hg.FileChange, bool) {
	if idx < 0 || idx >= len(m.snapshot.Files) {
		return hg.FileChange{}, false
	}
	return m.snapshot.Files[idx], true
}

func (m *Model) revisionAt(idx int) (hg.Revision, bool) {
	if idx < 0 || idx >= len(m.snapshot.Revisions) {
		return hg.Revision{}, false
	}
	return m.snapshot.Revisions[idx], true
}

func (m *Model) bookmarkAt(idx int) (hg.Bookmark, bool) {
	if idx < 0 || idx >= len(m.snapshot.Bookmarks) {
		return hg.Bookmark{}, false
	}
	return m.snapshot.Bookmarks[idx], true
}

func (m *Model) shelfAt(idx int) (hg.Shelf, bool) {
	if idx < 0 || idx >= len(m.snapshot.Shelves) {
		return hg.Shelf{}, false
	}
	return m.snapshot.Shelves[idx], true
}

func (m *Model) conflictAt(idx int) (hg.ConflictEntry, bool) {
	if idx < 0 || idx >= len(m.snapshot.Conflicts) {
		return hg.ConflictEntry{}, false
	}
	return m.snapshot.Conflicts[idx], true
}

func (m *Model) selectedFile() (hg.FileChange, bool) {
	return m.fileAt(m.panels[PanelFiles].Cursor)
}

func (m *Model) selectedRevision() (hg.Revision, bool) {
	return m.revisionAt(m.panels[PanelRevisions].Cursor)
}

// moveSelection moves the focused panel's cursor. The log panel scrolls
// instead of selecting; files and commits reload the detail pane after every
// move so the diff follows the cursor.
func (m *Model) moveSelection(delta int) tea.Cmd {
	if m.focus == PanelLog {
		m.panels[PanelLog].Move(delta, len(m.logLines))
		return nil
	}
	count := m.panelLen(m.focus)
	p := &m.panels[m.focus]
	p.Move(delta, count)
	p.EnsureVisible(count, m.panelBodyRows(m.focus))
	events.UI.Panel(m.focus.String(), p.Cursor)
	if count > 0 && (m.focus == PanelFiles || m.focus == PanelRevisions) {
		return m.refreshDetailForFocus()
	}
	return nil
}

func (m *Model) cycleFocus(forward bool) tea.Cmd {
	if forward {
		m.focus = (m.focus + 1) % panelCount
	} else {
		m.focus = (m.focus + panelCount - 1) % panelCount
	}
	events.UI.Focus(m.focus.String())
	return m.refreshDetailForFocus()
}

// setDetailText replaces the detail pane contents and rewinds its scroll.
func (m *Model) setDetailText(text string) {
	m.detailText = text
	m.detailScroll = 0
}

func (m *Model) detailLineCount() int {
	return len(strings.Split(m.detailText, "\n"))
}

func (m *Model) maxDetailScroll() int {
	rows := m.rects.details.h - 2
	if rows < 1 {
		rows = 1
	}
	max := m.detailLineCount() - rows
	if max < 0 {
		max = 0
	}
	return max
}

func (m *Model) detailScrollOffset() int {
	max := m.maxDetailScroll()
	if m.detailScroll > max {
		return max
	}
	return m.detailScroll
}

func (m *Model) scrollDetails(delta int) {
	next := m.detailScroll + delta
	if next < 0 {
		next = 0
	}
	if max := m.maxDetailScroll(); next > max {
		next = max
	}
	m.detailScroll = next
}
