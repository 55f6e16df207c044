package ui

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/atomicstack/easyhg/internal/backend"
	"github.com/atomicstack/easyhg/internal/hg"
	"github.com/atomicstack/easyhg/internal/logging/events"
	"github.com/atomicstack/easyhg/internal/ui/command"
	tea "github.com/charmbracelet/bubbletea"
)

// tickMsg fires every tickInterval and drives periodic refresh checks.
type tickMsg struct{}

// snapshotMsg carries a completed snapshot refresh back to Update. The
// generation stamps which refresh produced it; stale generations are
// dropped. full mirrors whether revisions were loaded, preserve whether the
// detail pane should survive the apply when its target is unchanged.
type snapshotMsg struct {
	generation uint64
	full       bool
	preserve   bool
	snapshot   hg.RepoSnapshot
	err        error
}

// detailMsg carries a completed diff or patch fetch. requestID identifies
// the fetch; only the newest request may touch the detail pane.
type detailMsg struct {
	requestID uint64
	title     string
	body      string
	err       error
}

// actionDoneMsg reports a finished mutating command.
type actionDoneMsg struct {
	kind           outcomeKind
	preview        string
	showOutput     bool
	clearSelection bool
	result         hg.CommandResult
	err            error
}

// repoEventMsg is a debounced repository change from the watcher.
type repoEventMsg struct {
	path string
}

// watcherDoneMsg signals the watcher's event channel closed.
type watcherDoneMsg struct{}

// execDoneMsg reports the foreground interactive commit finishing.
type execDoneMsg struct {
	err error
}

// outcomeKind classifies a mutating command so its completion can pick the
// right status hint and decide whether the hint survives the follow-up
// refresh.
type outcomeKind int

const (
	outcomeOther outcomeKind = iota
	outcomeRebaseStart
	outcomeRebaseContinue
	outcomeRebaseAbort
	outcomeResolveMark
	outcomeResolveUnmark
)

func (k outcomeKind) String() string {
	switch k {
	case outcomeRebaseStart:
		return "rebase_start"
	case outcomeRebaseContinue:
		return "rebase_continue"
	case outcomeRebaseAbort:
		return "rebase_abort"
	case outcomeResolveMark:
		return "resolve_mark"
	case outcomeResolveUnmark:
		return "resolve_unmark"
	}
	return "other"
}

// actionRequest is a mutating command ready to run: how to execute it, what
// to call it in the UI, and what to do with its output.
type actionRequest struct {
	kind           outcomeKind
	preview        string
	showOutput     bool
	clearSelection bool
	run            func(context.Context, hg.Client) (hg.CommandResult, error)
}

// hgActionRequest wraps a structured hg action. Only a plain commit clears
// the commit file picks on success; everything else leaves them alone.
func hgActionRequest(action hg.Action) actionRequest {
	kind := outcomeOther
	clearSelection := false
	switch action.(type) {
	case hg.Rebase:
		kind = outcomeRebaseStart
	case hg.RebaseContinue:
		kind = outcomeRebaseContinue
	case hg.RebaseAbort:
		kind = outcomeRebaseAbort
	case hg.ResolveMark:
		kind = outcomeResolveMark
	case hg.ResolveUnmark:
		kind = outcomeResolveUnmark
	case hg.Commit:
		clearSelection = true
	}
	return actionRequest{
		kind:           kind,
		preview:        action.Preview(),
		clearSelection: clearSelection,
		run: func(ctx context.Context, client hg.Client) (hg.CommandResult, error) {
			return client.RunAction(ctx, action)
		},
	}
}

// customActionRequest wraps a resolved custom command invocation. Custom
// commands are the only runs that may push their stdout/stderr into the
// detail pane.
func customActionRequest(inv hg.Invocation, showOutput bool) actionRequest {
	return actionRequest{
		kind:       outcomeOther,
		preview:    inv.Preview(),
		showOutput: showOutput,
		run: func(ctx context.Context, client hg.Client) (hg.CommandResult, error) {
			return client.RunCustom(ctx, inv)
		},
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// waitForRepoEvent blocks on the watcher's event channel and converts the
// next event (or channel close) into a message. The repo-event handler
// re-issues it, keeping exactly one receiver parked on the channel.
func waitForRepoEvent(w *backend.Watcher) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-w.Events()
		if !ok {
			return watcherDoneMsg{}
		}
		return repoEventMsg{path: evt.Path}
	}
}

// refreshCmd starts a snapshot refresh. It bumps the generation so an older
// in-flight refresh that completes later is discarded, stamps the periodic
// throttle, and flips the status line while the work runs.
func (m *Model) refreshCmd(preserve, includeRevisions bool) tea.Cmd {
	m.generation++
	gen := m.generation
	m.throttle.Stamp()
	m.statusLine = "Refreshing repository state…"
	events.Snapshot.Refresh(gen, includeRevisions)
	client := m.client
	return func() tea.Msg {
		snap, err := client.Refresh(context.Background(), hg.SnapshotOptions{
			RevisionLimit:    revisionLimit,
			IncludeRevisions: includeRevisions,
		})
		return snapshotMsg{
			generation: gen,
			full:       includeRevisions,
			preserve:   preserve,
			snapshot:   snap,
			err:        err,
		}
	}
}

// refreshDetailForFocus reloads the detail pane for the focused panel's
// selection. The request id is bumped even when nothing is fetched so any
// in-flight fetch from a previous selection can no longer land.
func (m *Model) refreshDetailForFocus() tea.Cmd {
	m.detailScroll = 0
	m.detailRequestID++
	id := m.detailRequestID
	client := m.client
	switch m.focus {
	case PanelFiles:
		file, ok := m.selectedFile()
		if !ok {
			return nil
		}
		path := file.Path
		events.Detail.Request(id, path)
		return func() tea.Msg {
			body, err := client.FileDiff(context.Background(), path)
			return detailMsg{requestID: id, title: path, body: body, err: err}
		}
	case PanelRevisions:
		rev, ok := m.selectedRevision()
		if !ok {
			return nil
		}
		target := rev.Rev
		title := fmt.Sprintf("rev %d", target)
		events.Detail.Request(id, title)
		return func() tea.Msg {
			body, err := client.RevisionPatch(context.Background(), target)
			return detailMsg{requestID: id, title: title, body: body, err: err}
		}
	default:
		m.setDetailText("Select a file or revision to view details.")
		return nil
	}
}

// runRequest executes a prepared action through the command bus and reports
// completion as an actionDoneMsg.
func (m *Model) runRequest(req actionRequest) tea.Cmd {
	m.statusLine = "Running: " + req.preview
	m.appendLog("RUN: " + req.preview)
	client := m.client
	return m.bus.Execute(command.Request{
		Kind:    req.kind.String(),
		Preview: req.preview,
		Run: func() tea.Msg {
			result, err := req.run(context.Background(), client)
			return actionDoneMsg{
				kind:           req.kind,
				preview:        req.preview,
				showOutput:     req.showOutput,
				clearSelection: req.clearSelection,
				result:         result,
				err:            err,
			}
		},
	})
}

func (m *Model) runHgAction(action hg.Action) tea.Cmd {
	return m.runRequest(hgActionRequest(action))
}

// execInteractiveCommit suspends the dashboard and runs hg commit -i
// attached to the real terminal. Completion arrives as execDoneMsg.
func (m *Model) execInteractiveCommit(message string, files []string) tea.Cmd {
	preview := hg.InteractiveCommitPreview(len(files))
	m.appendLog("Running interactively: " + preview)
	cmd := exec.Command("hg", hg.InteractiveCommitArgs(message, files)...)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return execDoneMsg{err: err}
	})
}
