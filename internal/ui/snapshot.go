package ui

import (
	"fmt"
	"strings"

	"github.com/atomicstack/easyhg/internal/keymap"
	"github.com/atomicstack/easyhg/internal/logging/events"
	tea "github.com/charmbracelet/bubbletea"
)

type detailKind int

const (
	detailNone detailKind = iota
	detailFile
	detailRevision
)

// detailTarget identifies what the detail pane is showing. Comparing targets
// across a snapshot apply decides whether a preserved pane must reload.
type detailTarget struct {
	kind detailKind
	path string
	rev  int64
}

func (m *Model) currentDetailTarget() detailTarget {
	switch m.focus {
	case PanelFiles:
		if file, ok := m.selectedFile(); ok {
			return detailTarget{kind: detailFile, path: file.Path}
		}
	case PanelRevisions:
		if rev, ok := m.selectedRevision(); ok {
			return detailTarget{kind: detailRevision, rev: rev.Rev}
		}
	}
	return detailTarget{}
}

// handleTickMsg re-arms the tick and refreshes when the periodic throttle has
// elapsed. Periodic refreshes are lightweight: they keep the revision list
// already loaded and preserve the detail pane.
func (m *Model) handleTickMsg(tea.Msg) tea.Cmd {
	if m.throttle.Ready() {
		return tea.Batch(m.refreshCmd(true, false), tickCmd())
	}
	return tickCmd()
}

// handleRepoEventMsg makes the next tick refresh immediately instead of
// refreshing inline, so bursts of filesystem events still collapse into one
// snapshot run.
func (m *Model) handleRepoEventMsg(msg tea.Msg) tea.Cmd {
	evt, ok := msg.(repoEventMsg)
	if !ok {
		return nil
	}
	events.Watch.Event(evt.path)
	m.throttle.MarkReady()
	if m.watcher != nil {
		return waitForRepoEvent(m.watcher)
	}
	return nil
}

func (m *Model) handleWatcherDoneMsg(tea.Msg) tea.Cmd {
	m.watcher = nil
	return nil
}

// handleSnapshotMsg applies a completed refresh: stale generations are
// dropped, errors only touch the status line and log, and a successful
// snapshot replaces the current one wholesale before cursors are re-clamped
// and the capability notices re-evaluated.
func (m *Model) handleSnapshotMsg(msg tea.Msg) tea.Cmd {
	sm, ok := msg.(snapshotMsg)
	if !ok {
		return nil
	}
	if sm.generation != m.generation {
		events.Snapshot.Stale(sm.generation, m.generation)
		return nil
	}
	if sm.err != nil {
		m.statusLine = "Snapshot refresh failed."
		m.updateRebaseHintLog("", false)
		m.appendLog("Refresh failed: " + sm.err.Error())
		events.Snapshot.Failed(sm.generation, sm.err)
		return nil
	}

	previousTarget := m.currentDetailTarget()
	snap := sm.snapshot
	if !sm.full {
		// Lightweight refreshes skip `hg log`; keep the revisions we have.
		snap.Revisions = m.snapshot.Revisions
	}
	m.snapshot = snap
	m.adjustIndexes()

	if sm.full {
		hasGraphRows := false
		for _, rev := range m.snapshot.Revisions {
			if rev.GraphPrefix != "" {
				hasGraphRows = true
				break
			}
		}
		if len(m.snapshot.Revisions) > 0 && !hasGraphRows {
			if !m.graphWarned {
				m.appendLog("Commit graph unavailable; showing flat commit list.")
			}
			m.graphWarned = true
			m.statusLine = "Repository state refreshed (flat commit list)."
		} else {
			m.graphWarned = false
			m.statusLine = "Repository state refreshed."
		}
	} else {
		m.statusLine = "Repository state refreshed."
	}

	if m.pendingRebaseSource != nil {
		visible := false
		for _, rev := range m.snapshot.Revisions {
			if rev.Rev == *m.pendingRebaseSource {
				visible = true
				break
			}
		}
		if !visible {
			m.appendLog(fmt.Sprintf("Rebase source revision %d disappeared; selection cleared.", *m.pendingRebaseSource))
			m.pendingRebaseSource = nil
		}
	}

	if !m.snapshot.Capabilities.HasRebase {
		if !m.rebaseUnavailNoted {
			m.appendLog("Rebase unavailable: enable the Mercurial 'rebase' extension to use the rebase action (r).")
			m.rebaseUnavailNoted = true
		}
	} else {
		m.rebaseUnavailNoted = false
	}

	var cmd tea.Cmd
	if !sm.preserve || previousTarget != m.currentDetailTarget() {
		cmd = m.refreshDetailForFocus()
	}
	m.refreshRebaseStatusHint()
	m.appendLog("Snapshot refreshed")
	events.Snapshot.Applied(sm.generation, sm.full, len(m.snapshot.Files), len(m.snapshot.Revisions))
	return cmd
}

// handleDetailMsg applies a completed diff fetch unless a newer request has
// been issued since.
func (m *Model) handleDetailMsg(msg tea.Msg) tea.Cmd {
	dm, ok := msg.(detailMsg)
	if !ok {
		return nil
	}
	if dm.requestID != m.detailRequestID {
		events.Detail.Stale(dm.requestID, m.detailRequestID)
		return nil
	}
	if dm.err != nil {
		m.setDetailText("Failed loading detail: " + dm.err.Error())
		return nil
	}
	body := dm.body
	if strings.TrimSpace(body) == "" {
		body = "No diff output."
	}
	m.setDetailText(body)
	events.Detail.Applied(dm.requestID, dm.title)
	return nil
}

// adjustIndexes re-clamps every panel cursor, prunes commit picks that no
// longer exist, and scrolls the list panels so their cursors stay visible.
// The log panel only clamps: its cursor is its scroll offset.
func (m *Model) adjustIndexes() {
	m.panels[PanelFiles].Clamp(len(m.snapshot.Files))
	m.panels[PanelRevisions].Clamp(len(m.snapshot.Revisions))
	m.panels[PanelBookmarks].Clamp(len(m.snapshot.Bookmarks))
	m.panels[PanelShelves].Clamp(len(m.snapshot.Shelves))
	m.panels[PanelConflicts].Clamp(len(m.snapshot.Conflicts))
	m.panels[PanelLog].Clamp(len(m.logLines))

	paths := make([]string, 0, len(m.snapshot.Files))
	for _, file := range m.snapshot.Files {
		paths = append(paths, file.Path)
	}
	m.picks.Prune(paths)

	for _, p := range []Panel{PanelFiles, PanelRevisions, PanelBookmarks, PanelShelves, PanelConflicts} {
		m.panels[p].EnsureVisible(m.panelLen(p), m.panelBodyRows(p))
	}
}

// rebaseStatusHint describes an in-progress rebase, or reports none.
func (m *Model) rebaseStatusHint() (string, bool) {
	if !m.snapshot.Capabilities.HasRebase || !m.snapshot.Rebase.InProgress {
		return "", false
	}
	continueKey := m.keyFor(keymap.ActionRebaseContinue)
	abortKey := m.keyFor(keymap.ActionRebaseAbort)
	if n := m.snapshot.Rebase.Unresolved; n > 0 {
		return fmt.Sprintf("Rebase in progress: %d unresolved conflict(s). Resolve conflicts, then press %s to continue or %s to abort.",
			n, continueKey, abortKey), true
	}
	return fmt.Sprintf("Rebase in progress: all conflicts resolved. Press %s to continue or %s to abort.",
		continueKey, abortKey), true
}

// refreshRebaseStatusHint pushes the current rebase hint into the status
// line. When a rebase that was previously hinted finishes, the transition is
// announced once.
func (m *Model) refreshRebaseStatusHint() {
	hint, ok := m.rebaseStatusHint()
	if ok {
		m.statusLine = hint
	} else if m.haveRebaseHint {
		m.statusLine = "Rebase is no longer in progress."
		m.appendLog("Rebase is no longer in progress.")
	}
	m.updateRebaseHintLog(hint, ok)
}

// updateRebaseHintLog memoizes the last hint so a persisting rebase state is
// logged once rather than on every refresh.
func (m *Model) updateRebaseHintLog(hint string, ok bool) {
	if ok && (!m.haveRebaseHint || m.lastRebaseHint != hint) {
		m.appendLog(hint)
	}
	m.lastRebaseHint = hint
	m.haveRebaseHint = ok
}
