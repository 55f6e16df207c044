package ui

import (
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/atomicstack/easyhg/internal/commands"
	"github.com/atomicstack/easyhg/internal/config"
	"github.com/atomicstack/easyhg/internal/hg"
	"github.com/atomicstack/easyhg/internal/keymap"
	"github.com/atomicstack/easyhg/internal/logging/events"
	tea "github.com/charmbracelet/bubbletea"
)

// dispatchAction executes the keymap action resolved from a keypress.
func (m *Model) dispatchAction(action keymap.ActionID) tea.Cmd {
	switch action {
	case keymap.ActionQuit:
		m.quitting = true
		return tea.Quit
	case keymap.ActionHelp:
		m.appendLog(m.helpText())
	case keymap.ActionFocusNext:
		return m.cycleFocus(true)
	case keymap.ActionFocusPrev:
		return m.cycleFocus(false)
	case keymap.ActionMoveDown:
		return m.moveSelection(1)
	case keymap.ActionMoveUp:
		return m.moveSelection(-1)
	case keymap.ActionRefreshSnapshot:
		return m.refreshCmd(false, true)
	case keymap.ActionRefreshDetails:
		return m.refreshDetailForFocus()
	case keymap.ActionHardRefresh:
		// Reset the one-shot notices so a rescued repository reports its
		// capabilities afresh.
		m.graphWarned = false
		m.rebaseUnavailNoted = false
		return m.finishUpdate([]tea.Cmd{m.refreshCmd(false, true), m.refreshDetailForFocus()})
	case keymap.ActionOpenCustomCommands:
		m.openCommandPalette()
	case keymap.ActionToggleFileForCommit:
		m.toggleSelectedFileForCommit()
	case keymap.ActionClearFileSelection:
		m.picks.Clear()
		m.statusLine = "Cleared commit file selection."
	case keymap.ActionCommit:
		return m.openInput(inputCommitMessage, commitInputTitle(false, m.picks.Count()))
	case keymap.ActionCommitInteractive:
		return m.openInput(inputCommitMessageInteractive, commitInputTitle(true, m.picks.Count()))
	case keymap.ActionBookmark:
		return m.openInput(inputBookmarkName, "New bookmark")
	case keymap.ActionShelve:
		if !m.snapshot.Capabilities.HasShelve {
			m.statusLine = "Shelve extension/command unavailable."
			return nil
		}
		return m.openInput(inputShelveName, "Shelve name")
	case keymap.ActionPush:
		m.confirmAction(hgActionRequest(hg.Push{}), "Push current changes?")
	case keymap.ActionPull:
		return m.runHgAction(hg.Pull{})
	case keymap.ActionIncoming:
		return m.runHgAction(hg.Incoming{})
	case keymap.ActionOutgoing:
		return m.runHgAction(hg.Outgoing{})
	case keymap.ActionUpdateSelected:
		return m.updateActionForSelection()
	case keymap.ActionUnshelveSelected:
		m.unshelveSelected()
	case keymap.ActionResolveMark:
		return m.markSelectedConflict(true)
	case keymap.ActionResolveUnmark:
		return m.markSelectedConflict(false)
	case keymap.ActionRebaseSelected:
		m.startOrConfirmRebase()
	case keymap.ActionRebaseContinue:
		m.continueRebase()
	case keymap.ActionRebaseAbort:
		m.abortRebase()
	case keymap.ActionHisteditSelected:
		m.maybeHistedit()
	}
	return nil
}

// confirmAction opens the confirmation modal over req. The request only runs
// once the user answers yes.
func (m *Model) confirmAction(req actionRequest, message string) {
	m.confirm = &confirmState{message: message, action: req}
}

func commitInputTitle(interactive bool, picked int) string {
	suffix := "s"
	if picked == 1 {
		suffix = ""
	}
	if interactive {
		if picked == 0 {
			return "Interactive commit message (hg commit -i, all tracked changes)"
		}
		return fmt.Sprintf("Interactive commit message (hg commit -i, %d selected file%s)", picked, suffix)
	}
	if picked == 0 {
		return "Commit message (all tracked changes)"
	}
	return fmt.Sprintf("Commit message (%d selected file%s)", picked, suffix)
}

func (m *Model) toggleSelectedFileForCommit() {
	file, ok := m.selectedFile()
	if !ok {
		m.statusLine = "No file selected."
		return
	}
	if m.picks.Toggle(file.Path) {
		m.statusLine = "Selected for commit: " + file.Path
	} else {
		m.statusLine = "Removed from commit selection: " + file.Path
	}
}

func (m *Model) updateActionForSelection() tea.Cmd {
	if m.focus == PanelBookmarks {
		bm, ok := m.bookmarkAt(m.panels[PanelBookmarks].Cursor)
		if !ok {
			m.statusLine = "No bookmark selected."
			return nil
		}
		m.confirmAction(hgActionRequest(hg.UpdateToBookmark{Name: bm.Name}),
			fmt.Sprintf("Update working directory to bookmark '%s'?", bm.Name))
		return nil
	}
	rev, ok := m.selectedRevision()
	if !ok {
		m.statusLine = "No revision selected."
		return nil
	}
	m.confirmAction(hgActionRequest(hg.UpdateToRevision{Rev: rev.Rev}),
		fmt.Sprintf("Update working directory to revision %d?", rev.Rev))
	return nil
}

func (m *Model) unshelveSelected() {
	shelf, ok := m.shelfAt(m.panels[PanelShelves].Cursor)
	if !ok {
		m.statusLine = "No shelf selected."
		return
	}
	m.confirmAction(hgActionRequest(hg.Unshelve{Name: shelf.Name}),
		fmt.Sprintf("Unshelve '%s'? This applies shelved changes.", shelf.Name))
}

func (m *Model) markSelectedConflict(resolved bool) tea.Cmd {
	conflict, ok := m.conflictAt(m.panels[PanelConflicts].Cursor)
	if !ok {
		m.statusLine = "No conflict selected."
		return nil
	}
	if resolved {
		return m.runHgAction(hg.ResolveMark{Path: conflict.Path})
	}
	return m.runHgAction(hg.ResolveUnmark{Path: conflict.Path})
}

// startOrConfirmRebase is the two-step rebase picker. The first press pins
// the selected revision as the source; the second press on a different
// revision confirms source onto destination. Esc clears a pinned source.
func (m *Model) startOrConfirmRebase() {
	if !m.snapshot.Capabilities.HasRebase {
		m.statusLine = "Rebase extension not enabled."
		m.setDetailText(rebaseUnavailableHelpText())
		return
	}
	rev, ok := m.selectedRevision()
	if !ok {
		m.statusLine = "No revision selected for rebase."
		return
	}
	if m.pendingRebaseSource != nil {
		source := *m.pendingRebaseSource
		if source == rev.Rev {
			m.statusLine = "Select a different destination revision, then press rebase again."
			return
		}
		m.pendingRebaseSource = nil
		m.statusLine = fmt.Sprintf("Rebase step 2/2: confirm source %d -> destination %d.", source, rev.Rev)
		m.confirmAction(hgActionRequest(hg.Rebase{Source: source, Dest: rev.Rev}),
			fmt.Sprintf("Rebase step 2/2: rebase source revision %d onto destination revision %d?", source, rev.Rev))
		return
	}
	source := rev.Rev
	m.pendingRebaseSource = &source
	m.statusLine = fmt.Sprintf("Rebase step 1/2: source %d selected. Choose destination and press %s again (Esc cancels).",
		source, m.keyFor(keymap.ActionRebaseSelected))
}

func (m *Model) continueRebase() {
	if !m.snapshot.Capabilities.HasRebase {
		m.statusLine = "Rebase extension not enabled."
		m.setDetailText(rebaseUnavailableHelpText())
		return
	}
	if !m.snapshot.Rebase.InProgress {
		m.statusLine = "No rebase is currently in progress."
		m.setDetailText(noRebaseInProgressHelpText())
		return
	}
	if n := m.snapshot.Rebase.Unresolved; n > 0 {
		m.statusLine = fmt.Sprintf("Cannot continue rebase: %d unresolved conflict(s) remain.", n)
		m.setDetailText(rebaseContinueBlockedHelpText(n,
			m.keyFor(keymap.ActionResolveMark),
			m.keyFor(keymap.ActionRebaseContinue),
			m.keyFor(keymap.ActionRebaseAbort)))
		return
	}
	m.pendingRebaseSource = nil
	m.statusLine = "Rebase continue ready. Confirm to proceed."
	m.confirmAction(hgActionRequest(hg.RebaseContinue{}), "Continue in-progress rebase?")
}

func (m *Model) abortRebase() {
	if !m.snapshot.Capabilities.HasRebase {
		m.statusLine = "Rebase extension not enabled."
		m.setDetailText(rebaseUnavailableHelpText())
		return
	}
	if !m.snapshot.Rebase.InProgress {
		m.statusLine = "No rebase is currently in progress."
		m.setDetailText(noRebaseInProgressHelpText())
		return
	}
	m.pendingRebaseSource = nil
	m.statusLine = "Rebase abort ready. Confirm to proceed."
	m.confirmAction(hgActionRequest(hg.RebaseAbort{}), "Abort in-progress rebase?")
}

// cancelPendingRebase clears a pinned rebase source. It reports whether
// there was one to clear so Esc can fall through to other handlers.
func (m *Model) cancelPendingRebase() bool {
	if m.pendingRebaseSource == nil {
		return false
	}
	m.pendingRebaseSource = nil
	m.statusLine = "Rebase selection cancelled."
	return true
}

func (m *Model) maybeHistedit() {
	if !m.snapshot.Capabilities.HasHistedit {
		m.statusLine = "Histedit extension not enabled."
		return
	}
	rev, ok := m.selectedRevision()
	if !ok {
		m.statusLine = "No revision selected for histedit."
		return
	}
	m.confirmAction(hgActionRequest(hg.Histedit{Base: rev.Rev}),
		fmt.Sprintf("Start histedit from revision %d?", rev.Rev))
}

// handleActionDoneMsg digests a finished command: status hint, log entry,
// detail pane, then a full refresh. Rebase and resolve hints outlive the
// refresh's own status message so the user still sees what to do next.
func (m *Model) handleActionDoneMsg(msg tea.Msg) tea.Cmd {
	am, ok := msg.(actionDoneMsg)
	if !ok {
		return nil
	}
	if am.err != nil {
		m.statusLine = "Command error: " + am.preview
		m.appendLog("ERROR: " + strings.TrimSpace(am.err.Error()))
		m.setDetailText(am.err.Error())
		events.Action.Error(am.err)
		return nil
	}

	out := am.result
	preservedStatus := ""
	preserve := false
	if out.Success {
		m.applyActionSuccessHint(am.kind, am.preview)
		if am.kind != outcomeOther {
			preservedStatus, preserve = m.statusLine, true
		}
		m.appendLog("OK: " + am.preview)
		if am.clearSelection {
			m.picks.Clear()
		}
		if am.showOutput {
			if text := collectCommandOutput(out); text != "" {
				m.setDetailText(text)
			}
		}
	} else {
		m.applyActionFailureHint(am.kind, am.preview)
		detail := fmt.Sprintf("%s\n%s\n%s", out.CommandPreview, strings.TrimSpace(out.Stdout), strings.TrimSpace(out.Stderr))
		m.appendLog("FAILED: " + strings.TrimSpace(detail))
		m.setDetailText(detail)
		if am.kind != outcomeOther {
			preservedStatus, preserve = m.statusLine, true
		}
	}
	events.Action.Result(am.kind.String(), am.preview, out.Success)

	cmd := m.refreshCmd(false, true)
	if preserve {
		m.statusLine = preservedStatus
	}
	return cmd
}

// handleExecDoneMsg resumes after the foreground interactive commit. Both a
// clean exit and a non-zero exit refresh; only a spawn failure leaves the
// snapshot alone.
func (m *Model) handleExecDoneMsg(msg tea.Msg) tea.Cmd {
	em, ok := msg.(execDoneMsg)
	if !ok {
		return nil
	}
	if em.err == nil {
		m.statusLine = "Interactive commit completed."
		m.appendLog("OK: hg commit -i")
		m.picks.Clear()
		return m.refreshCmd(false, true)
	}
	var exitErr *exec.ExitError
	if errors.As(em.err, &exitErr) {
		m.statusLine = "Interactive commit exited with error."
		m.appendLog(fmt.Sprintf("FAILED: interactive commit exit status %d", exitErr.ExitCode()))
		return m.refreshCmd(false, true)
	}
	m.statusLine = "Interactive commit failed."
	m.appendLog("Interactive commit error: " + em.err.Error())
	m.setDetailText("Interactive commit error:\n" + em.err.Error())
	return nil
}

func (m *Model) applyActionSuccessHint(kind outcomeKind, preview string) {
	switch kind {
	case outcomeRebaseStart:
		m.statusLine = "Rebase started. Refreshing state to determine next step…"
	case outcomeRebaseContinue:
		m.statusLine = "Rebase continue ran. Refreshing state to verify progress…"
	case outcomeRebaseAbort:
		m.statusLine = "Rebase abort ran. Refreshing state…"
	case outcomeResolveMark, outcomeResolveUnmark:
		if !m.snapshot.Rebase.InProgress {
			m.statusLine = "Completed: " + preview
			return
		}
		// The snapshot is about to be refreshed; estimate the remaining
		// conflicts from the pre-action state.
		n := m.snapshot.Rebase.Unresolved
		if kind == outcomeResolveMark {
			if n > 0 {
				n--
			}
		} else {
			n++
		}
		if n == 0 {
			m.statusLine = fmt.Sprintf("All conflicts appear resolved. Press %s to continue rebase.",
				m.keyFor(keymap.ActionRebaseContinue))
		} else {
			m.statusLine = fmt.Sprintf("Conflict state updated. ~%d unresolved conflict(s) remain before continue.", n)
		}
	default:
		m.statusLine = "Completed: " + preview
	}
}

func (m *Model) applyActionFailureHint(kind outcomeKind, preview string) {
	switch kind {
	case outcomeRebaseStart:
		m.statusLine = fmt.Sprintf("Rebase start failed: %s. Check details, then retry or press %s to abort.",
			preview, m.keyFor(keymap.ActionRebaseAbort))
	case outcomeRebaseContinue:
		m.statusLine = fmt.Sprintf("Rebase continue failed: %s. Resolve conflicts then press %s, or abort with %s.",
			preview, m.keyFor(keymap.ActionRebaseContinue), m.keyFor(keymap.ActionRebaseAbort))
	case outcomeRebaseAbort:
		m.statusLine = fmt.Sprintf("Rebase abort failed: %s. Check details for recovery steps.", preview)
	case outcomeResolveMark, outcomeResolveUnmark:
		m.statusLine = fmt.Sprintf("Conflict resolution command failed: %s. Check details and retry.", preview)
	default:
		m.statusLine = "Command failed: " + preview
	}
}

// collectCommandOutput formats captured stdout/stderr for the detail pane,
// skipping streams that are blank.
func collectCommandOutput(result hg.CommandResult) string {
	var sections []string
	if strings.TrimSpace(result.Stdout) != "" {
		sections = append(sections, "stdout:\n"+strings.TrimRight(result.Stdout, " \t\r\n"))
	}
	if strings.TrimSpace(result.Stderr) != "" {
		sections = append(sections, "stderr:\n"+strings.TrimRight(result.Stderr, " \t\r\n"))
	}
	return strings.Join(sections, "\n\n")
}

// prepareCustomRun resolves a custom command's templates against the current
// selection. Commands referencing variables that cannot be bound right now
// are rejected with the missing names listed.
func (m *Model) prepareCustomRun(cmd config.CustomCommand) (actionRequest, error) {
	vars, err := m.customTemplateVars(cmd)
	if err != nil {
		return actionRequest{}, err
	}
	program, baseArgs, err := commands.SplitCommand(cmd.Command)
	if err != nil {
		return actionRequest{}, err
	}

	var unresolved []string
	record := func(raw string) {
		for _, name := range commands.UnresolvedVars(raw, vars) {
			found := false
			for _, have := range unresolved {
				if have == name {
					found = true
					break
				}
			}
			if !found {
				unresolved = append(unresolved, name)
			}
		}
	}
	record(program)
	for _, arg := range baseArgs {
		record(arg)
	}
	for _, arg := range cmd.Args {
		record(arg)
	}
	envKeys := make([]string, 0, len(cmd.Env))
	for key := range cmd.Env {
		envKeys = append(envKeys, key)
	}
	sort.Strings(envKeys)
	for _, key := range envKeys {
		record(cmd.Env[key])
	}
	if len(unresolved) > 0 {
		sort.Strings(unresolved)
		events.Command.Rejected(cmd.ID, unresolved)
		return actionRequest{}, fmt.Errorf("custom command '%s' requires unavailable template vars: %s",
			cmd.ID, strings.Join(unresolved, ", "))
	}

	renderedProgram := commands.RenderTemplate(program, vars)
	if strings.TrimSpace(renderedProgram) == "" {
		return actionRequest{}, fmt.Errorf("custom command '%s' resolved to empty program", cmd.ID)
	}
	args := make([]string, 0, len(baseArgs)+len(cmd.Args))
	for _, arg := range baseArgs {
		args = append(args, commands.RenderTemplate(arg, vars))
	}
	for _, arg := range cmd.Args {
		args = append(args, commands.RenderTemplate(arg, vars))
	}
	env := make([]string, 0, len(envKeys))
	for _, key := range envKeys {
		env = append(env, key+"="+commands.RenderTemplate(cmd.Env[key], vars))
	}

	inv := hg.Invocation{Program: renderedProgram, Args: args, Env: env}
	return customActionRequest(inv, cmd.ShowOutput), nil
}

// customTemplateVars binds the template variables available right now. The
// command's context decides which bindings are mandatory; beyond that, any
// current file or revision selection is offered opportunistically.
func (m *Model) customTemplateVars(cmd config.CustomCommand) (map[string]string, error) {
	if m.snapshot.RepoRoot == "" {
		return nil, errors.New("repository root unavailable")
	}
	vars := map[string]string{"repo_root": m.snapshot.RepoRoot}
	branch := m.snapshot.Branch
	if branch == "" {
		branch = "unknown"
	}
	vars["branch"] = branch

	switch cmd.Context {
	case config.ContextFile:
		file, ok := m.selectedFile()
		if !ok {
			return nil, errors.New("file-context command requires selected file")
		}
		vars["file"] = file.Path
	case config.ContextRevision:
		rev, ok := m.selectedRevision()
		if !ok {
			return nil, errors.New("revision-context command requires selected revision")
		}
		vars["rev"] = strconv.FormatInt(rev.Rev, 10)
		vars["node"] = rev.Node
	}

	if file, ok := m.selectedFile(); ok {
		if _, exists := vars["file"]; !exists {
			vars["file"] = file.Path
		}
	}
	if rev, ok := m.selectedRevision(); ok {
		if _, exists := vars["rev"]; !exists {
			vars["rev"] = strconv.FormatInt(rev.Rev, 10)
		}
		if _, exists := vars["node"]; !exists {
			vars["node"] = rev.Node
		}
	}
	return vars, nil
}

func rebaseUnavailableHelpText() string {
	return "Rebase is unavailable in this repository.\n\n" +
		"Enable the Mercurial rebase extension in your hgrc:\n" +
		"[extensions]\n" +
		"rebase =\n\n" +
		"Then refresh the snapshot and try rebase again."
}

func noRebaseInProgressHelpText() string {
	return "No rebase is currently in progress.\n\n" +
		"Start a rebase with the rebase picker (`r`) from the Commits panel, " +
		"then use continue/abort actions as needed."
}

func rebaseContinueBlockedHelpText(unresolved int, markKey, continueKey, abortKey string) string {
	return fmt.Sprintf("Rebase continue is blocked.\n\n"+
		"%d unresolved conflict(s) remain.\n\n"+
		"Resolve conflicts in the Conflicts panel (mark resolved with `%s`), then press `%s`.\n"+
		"Use `%s` to abort the rebase.", unresolved, markKey, continueKey, abortKey)
}

// helpText is the one-line key reference appended to the command log.
func (m *Model) helpText() string {
	caps := m.snapshot.Capabilities
	k := m.keyFor
	lines := []string{
		fmt.Sprintf("Keys: %s quit | %s focus+ | %s focus- | %s down | %s up | %s refresh | %s reload diff",
			k(keymap.ActionQuit), k(keymap.ActionFocusNext), k(keymap.ActionFocusPrev),
			k(keymap.ActionMoveDown), k(keymap.ActionMoveUp),
			k(keymap.ActionRefreshSnapshot), k(keymap.ActionRefreshDetails)),
		fmt.Sprintf("Actions: %s pick file | %s clear picks | %s commit | %s interactive commit | %s bookmark | %s update | %s push(confirm) | %s pull",
			k(keymap.ActionToggleFileForCommit), k(keymap.ActionClearFileSelection),
			k(keymap.ActionCommit), k(keymap.ActionCommitInteractive), k(keymap.ActionBookmark),
			k(keymap.ActionUpdateSelected), k(keymap.ActionPush), k(keymap.ActionPull)),
		fmt.Sprintf("Remote: %s incoming | %s outgoing", k(keymap.ActionIncoming), k(keymap.ActionOutgoing)),
		fmt.Sprintf("Shelves: %s create shelf | %s unshelve selected shelf",
			k(keymap.ActionShelve), k(keymap.ActionUnshelveSelected)),
		fmt.Sprintf("Conflicts: %s mark resolved | %s mark unresolved",
			k(keymap.ActionResolveMark), k(keymap.ActionResolveUnmark)),
		"Mouse: click focus/select | wheel scroll hovered panel or Details (fallback: focused panel) | double-click files/commits loads details",
	}
	if caps.HasRebase {
		lines = append(lines, fmt.Sprintf("History: %s rebase picker | %s rebase --continue (only when rebase is active and conflicts are resolved) | %s rebase --abort",
			k(keymap.ActionRebaseSelected), k(keymap.ActionRebaseContinue), k(keymap.ActionRebaseAbort)))
	}
	if caps.HasHistedit {
		lines = append(lines, fmt.Sprintf("History: %s histedit from selected revision", k(keymap.ActionHisteditSelected)))
	}
	if len(m.commands) > 0 {
		lines = append(lines, fmt.Sprintf("Custom: %s open command palette", k(keymap.ActionOpenCustomCommands)))
	}
	return strings.Join(lines, " | ")
}
