package ui

import (
	"fmt"
	"strings"

	"github.com/atomicstack/easyhg/internal/format/table"
	"github.com/atomicstack/easyhg/internal/keymap"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// panelRow is one renderable list row with an optional style.
type panelRow struct {
	text  string
	style *lipgloss.Style
}

// View renders the full dashboard frame. While a modal is open the base
// frame is rendered unstyled so the modal box can be spliced in by column
// without cutting through escape sequences.
func (m *Model) View() string {
	if m.quitting || m.width <= 0 || m.height <= 0 {
		return ""
	}
	plain := m.confirm != nil || m.input != nil || m.palette != nil
	rows := m.renderBase(plain)
	if m.confirm != nil {
		r, box := m.renderConfirmModal()
		overlayRows(rows, r, box)
	}
	if m.input != nil {
		r, box := m.renderInputModal()
		overlayRows(rows, r, box)
	}
	if m.palette != nil {
		r, box := m.renderPaletteModal()
		overlayRows(rows, r, box)
	}
	return strings.Join(rows, "\n")
}

func (m *Model) renderBase(plain bool) []string {
	rows := make([]string, 0, m.height)
	rows = append(rows, m.renderHeaderTitle(plain))
	rows = append(rows, m.renderStatusLine(plain))

	left := m.renderFilesPanel(plain)
	left = append(left, m.renderDetailsPanel(plain)...)
	right := m.renderRevisionsPanel(plain)
	right = append(right, m.renderBookmarksPanel(plain)...)
	shelves := m.renderShelvesPanel(plain)
	conflicts := m.renderConflictsPanel(plain)
	for i := range shelves {
		row := shelves[i]
		if i < len(conflicts) {
			row += conflicts[i]
		}
		right = append(right, row)
	}
	right = append(right, m.renderLogPanel(plain)...)
	for i := range left {
		row := left[i]
		if i < len(right) {
			row += right[i]
		}
		rows = append(rows, row)
	}

	rows = append(rows, m.renderFooter(plain))
	if len(rows) > m.height {
		rows = rows[:m.height]
	}
	for len(rows) < m.height {
		rows = append(rows, strings.Repeat(" ", m.width))
	}
	return rows
}

func (m *Model) renderHeaderTitle(plain bool) string {
	repo := "(not in hg repo)"
	if m.snapshot.RepoRoot != "" {
		repo = shortPath(m.snapshot.RepoRoot)
	}
	branch := m.snapshot.Branch
	if branch == "" {
		branch = "unknown branch"
	}
	text := padText(fmt.Sprintf("easyHg | %s | branch: %s | %s", repo, branch, m.snapshot.Capabilities.Version), m.width)
	if plain {
		return text
	}
	return m.styles.Header.Render(text)
}

func (m *Model) renderStatusLine(plain bool) string {
	text := padText(m.statusLine, m.width)
	if plain {
		return text
	}
	return m.styles.Status.Render(text)
}

func (m *Model) renderFooter(plain bool) string {
	text := padText(strings.Join(m.footerEntries(), " | "), m.width)
	if plain {
		return text
	}
	return m.styles.Footer.Render(text)
}

// footerEntries builds the footer key reference from the live keymap. Later
// entries appear only when relevant: the palette needs configured commands,
// the pick counter needs picks, rebase and histedit need their extensions.
func (m *Model) footerEntries() []string {
	k := m.keyFor
	entries := []string{
		k(keymap.ActionQuit) + " quit",
		k(keymap.ActionFocusNext) + " panel+",
		k(keymap.ActionMoveDown) + " down",
		k(keymap.ActionMoveUp) + " up",
		k(keymap.ActionToggleFileForCommit) + " pick-file",
		k(keymap.ActionClearFileSelection) + " clear-picks",
		k(keymap.ActionCommit) + " commit",
		k(keymap.ActionCommitInteractive) + " commit -i",
		k(keymap.ActionBookmark) + " bookmark",
		k(keymap.ActionUpdateSelected) + " update",
		k(keymap.ActionPush) + " push",
		k(keymap.ActionPull) + " pull",
		k(keymap.ActionShelve) + " shelve",
		k(keymap.ActionUnshelveSelected) + " unshelve",
		k(keymap.ActionResolveMark) + "/" + k(keymap.ActionResolveUnmark) + " resolve",
		k(keymap.ActionRefreshSnapshot) + " refresh",
		k(keymap.ActionHelp) + " help->log",
	}
	if len(m.commands) > 0 {
		entries = append(entries, k(keymap.ActionOpenCustomCommands)+" commands")
	}
	if n := m.picks.Count(); n > 0 {
		entries = append(entries, fmt.Sprintf("%d picked", n))
	}
	if m.snapshot.Capabilities.HasRebase {
		entries = append(entries, k(keymap.ActionRebaseSelected)+" rebase")
	}
	if m.snapshot.Capabilities.HasHistedit {
		entries = append(entries, k(keymap.ActionHisteditSelected)+" histedit")
	}
	return entries
}

func (m *Model) renderFilesPanel(plain bool) []string {
	cursor := m.panels[PanelFiles].Cursor
	var rows []panelRow
	if len(m.snapshot.Files) == 0 {
		rows = []panelRow{{text: "(clean working directory)", style: m.styles.Placeholder}}
	} else {
		rows = make([]panelRow, 0, len(m.snapshot.Files))
		for i, file := range m.snapshot.Files {
			prefix := "  "
			if i == cursor {
				prefix = "> "
			}
			mark := "[ ]"
			if m.picks.Contains(file.Path) {
				mark = "[x]"
			}
			row := panelRow{text: fmt.Sprintf("%s%s %s %s", prefix, mark, file.Status.Code(), file.Path)}
			if i == cursor {
				row.style = m.styles.SelectedRow
			}
			rows = append(rows, row)
		}
	}
	return m.renderListPanel(m.rects.files, "Files", m.focus == PanelFiles, rows, m.panels[PanelFiles].Offset, "", plain)
}

func (m *Model) renderRevisionsPanel(plain bool) []string {
	cursor := m.panels[PanelRevisions].Cursor
	var rows []panelRow
	if len(m.snapshot.Revisions) == 0 {
		rows = []panelRow{{text: "(no revisions loaded)", style: m.styles.Placeholder}}
	} else {
		rows = make([]panelRow, 0, len(m.snapshot.Revisions))
		for i, rev := range m.snapshot.Revisions {
			prefix := "  "
			if i == cursor {
				prefix = "> "
			}
			short := rev.Node
			if runes := []rune(short); len(runes) > 10 {
				short = string(runes[:10])
			}
			desc := rev.Desc
			if idx := strings.IndexByte(desc, '\n'); idx >= 0 {
				desc = desc[:idx]
			}
			row := panelRow{text: fmt.Sprintf("%s@%d %s %s (%s)", prefix, rev.Rev, short, desc, rev.User)}
			if i == cursor {
				row.style = m.styles.SelectedRow
			}
			rows = append(rows, row)
		}
	}
	return m.renderListPanel(m.rects.revisions, "Commits", m.focus == PanelRevisions, rows, m.panels[PanelRevisions].Offset, "", plain)
}

func (m *Model) renderBookmarksPanel(plain bool) []string {
	cursor := m.panels[PanelBookmarks].Cursor
	var rows []panelRow
	if len(m.snapshot.Bookmarks) == 0 {
		rows = []panelRow{{text: "(no bookmarks)", style: m.styles.Placeholder}}
	} else {
		rows = make([]panelRow, 0, len(m.snapshot.Bookmarks))
		for i, bm := range m.snapshot.Bookmarks {
			prefix := "  "
			if i == cursor {
				prefix = "> "
			}
			marker := " "
			if bm.Active {
				marker = "*"
			}
			short := bm.Node
			if runes := []rune(short); len(runes) > 12 {
				short = string(runes[:12])
			}
			row := panelRow{text: fmt.Sprintf("%s%s %s @%d %s", prefix, marker, bm.Name, bm.Rev, short)}
			if i == cursor {
				row.style = m.styles.SelectedRow
			}
			rows = append(rows, row)
		}
	}
	return m.renderListPanel(m.rects.bookmarks, "Bookmarks", m.focus == PanelBookmarks, rows, m.panels[PanelBookmarks].Offset, "", plain)
}

func (m *Model) renderShelvesPanel(plain bool) []string {
	cursor := m.panels[PanelShelves].Cursor
	var rows []panelRow
	if len(m.snapshot.Shelves) == 0 {
		rows = []panelRow{{text: "(no shelves)", style: m.styles.Placeholder}}
	} else {
		rows = make([]panelRow, 0, len(m.snapshot.Shelves))
		for i, shelf := range m.snapshot.Shelves {
			prefix := "  "
			if i == cursor {
				prefix = "> "
			}
			text := prefix + shelf.Name
			if shelf.Description != "" {
				text += " " + shelf.Description
			}
			row := panelRow{text: text}
			if i == cursor {
				row.style = m.styles.SelectedRow
			}
			rows = append(rows, row)
		}
	}
	return m.renderListPanel(m.rects.shelves, "Shelves", m.focus == PanelShelves, rows, m.panels[PanelShelves].Offset, "", plain)
}

func (m *Model) renderConflictsPanel(plain bool) []string {
	cursor := m.panels[PanelConflicts].Cursor
	var rows []panelRow
	if len(m.snapshot.Conflicts) == 0 {
		rows = []panelRow{{text: "(no merge conflicts)", style: m.styles.Placeholder}}
	} else {
		rows = make([]panelRow, 0, len(m.snapshot.Conflicts))
		for i, conflict := range m.snapshot.Conflicts {
			prefix := "  "
			if i == cursor {
				prefix = "> "
			}
			marker := "U"
			if conflict.Resolved {
				marker = "R"
			}
			row := panelRow{text: fmt.Sprintf("%s%s %s", prefix, marker, conflict.Path)}
			if i == cursor {
				row.style = m.styles.SelectedRow
			}
			rows = append(rows, row)
		}
	}
	return m.renderListPanel(m.rects.conflicts, "Conflicts", m.focus == PanelConflicts, rows, m.panels[PanelConflicts].Offset, "", plain)
}

func (m *Model) renderDetailsPanel(plain bool) []string {
	r := m.rects.details
	lines := strings.Split(m.detailText, "\n")
	rows := make([]panelRow, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, panelRow{text: line, style: m.diffRowStyle(line)})
	}
	offset := m.detailScrollOffset()
	info := scrollInfo(offset, len(lines), r.h-2)
	return m.renderListPanel(r, "Details (Diff/Patch)", false, rows, offset, info, plain)
}

func (m *Model) renderLogPanel(plain bool) []string {
	r := m.rects.log
	var rows []panelRow
	if len(m.logLines) == 0 {
		rows = []panelRow{{text: "(command log is empty)", style: m.styles.Placeholder}}
	} else {
		rows = make([]panelRow, 0, len(m.logLines))
		for _, line := range m.logLines {
			rows = append(rows, panelRow{text: line, style: m.logRowStyle(line)})
		}
	}
	offset := m.panels[PanelLog].Cursor
	if offset > len(rows)-1 {
		offset = len(rows) - 1
	}
	if offset < 0 {
		offset = 0
	}
	info := scrollInfo(offset, len(m.logLines), r.h-2)
	return m.renderListPanel(r, "Command Log", m.focus == PanelLog, rows, offset, info, plain)
}

func (m *Model) diffRowStyle(line string) *lipgloss.Style {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return nil
	case strings.HasPrefix(line, "+"):
		return m.styles.DiffAdd
	case strings.HasPrefix(line, "-"):
		return m.styles.DiffDel
	}
	return nil
}

func (m *Model) logRowStyle(line string) *lipgloss.Style {
	rest := line
	if idx := strings.Index(line, "] "); idx >= 0 {
		rest = line[idx+2:]
	}
	switch {
	case strings.HasPrefix(rest, "RUN:"), strings.HasPrefix(rest, "Running interactively:"):
		return m.styles.LogRun
	case strings.HasPrefix(rest, "OK:"):
		return m.styles.LogOK
	case strings.HasPrefix(rest, "FAILED:"), strings.HasPrefix(rest, "ERROR:"), strings.HasPrefix(rest, "Refresh failed:"):
		return m.styles.LogError
	}
	return nil
}

// scrollInfo formats the border position segment shown when a pane
// overflows, e.g. " 12/40 ".
func scrollInfo(offset, total, rows int) string {
	if rows < 1 || total <= rows {
		return ""
	}
	last := offset + rows
	if last > total {
		last = total
	}
	return fmt.Sprintf(" %d/%d ", last, total)
}

// renderListPanel draws one bordered panel: a top border embedding the title
// (and an optional scroll segment near the right corner), the visible slice
// of rows padded to the inner width, and a bottom border. Rows beyond the
// slice render blank.
func (m *Model) renderListPanel(r rect, title string, focused bool, rows []panelRow, offset int, info string, plain bool) []string {
	if r.w < 2 || r.h < 2 {
		return blankRows(r)
	}
	borderStyle := m.styles.Panel
	if focused {
		borderStyle = m.styles.PanelFocused
	}
	inner := r.w - 2
	bodyRows := r.h - 2

	titleSeg := " " + title + " "
	infoSeg := info
	dashes := r.w - 4 - runeLen(titleSeg) - runeLen(infoSeg)
	if dashes < 0 {
		infoSeg = ""
		dashes = r.w - 4 - runeLen(titleSeg)
	}
	if dashes < 0 {
		titleSeg = truncateText(titleSeg, r.w-4)
		dashes = r.w - 4 - runeLen(titleSeg)
		if dashes < 0 {
			dashes = 0
		}
	}
	var top string
	if plain {
		top = "╭─" + titleSeg + strings.Repeat("─", dashes) + infoSeg + "─╮"
	} else {
		top = borderStyle.Render("╭─") +
			m.styles.PanelTitle.Render(titleSeg) +
			borderStyle.Render(strings.Repeat("─", dashes)+infoSeg+"─╮")
	}

	out := make([]string, 0, r.h)
	out = append(out, top)
	if offset < 0 {
		offset = 0
	}
	for i := 0; i < bodyRows; i++ {
		var row panelRow
		if idx := offset + i; idx < len(rows) {
			row = rows[idx]
		}
		content := padText(row.text, inner)
		if !plain && row.style != nil {
			content = row.style.Render(content)
		}
		if plain {
			out = append(out, "│"+content+"│")
		} else {
			border := borderStyle.Render("│")
			out = append(out, border+content+border)
		}
	}
	bottom := "╰" + strings.Repeat("─", r.w-2) + "╯"
	if !plain {
		bottom = borderStyle.Render(bottom)
	}
	out = append(out, bottom)
	return out
}

func (m *Model) renderConfirmModal() (rect, []string) {
	r := centeredRect(70, 25, m.width, m.height)
	lines := expandLines([]string{
		m.confirm.message,
		"",
		"Command: " + m.confirm.action.preview,
		"",
		"Press y/Enter to confirm, n/Esc to cancel.",
	})
	return r, m.renderModalBox(r, "Confirm Action", m.styles.ConfirmBorder, lines)
}

func (m *Model) renderInputModal() (rect, []string) {
	r := centeredRect(70, 20, m.width, m.height)
	// The field renders manually: textinput.View carries cursor escapes that
	// would throw off the box padding.
	lines := expandLines([]string{
		m.input.title,
		"",
		"> " + m.input.field.Value(),
		"",
		"Enter to submit, Esc to cancel.",
	})
	return r, m.renderModalBox(r, "Input", m.styles.InputBorder, lines)
}

func (m *Model) renderPaletteModal() (rect, []string) {
	r := centeredRect(76, 55, m.width, m.height)
	var lines []string
	if len(m.commands) == 0 {
		lines = []string{"(no custom commands configured)", "", "Esc to close"}
	} else {
		if m.palette.filter != "" {
			lines = append(lines, "Filter: "+m.palette.filter, "")
		}
		visible := m.paletteVisible()
		if len(visible) == 0 {
			lines = append(lines, "(no matches)")
		}
		rows := make([][]string, 0, len(visible))
		for pos, idx := range visible {
			cmd := m.commands[idx]
			marker := " "
			if pos == m.palette.selected {
				marker = ">"
			}
			rows = append(rows, []string{marker + " " + cmd.Title, "[" + cmd.Context + "]", cmd.Command})
		}
		lines = append(lines, table.Format(rows, []table.Alignment{
			table.AlignLeft, table.AlignLeft, table.AlignLeft,
		})...)
		lines = append(lines, "", "Enter to run, Esc to cancel.")
	}
	return r, m.renderModalBox(r, "Custom Commands", m.styles.PaletteBorder, expandLines(lines))
}

// renderModalBox draws a bordered box of exactly r.w by r.h cells. Content
// that does not fit is dropped; missing rows render blank.
func (m *Model) renderModalBox(r rect, title string, borderStyle *lipgloss.Style, lines []string) []string {
	if r.w < 2 || r.h < 2 {
		return blankRows(r)
	}
	inner := r.w - 2
	bodyRows := r.h - 2

	titleSeg := " " + title + " "
	dashes := r.w - 4 - runeLen(titleSeg)
	if dashes < 0 {
		titleSeg = truncateText(titleSeg, r.w-4)
		dashes = r.w - 4 - runeLen(titleSeg)
		if dashes < 0 {
			dashes = 0
		}
	}
	top := borderStyle.Render("╭─") +
		m.styles.PanelTitle.Render(titleSeg) +
		borderStyle.Render(strings.Repeat("─", dashes)+"─╮")

	out := make([]string, 0, r.h)
	out = append(out, top)
	border := borderStyle.Render("│")
	for i := 0; i < bodyRows; i++ {
		content := ""
		if i < len(lines) {
			content = lines[i]
		}
		out = append(out, border+padText(content, inner)+border)
	}
	out = append(out, borderStyle.Render("╰"+strings.Repeat("─", r.w-2)+"╯"))
	return out
}

// overlayRows splices a modal box over the base rows. The base must be free
// of escape sequences; the box rows carry their own styling.
func overlayRows(rows []string, r rect, box []string) {
	for i, boxRow := range box {
		y := r.y + i
		if y < 0 || y >= len(rows) {
			continue
		}
		base := []rune(rows[y])
		var left, right string
		if r.x <= len(base) {
			left = string(base[:r.x])
		} else {
			left = string(base) + strings.Repeat(" ", r.x-len(base))
		}
		if end := r.x + r.w; end < len(base) {
			right = string(base[end:])
		}
		rows[y] = left + boxRow + right
	}
}

// expandLines splits any embedded newlines so each entry is one screen row.
func expandLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.Contains(line, "\n") {
			out = append(out, strings.Split(line, "\n")...)
			continue
		}
		out = append(out, line)
	}
	return out
}

func blankRows(r rect) []string {
	if r.h <= 0 {
		return nil
	}
	w := r.w
	if w < 0 {
		w = 0
	}
	blank := strings.Repeat(" ", w)
	rows := make([]string, r.h)
	for i := range rows {
		rows[i] = blank
	}
	return rows
}

func runeLen(s string) int {
	return len([]rune(s))
}

// truncateText clamps text to width cells, marking the cut with an ellipsis.
func truncateText(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return truncate.StringWithTail(text, uint(width), "…")
}

// padText truncates or right-pads text to exactly width cells.
func padText(text string, width int) string {
	truncated := truncateText(text, width)
	if pad := width - runeLen(truncated); pad > 0 {
		return truncated + strings.Repeat(" ", pad)
	}
	return truncated
}

// shortPath keeps a path readable in the header by keeping only its tail.
func shortPath(path string) string {
	const max = 42
	runes := []rune(path)
	if len(runes) <= max {
		return path
	}
	return "..." + string(runes[len(runes)-(max-3):])
}
