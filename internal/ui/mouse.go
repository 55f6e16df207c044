package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// panelAt maps a screen position to the panel whose rectangle contains it.
func (m *Model) panelAt(x, y int) (Panel, bool) {
	for _, p := range []Panel{PanelFiles, PanelRevisions, PanelBookmarks, PanelShelves, PanelConflicts, PanelLog} {
		if m.rects.panel(p).contains(x, y) {
			return p, true
		}
	}
	return 0, false
}

func (m *Model) pointInDetails(x, y int) bool {
	return m.rects.details.contains(x, y)
}

// listRowAt translates a click inside a panel to a list index, accounting
// for the border and the panel's scroll offset. Border clicks and clicks
// past the end of the list yield no index. The log panel has no row
// selection, only scrolling.
func (m *Model) listRowAt(p Panel, x, y int) (int, bool) {
	if p == PanelLog {
		return 0, false
	}
	r := m.rects.panel(p)
	if r.w <= 2 || r.h <= 2 {
		return 0, false
	}
	if x <= r.x || x >= r.x+r.w-1 || y <= r.y || y >= r.y+r.h-1 {
		return 0, false
	}
	idx := m.panels[p].Offset + (y - r.y - 1)
	if idx >= m.panelLen(p) {
		return 0, false
	}
	return idx, true
}

// isDoubleClick reports whether a fresh left click matches the previous one
// closely enough in place and time. It is evaluated before the fresh click
// is recorded.
func (m *Model) isDoubleClick(p Panel, idx int, hasIdx bool) bool {
	last := m.lastClick
	if last == nil {
		return false
	}
	if last.panel != p || last.hasIndex != hasIdx {
		return false
	}
	if hasIdx && last.index != idx {
		return false
	}
	return time.Since(last.at) <= doubleClickWindow
}

// scrollPanel focuses and scrolls a panel under the wheel. Files and commits
// reload the detail pane so the diff follows the cursor.
func (m *Model) scrollPanel(p Panel, delta int) tea.Cmd {
	m.focus = p
	if p == PanelLog {
		m.panels[PanelLog].Move(delta, len(m.logLines))
		return nil
	}
	count := m.panelLen(p)
	panel := &m.panels[p]
	panel.Move(delta, count)
	panel.EnsureVisible(count, m.panelBodyRows(p))
	if count > 0 && (p == PanelFiles || p == PanelRevisions) {
		return m.refreshDetailForFocus()
	}
	return nil
}

// handleMouseMsg routes clicks and wheel events. All mouse input is ignored
// while a modal is open. The wheel scrolls the details pane when the pointer
// is over it, otherwise the hovered panel, falling back to the focused one.
func (m *Model) handleMouseMsg(msg tea.Msg) tea.Cmd {
	ev, ok := msg.(tea.MouseMsg)
	if !ok {
		return nil
	}
	if m.confirm != nil || m.input != nil || m.palette != nil {
		return nil
	}
	hovered, hoveredOK := m.panelAt(ev.X, ev.Y)
	switch {
	case ev.Action == tea.MouseActionPress && ev.Button == tea.MouseButtonLeft:
		if !hoveredOK {
			return nil
		}
		idx, hasIdx := m.listRowAt(hovered, ev.X, ev.Y)
		double := m.isDoubleClick(hovered, idx, hasIdx)
		m.lastClick = &mouseClick{panel: hovered, index: idx, hasIndex: hasIdx, at: time.Now()}
		m.focus = hovered
		if hasIdx {
			m.panels[hovered].Cursor = idx
			m.panels[hovered].EnsureVisible(m.panelLen(hovered), m.panelBodyRows(hovered))
		}
		if double && (hovered == PanelFiles || hovered == PanelRevisions) {
			return m.refreshDetailForFocus()
		}
	case ev.Button == tea.MouseButtonWheelDown:
		if m.pointInDetails(ev.X, ev.Y) {
			m.scrollDetails(1)
			return nil
		}
		target := m.focus
		if hoveredOK {
			target = hovered
		}
		return m.scrollPanel(target, 1)
	case ev.Button == tea.MouseButtonWheelUp:
		if m.pointInDetails(ev.X, ev.Y) {
			m.scrollDetails(-1)
			return nil
		}
		target := m.focus
		if hoveredOK {
			target = hovered
		}
		return m.scrollPanel(target, -1)
	}
	return nil
}
