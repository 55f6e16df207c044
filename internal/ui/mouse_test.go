package ui

import (
	"strings"
	"testing"

	"github.com/atomicstack/easyhg/internal/config"
	tea "github.com/charmbracelet/bubbletea"
)

// The 100x30 test window tiles into: files {0,2,58,11}, details {0,13,58,16},
// revisions {58,2,42,9}, bookmarks {58,11,42,4}, shelves {58,15,21,4},
// conflicts {79,15,21,4}, log {58,19,42,10}. Interior rows start one cell
// below each panel's top border.

func leftClick(h *Harness, x, y int) {
	h.Send(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft, X: x, Y: y})
}

func wheel(h *Harness, x, y int, down bool) {
	button := tea.MouseButtonWheelUp
	if down {
		button = tea.MouseButtonWheelDown
	}
	h.Send(tea.MouseMsg{Action: tea.MouseActionPress, Button: button, X: x, Y: y})
}

func TestLeftClickFocusesAndSelectsRow(t *testing.T) {
	client := &fakeClient{}
	m, h := newTestModel(t, client, config.Config{Theme: "dark"})
	loadSnapshot(h, testSnapshot())
	client.patchRevs = nil

	leftClick(h, 60, 5) // revisions row 2
	if m.focus != PanelRevisions {
		t.Fatalf("focus = %v", m.focus)
	}
	if got := m.panels[PanelRevisions].Cursor; got != 2 {
		t.Fatalf("cursor = %d", got)
	}
	if len(client.patchRevs) != 0 {
		t.Fatalf("single click fetched a patch: %v", client.patchRevs)
	}
}

func TestClickOnBorderFocusesWithoutSelecting(t *testing.T) {
	m, h := newTestModel(t, &fakeClient{}, config.Config{Theme: "dark"})
	loadSnapshot(h, testSnapshot())
	pressKey(h, "down")
	if m.panels[PanelFiles].Cursor != 1 {
		t.Fatalf("cursor = %d", m.panels[PanelFiles].Cursor)
	}

	leftClick(h, 5, 2) // files top border
	if m.focus != PanelFiles {
		t.Fatalf("focus = %v", m.focus)
	}
	if m.panels[PanelFiles].Cursor != 1 {
		t.Fatalf("border click moved the cursor to %d", m.panels[PanelFiles].Cursor)
	}
}

func TestClickBeyondListEndKeepsCursor(t *testing.T) {
	m, h := newTestModel(t, &fakeClient{}, config.Config{Theme: "dark"})
	loadSnapshot(h, testSnapshot())

	leftClick(h, 5, 8) // files interior row 5, past the 3 entries
	if m.focus != PanelFiles {
		t.Fatalf("focus = %v", m.focus)
	}
	if m.panels[PanelFiles].Cursor != 0 {
		t.Fatalf("cursor = %d", m.panels[PanelFiles].Cursor)
	}
}

func TestDoubleClickReloadsDetail(t *testing.T) {
	client := &fakeClient{diffText: "diff body"}
	m, h := newTestModel(t, client, config.Config{Theme: "dark"})
	loadSnapshot(h, testSnapshot())
	client.diffPaths = nil
	client.patchRevs = nil

	leftClick(h, 5, 4) // files row 1
	if len(client.diffPaths) != 0 {
		t.Fatalf("first click fetched: %v", client.diffPaths)
	}
	leftClick(h, 5, 4)
	if len(client.diffPaths) != 1 || client.diffPaths[0] != "b.txt" {
		t.Fatalf("diff fetches = %v", client.diffPaths)
	}

	leftClick(h, 60, 3) // revisions row 0; panel changed, not a double click
	if len(client.patchRevs) != 0 {
		t.Fatalf("patch fetches = %v", client.patchRevs)
	}
	leftClick(h, 60, 3)
	if len(client.patchRevs) != 1 || client.patchRevs[0] != 2 {
		t.Fatalf("patch fetches = %v", client.patchRevs)
	}
	if m.focus != PanelRevisions {
		t.Fatalf("focus = %v", m.focus)
	}
}

func TestWheelOverDetailsScrollsDetailPane(t *testing.T) {
	m, h := newTestModel(t, &fakeClient{}, config.Config{Theme: "dark"})
	loadSnapshot(h, testSnapshot())
	m.setDetailText(strings.TrimRight(strings.Repeat("line\n", 40), "\n"))

	wheel(h, 5, 20, true)
	wheel(h, 5, 20, true)
	if m.detailScroll != 2 {
		t.Fatalf("detailScroll = %d", m.detailScroll)
	}
	wheel(h, 5, 20, false)
	if m.detailScroll != 1 {
		t.Fatalf("detailScroll = %d", m.detailScroll)
	}
	// The files cursor must not move while the wheel is over Details.
	if m.panels[PanelFiles].Cursor != 0 {
		t.Fatalf("cursor = %d", m.panels[PanelFiles].Cursor)
	}
}

func TestWheelScrollsHoveredPanelAndTakesFocus(t *testing.T) {
	client := &fakeClient{}
	m, h := newTestModel(t, client, config.Config{Theme: "dark"})
	loadSnapshot(h, testSnapshot())
	client.patchRevs = nil

	wheel(h, 60, 4, true) // over revisions while files has focus
	if m.focus != PanelRevisions {
		t.Fatalf("focus = %v", m.focus)
	}
	if got := m.panels[PanelRevisions].Cursor; got != 1 {
		t.Fatalf("cursor = %d", got)
	}
	if len(client.patchRevs) != 1 || client.patchRevs[0] != 1 {
		t.Fatalf("patch fetches = %v", client.patchRevs)
	}
}

func TestWheelFallsBackToFocusedPanel(t *testing.T) {
	client := &fakeClient{}
	m, h := newTestModel(t, client, config.Config{Theme: "dark"})
	loadSnapshot(h, testSnapshot())
	client.diffPaths = nil

	wheel(h, 50, 1, true) // over the header, no panel
	if m.focus != PanelFiles {
		t.Fatalf("focus = %v", m.focus)
	}
	if got := m.panels[PanelFiles].Cursor; got != 1 {
		t.Fatalf("cursor = %d", got)
	}
	if len(client.diffPaths) != 1 || client.diffPaths[0] != "b.txt" {
		t.Fatalf("diff fetches = %v", client.diffPaths)
	}
}

func TestMouseIgnoredWhileModalOpen(t *testing.T) {
	client := &fakeClient{}
	m, h := newTestModel(t, client, config.Config{Theme: "dark"})
	loadSnapshot(h, testSnapshot())
	client.patchRevs = nil

	pressKey(h, "p")
	if m.confirm == nil {
		t.Fatal("confirm not open")
	}
	leftClick(h, 60, 5)
	wheel(h, 60, 5, true)
	if m.focus != PanelFiles {
		t.Fatalf("focus = %v", m.focus)
	}
	if m.panels[PanelRevisions].Cursor != 0 {
		t.Fatalf("cursor = %d", m.panels[PanelRevisions].Cursor)
	}
	if m.confirm == nil {
		t.Fatal("confirm closed by mouse input")
	}
	if len(client.patchRevs) != 0 {
		t.Fatalf("patch fetches = %v", client.patchRevs)
	}
}
