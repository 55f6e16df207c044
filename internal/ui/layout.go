package ui

// rect is a screen-space rectangle in terminal cells. The origin is the top
// left of the terminal, x grows right, y grows down.
type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// layoutRects holds the computed rectangle for every fixed region of the
// dashboard. All panel rectangles include their one-cell border on each side.
type layoutRects struct {
	header    rect
	footer    rect
	files     rect
	details   rect
	revisions rect
	bookmarks rect
	shelves   rect
	conflicts rect
	log       rect
}

// computeLayout splits the terminal into the dashboard regions: a two-row
// header, a one-row footer, and a body divided 58/42 into a left column
// (files over details, 42/58) and a right column (revisions, bookmarks, a
// shelves/conflicts pair, and the command log at 36/18/18/28). Percentages
// truncate; the last segment of each split absorbs the remainder so the
// regions always tile the terminal exactly.
func computeLayout(width, height int) layoutRects {
	bodyH := height - 3
	if bodyH < 0 {
		bodyH = 0
	}
	bodyY := 2

	leftW := width * 58 / 100
	rightW := width - leftW
	rightX := leftW

	filesH := bodyH * 42 / 100
	detailsH := bodyH - filesH

	revisionsH := bodyH * 36 / 100
	bookmarksH := bodyH * 18 / 100
	shelvesH := bodyH * 18 / 100
	logH := bodyH - revisionsH - bookmarksH - shelvesH

	shelvesW := rightW * 50 / 100
	conflictsW := rightW - shelvesW

	return layoutRects{
		header:    rect{0, 0, width, 2},
		footer:    rect{0, height - 1, width, 1},
		files:     rect{0, bodyY, leftW, filesH},
		details:   rect{0, bodyY + filesH, leftW, detailsH},
		revisions: rect{rightX, bodyY, rightW, revisionsH},
		bookmarks: rect{rightX, bodyY + revisionsH, rightW, bookmarksH},
		shelves:   rect{rightX, bodyY + revisionsH + bookmarksH, shelvesW, shelvesH},
		conflicts: rect{rightX + shelvesW, bodyY + revisionsH + bookmarksH, conflictsW, shelvesH},
		log:       rect{rightX, bodyY + revisionsH + bookmarksH + shelvesH, rightW, logH},
	}
}

func (l layoutRects) panel(p Panel) rect {
	switch p {
	case PanelFiles:
		return l.files
	case PanelRevisions:
		return l.revisions
	case PanelBookmarks:
		return l.bookmarks
	case PanelShelves:
		return l.shelves
	case PanelConflicts:
		return l.conflicts
	case PanelLog:
		return l.log
	}
	return rect{}
}

// centeredRect returns a rectangle covering percentX/percentY of the given
// area, centered on both axes. Modals are placed with it.
func centeredRect(percentX, percentY, width, height int) rect {
	w := width * percentX / 100
	h := height * percentY / 100
	x := width * (100 - percentX) / 200
	y := height * (100 - percentY) / 200
	return rect{x, y, w, h}
}
