package state

// Panel tracks cursor position and viewport offset for a single list panel.
type Panel struct {
	Cursor int
	Offset int
}

// Move shifts the cursor by delta inside a list of count rows, clamping at
// both ends. It reports whether the cursor actually moved. An empty list
// resets both cursor and viewport.
func (p *Panel) Move(delta, count int) bool {
	if count <= 0 {
		p.Cursor = 0
		p.Offset = 0
		return false
	}
	old := p.Cursor
	next := p.Cursor + delta
	if next < 0 {
		next = 0
	}
	if next > count-1 {
		next = count - 1
	}
	p.Cursor = next
	return p.Cursor != old
}

// Clamp pulls an out-of-range cursor back to the last row after the list
// shrinks. An in-range cursor is left alone.
func (p *Panel) Clamp(count int) {
	if p.Cursor < count {
		return
	}
	p.Cursor = count - 1
	if p.Cursor < 0 {
		p.Cursor = 0
	}
}

// EnsureVisible scrolls the viewport so the cursor stays inside a window of
// rows visible rows.
func (p *Panel) EnsureVisible(count, rows int) {
	if count <= 0 {
		p.Cursor = 0
		p.Offset = 0
		return
	}
	if rows < 1 {
		rows = 1
	}
	if p.Cursor < 0 {
		p.Cursor = 0
	}
	if p.Cursor > count-1 {
		p.Cursor = count - 1
	}
	maxOffset := count - rows
	if maxOffset < 0 {
		maxOffset = 0
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Offset > maxOffset {
		p.Offset = maxOffset
	}
	if p.Cursor < p.Offset {
		p.Offset = p.Cursor
	} else if p.Cursor >= p.Offset+rows {
		p.Offset = p.Cursor + 1 - rows
		if p.Offset > maxOffset {
			p.Offset = maxOffset
		}
	}
}
