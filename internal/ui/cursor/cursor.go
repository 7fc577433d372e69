// Package cursor tracks the highlighted row and scroll position of the
// phrase list.
package cursor

// Cursor is a list position plus the first visible row. List length and
// viewport height are passed in on each call because both change while the
// program runs.
type Cursor struct {
	pos    int
	offset int
	margin int // rows kept visible above and below the cursor
}

// New creates a cursor that scrolls before it gets within margin rows of
// the viewport edge.
func New(margin int) Cursor {
	return Cursor{margin: margin}
}

// Pos returns the highlighted row.
func (c Cursor) Pos() int {
	return c.pos
}

// Offset returns the first visible row.
func (c Cursor) Offset() int {
	return c.offset
}

// Move shifts the cursor by delta rows. Nothing happens on an empty list.
func (c *Cursor) Move(delta, listLen, height int) {
	c.Jump(c.pos+delta, listLen, height)
}

// Jump puts the cursor on row pos, clamped to the list.
func (c *Cursor) Jump(pos, listLen, height int) {
	if listLen == 0 {
		return
	}
	c.pos = clamp(pos, listLen-1)
	c.Scroll(listLen, height)
}

// Follow moves the cursor onto the phrase being played. A row that is
// already on screen keeps the scroll position; otherwise the row is
// centered.
func (c *Cursor) Follow(pos, listLen, height int) {
	if listLen == 0 || pos < 0 {
		return
	}
	c.pos = clamp(pos, listLen-1)
	if height <= 0 {
		return
	}
	if c.pos < c.offset || c.pos >= c.offset+height {
		c.offset = c.pos - height/2
	}
	c.Scroll(listLen, height)
}

// Scroll adjusts the offset so the cursor is visible with its margin.
// Call it after the viewport is resized.
func (c *Cursor) Scroll(listLen, height int) {
	if height <= 0 || listLen == 0 {
		return
	}
	margin := min(c.margin, (height-1)/2)

	if c.pos < c.offset+margin {
		c.offset = c.pos - margin
	}
	if c.pos >= c.offset+height-margin {
		c.offset = c.pos - height + margin + 1
	}
	c.offset = clamp(c.offset, max(listLen-height, 0))
}

// Visible returns the visible rows as [start, end).
func (c Cursor) Visible(listLen, height int) (start, end int) {
	if listLen == 0 || height <= 0 {
		return 0, 0
	}
	return c.offset, min(c.offset+height, listLen)
}

func clamp(v, maxVal int) int {
	return min(max(v, 0), maxVal)
}
