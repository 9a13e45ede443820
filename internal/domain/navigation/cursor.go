package navigation

// Cursor points at the active folder (Head) and the active image set within
// it (Index). Transitions take the current per-folder set counts so a cursor
// can never be moved out of range; Clamp repairs one that already is.
type Cursor struct {
	Head  int `json:"head"`
	Index int `json:"index"`
}

// Clamp resets out-of-range positions to 0 and reports whether it changed
// anything. sizes[i] is the number of image sets in folder i.
func (c *Cursor) Clamp(sizes []int) bool {
	changed := false
	if c.Head < 0 || c.Head >= len(sizes) {
		if c.Head != 0 || c.Index != 0 {
			changed = true
		}
		c.Head = 0
		c.Index = 0
		return changed
	}
	if c.Index < 0 || c.Index >= sizes[c.Head] {
		c.Index = 0
		changed = true
	}
	return changed
}

// NextSet moves to the next set, spilling into the next folder and wrapping
// to the first folder after the last set of the last folder.
func (c *Cursor) NextSet(sizes []int) {
	if len(sizes) == 0 {
		return
	}
	c.Clamp(sizes)
	switch {
	case c.Index+1 < sizes[c.Head]:
		c.Index++
	case c.Head+1 < len(sizes):
		c.Head++
		c.Index = 0
	default:
		c.Head = 0
		c.Index = 0
	}
}

// PrevSet moves back one set within the folder; at the first set it stays.
func (c *Cursor) PrevSet(sizes []int) {
	if len(sizes) == 0 {
		return
	}
	c.Clamp(sizes)
	if c.Index > 0 {
		c.Index--
	}
}

// NextFolder moves to the first set of the next folder, wrapping to 0.
func (c *Cursor) NextFolder(sizes []int) {
	if len(sizes) == 0 {
		return
	}
	c.Clamp(sizes)
	c.Head++
	if c.Head >= len(sizes) {
		c.Head = 0
	}
	c.Index = 0
}

// PrevFolder moves to the first set of the previous folder, wrapping to the last.
func (c *Cursor) PrevFolder(sizes []int) {
	if len(sizes) == 0 {
		return
	}
	c.Clamp(sizes)
	c.Head--
	if c.Head < 0 {
		c.Head = len(sizes) - 1
	}
	c.Index = 0
}

// Advance moves to the next folder after a save. The set index is only
// reset on wraparound; otherwise the next Clamp decides whether it still fits.
func (c *Cursor) Advance(sizes []int) {
	if len(sizes) == 0 {
		return
	}
	c.Head++
	if c.Head >= len(sizes) {
		c.Head = 0
		c.Index = 0
	}
}

// Position is a read-only snapshot of the cursor with neighbour flags.
type Position struct {
	Head          int
	Index         int
	Folders       int
	Sets          int
	HasPrevFolder bool
	HasNextFolder bool
	HasPrevSet    bool
	HasNextSet    bool
}

// Position clamps the cursor and describes where it points.
func (c *Cursor) Position(sizes []int) Position {
	c.Clamp(sizes)
	if len(sizes) == 0 {
		return Position{}
	}
	sets := sizes[c.Head]
	return Position{
		Head:          c.Head,
		Index:         c.Index,
		Folders:       len(sizes),
		Sets:          sets,
		HasPrevFolder: c.Head > 0,
		HasNextFolder: c.Head+1 < len(sizes),
		HasPrevSet:    c.Index > 0,
		HasNextSet:    c.Index+1 < sets,
	}
}
