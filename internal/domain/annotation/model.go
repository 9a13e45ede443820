package annotation

import "strconv"

// Box is a bounding box in center/size form, in image pixels.
type Box struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// BoxFromCorners converts corner coordinates to center/size form. Inverted
// corners produce a negative width or height and are kept as-is.
func BoxFromCorners(xMin, xMax, yMin, yMax float64) Box {
	return Box{
		CenterX: (xMin + xMax) / 2,
		CenterY: (yMin + yMax) / 2,
		Width:   xMax - xMin,
		Height:  yMax - yMin,
	}
}

// Corners returns the box as xMin, yMin, xMax, yMax.
func (b Box) Corners() (xMin, yMin, xMax, yMax float64) {
	return b.CenterX - b.Width/2, b.CenterY - b.Height/2, b.CenterX + b.Width/2, b.CenterY + b.Height/2
}

// Class is an assigned class: a lowercased name and its stable numeric id.
type Class struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Label is a box on one image. It is either unclassified, identified by a
// caller-chosen TempID, or classified, carrying a Class. Exactly one of
// TempID and Class is set.
//
// RowID holds a non-numeric id read from the annotation file for a row that
// also has a name. Such a label counts as classified under that id, and its
// Class.ID is zero, until it is labelled again.
type Label struct {
	Image  string `json:"image"`
	Box    Box    `json:"box"`
	TempID string `json:"temp_id,omitempty"`
	Class  *Class `json:"class,omitempty"`
	RowID  string `json:"row_id,omitempty"`
}

// Classified reports whether the label has a class and is eligible for CSV output.
func (l Label) Classified() bool {
	return l.Class != nil
}

// Key is the identifier actions use to address the label: the temp id while
// unclassified, the class id once classified.
func (l Label) Key() string {
	if l.RowID != "" {
		return l.RowID
	}
	if l.Class != nil {
		return strconv.Itoa(l.Class.ID)
	}
	return l.TempID
}

// Scope selects which labels a reset clears.
type Scope string

const (
	ScopeAll    Scope = "all"
	ScopeFolder Scope = "folder"
)

// ParseScope maps a query value to a scope; anything unknown is a folder reset.
func ParseScope(s string) Scope {
	if Scope(s) == ScopeAll {
		return ScopeAll
	}
	return ScopeFolder
}
