package state

import (
	"encoding/json"
	"fmt"

	"LocalCanvas/internal/geom"
)

// ContentKind tags the content variant carried by an Item.
type ContentKind string

const (
	KindShape ContentKind = "shape"
	KindNote  ContentKind = "note"
	KindText  ContentKind = "text"
	KindTable ContentKind = "table"
	KindGroup ContentKind = "group"
)

// ResizeMode tells the gesture layer which resize rule applies to a
// content kind.
type ResizeMode int

const (
	ResizeNone    ResizeMode = iota
	ResizeUniform            // center-preserving, one dimension (shapes, notes)
	ResizeWidth              // one-dimensional width, edge-anchored (text)
)

// Content is the tagged union of item payloads. Implementations live in
// this package only.
type Content interface {
	Kind() ContentKind
	CanRotate() bool
	ResizeMode() ResizeMode
	// BaseSize is the intrinsic display size before any ephemeral override.
	BaseSize() (w, h float32)
}

// Item is one persisted object on the board. X and Y are canvas-space for
// root items and relative to the group origin for grouped children.
type Item struct {
	ID       string
	X        float32
	Y        float32
	Rotation float32
	Content  Content
}

type ShapeForm string

const (
	ShapeRect    ShapeForm = "rect"
	ShapeEllipse ShapeForm = "ellipse"
)

type Shape struct {
	Form ShapeForm `json:"form"`
	Size float32   `json:"size"`
	Fill string    `json:"fill,omitempty"`
}

func (s *Shape) Kind() ContentKind            { return KindShape }
func (s *Shape) CanRotate() bool              { return true }
func (s *Shape) ResizeMode() ResizeMode       { return ResizeUniform }
func (s *Shape) BaseSize() (float32, float32) { return s.Size, s.Size }

type Note struct {
	Text string  `json:"text"`
	Size float32 `json:"size"`
}

func (n *Note) Kind() ContentKind            { return KindNote }
func (n *Note) CanRotate() bool              { return true }
func (n *Note) ResizeMode() ResizeMode       { return ResizeUniform }
func (n *Note) BaseSize() (float32, float32) { return n.Size, n.Size }

// textBlockHeight is fixed; only width is user-resizable.
const textBlockHeight float32 = 28

type TextBlock struct {
	Text  string  `json:"text"`
	Width float32 `json:"width"`
}

func (t *TextBlock) Kind() ContentKind            { return KindText }
func (t *TextBlock) CanRotate() bool              { return true }
func (t *TextBlock) ResizeMode() ResizeMode       { return ResizeWidth }
func (t *TextBlock) BaseSize() (float32, float32) { return t.Width, textBlockHeight }

type Table struct {
	Rows       int     `json:"rows"`
	Cols       int     `json:"cols"`
	CellWidth  float32 `json:"cell_width"`
	CellHeight float32 `json:"cell_height"`
}

func (t *Table) Kind() ContentKind      { return KindTable }
func (t *Table) CanRotate() bool        { return true }
func (t *Table) ResizeMode() ResizeMode { return ResizeNone }
func (t *Table) BaseSize() (float32, float32) {
	return float32(t.Cols) * t.CellWidth, float32(t.Rows) * t.CellHeight
}

// Group is a container item. Children keep their own offsets relative to
// the group origin, or are laid out at deterministic grid cells when
// ViewAsGrid is set (children then ignore their own rotation for display).
type Group struct {
	Name       string
	Children   []*Item
	ViewAsGrid bool
}

func (g *Group) Kind() ContentKind      { return KindGroup }
func (g *Group) CanRotate() bool        { return false }
func (g *Group) ResizeMode() ResizeMode { return ResizeNone }
func (g *Group) BaseSize() (float32, float32) {
	if g.ViewAsGrid {
		return geom.DefaultGrid.Extent(len(g.Children))
	}
	return 100, 100
}

// IndexOf returns the position of the child with the given id, -1 when
// absent.
func (g *Group) IndexOf(id string) int {
	for i, c := range g.Children {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// PrimarySize is the single dimension a resize gesture manipulates for
// the content kind: uniform size for shapes and notes, width for text.
func PrimarySize(c Content) float32 {
	switch v := c.(type) {
	case *Shape:
		return v.Size
	case *Note:
		return v.Size
	case *TextBlock:
		return v.Width
	}
	w, _ := c.BaseSize()
	return w
}

// setPrimarySize is the matching single dispatch point for applying a
// committed resize. Returns false for kinds that cannot resize.
func setPrimarySize(c Content, size float32) bool {
	switch v := c.(type) {
	case *Shape:
		v.Size = size
	case *Note:
		v.Size = size
	case *TextBlock:
		v.Width = size
	default:
		return false
	}
	return true
}

// Clone deep-copies an item, including group children.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	out := *it
	switch c := it.Content.(type) {
	case *Shape:
		cc := *c
		out.Content = &cc
	case *Note:
		cc := *c
		out.Content = &cc
	case *TextBlock:
		cc := *c
		out.Content = &cc
	case *Table:
		cc := *c
		out.Content = &cc
	case *Group:
		cc := Group{Name: c.Name, ViewAsGrid: c.ViewAsGrid}
		cc.Children = make([]*Item, 0, len(c.Children))
		for _, ch := range c.Children {
			cc.Children = append(cc.Children, ch.Clone())
		}
		out.Content = &cc
	}
	return &out
}

// itemWire is the JSON form of an Item; exactly one content field is set,
// selected by Kind.
type itemWire struct {
	ID       string      `json:"id"`
	X        float32     `json:"x"`
	Y        float32     `json:"y"`
	Rotation float32     `json:"rotation,omitempty"`
	Kind     ContentKind `json:"kind"`
	Shape    *Shape      `json:"shape,omitempty"`
	Note     *Note       `json:"note,omitempty"`
	Text     *TextBlock  `json:"text,omitempty"`
	Table    *Table      `json:"table,omitempty"`
	Group    *groupWire  `json:"group,omitempty"`
}

type groupWire struct {
	Name       string  `json:"name"`
	Children   []*Item `json:"children"`
	ViewAsGrid bool    `json:"view_as_grid,omitempty"`
}

func (it *Item) MarshalJSON() ([]byte, error) {
	w := itemWire{ID: it.ID, X: it.X, Y: it.Y, Rotation: it.Rotation}
	switch c := it.Content.(type) {
	case *Shape:
		w.Kind, w.Shape = KindShape, c
	case *Note:
		w.Kind, w.Note = KindNote, c
	case *TextBlock:
		w.Kind, w.Text = KindText, c
	case *Table:
		w.Kind, w.Table = KindTable, c
	case *Group:
		w.Kind = KindGroup
		w.Group = &groupWire{Name: c.Name, Children: c.Children, ViewAsGrid: c.ViewAsGrid}
	default:
		return nil, fmt.Errorf("item %s: unknown content %T", it.ID, it.Content)
	}
	return json.Marshal(w)
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var w itemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	it.ID = w.ID
	it.X = w.X
	it.Y = w.Y
	it.Rotation = w.Rotation
	switch w.Kind {
	case KindShape:
		if w.Shape == nil {
			w.Shape = &Shape{}
		}
		it.Content = w.Shape
	case KindNote:
		if w.Note == nil {
			w.Note = &Note{}
		}
		it.Content = w.Note
	case KindText:
		if w.Text == nil {
			w.Text = &TextBlock{}
		}
		it.Content = w.Text
	case KindTable:
		if w.Table == nil {
			w.Table = &Table{}
		}
		it.Content = w.Table
	case KindGroup:
		g := &Group{}
		if w.Group != nil {
			g.Name = w.Group.Name
			g.Children = w.Group.Children
			g.ViewAsGrid = w.Group.ViewAsGrid
		}
		if g.Children == nil {
			g.Children = []*Item{}
		}
		it.Content = g
	default:
		return fmt.Errorf("item %s: unknown content kind %q", w.ID, w.Kind)
	}
	return nil
}
