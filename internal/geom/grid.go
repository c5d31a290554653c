package geom

// GridConfig describes the deterministic cell layout a group uses when it
// is viewed as a grid. Cell placement is a pure function of a child's
// index among its siblings.
type GridConfig struct {
	Columns    int
	CellWidth  float32
	CellHeight float32
	GapX       float32
	GapY       float32
	Padding    float32
}

// DefaultGrid is the layout every grid-view group shares.
var DefaultGrid = GridConfig{
	Columns:    3,
	CellWidth:  120,
	CellHeight: 120,
	GapX:       12,
	GapY:       12,
	Padding:    16,
}

// CellOrigin returns the offset of cell index relative to the group
// origin. Negative indexes are treated as zero.
func (g GridConfig) CellOrigin(index int) Point {
	if index < 0 {
		index = 0
	}
	cols := g.Columns
	if cols < 1 {
		cols = 1
	}
	col := index % cols
	row := index / cols
	return Point{
		X: g.Padding + float32(col)*(g.CellWidth+g.GapX),
		Y: g.Padding + float32(row)*(g.CellHeight+g.GapY),
	}
}

// Extent returns the overall size of a grid holding n children, used for
// the group's bounding box in grid view.
func (g GridConfig) Extent(n int) (float32, float32) {
	if n <= 0 {
		return 2 * g.Padding, 2 * g.Padding
	}
	cols := g.Columns
	if cols < 1 {
		cols = 1
	}
	if n < cols {
		cols = n
	}
	rows := (n + g.Columns - 1) / g.Columns
	w := 2*g.Padding + float32(cols)*g.CellWidth + float32(cols-1)*g.GapX
	h := 2*g.Padding + float32(rows)*g.CellHeight + float32(rows-1)*g.GapY
	return w, h
}
