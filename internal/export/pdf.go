package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/state"
)

// canvas pixels to page millimeters
const pdfScale = 3

// ExportPDF renders the persisted document onto a single A4 page.
// Ephemeral gesture state is deliberately ignored; only committed
// geometry is exported.
func ExportPDF(w io.Writer, doc *state.Document) error {
	p := gofpdf.New("L", "mm", "A4", "")
	p.AddPage()
	p.SetFont("Helvetica", "", 9)
	p.SetDrawColor(60, 60, 60)
	p.SetLineWidth(0.4)

	for _, it := range doc.Roots() {
		if g, ok := it.Content.(*state.Group); ok {
			origin := geom.Point{X: it.X, Y: it.Y}
			for _, child := range g.Children {
				off := state.ChildOffset(g, child)
				drawItem(p, child, origin.Add(off))
			}
			bounds := state.GroupBounds(g, origin, nil, true)
			p.SetDashPattern([]float64{1.5, 1.5}, 0)
			p.Rect(mm(bounds.X), mm(bounds.Y), mm(bounds.Width), mm(bounds.Height), "D")
			p.SetDashPattern(nil, 0)
			continue
		}
		drawItem(p, it, geom.Point{X: it.X, Y: it.Y})
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func mm(v float32) float64 {
	return float64(v) / pdfScale
}

func drawItem(p *gofpdf.Fpdf, it *state.Item, pos geom.Point) {
	switch c := it.Content.(type) {
	case *state.Shape:
		if c.Form == state.ShapeEllipse {
			r := mm(c.Size) / 2
			p.Ellipse(mm(pos.X)+r, mm(pos.Y)+r, r, r, 0, "D")
		} else {
			p.Rect(mm(pos.X), mm(pos.Y), mm(c.Size), mm(c.Size), "D")
		}

	case *state.Note:
		p.SetFillColor(255, 241, 118)
		p.Rect(mm(pos.X), mm(pos.Y), mm(c.Size), mm(c.Size), "FD")
		p.Text(mm(pos.X)+2, mm(pos.Y)+5, c.Text)

	case *state.TextBlock:
		p.Text(mm(pos.X), mm(pos.Y)+4, c.Text)

	case *state.Table:
		w, h := c.BaseSize()
		p.Rect(mm(pos.X), mm(pos.Y), mm(w), mm(h), "D")
		for row := 1; row < c.Rows; row++ {
			y := mm(pos.Y + float32(row)*c.CellHeight)
			p.Line(mm(pos.X), y, mm(pos.X+w), y)
		}
		for col := 1; col < c.Cols; col++ {
			x := mm(pos.X + float32(col)*c.CellWidth)
			p.Line(x, mm(pos.Y), x, mm(pos.Y+h))
		}
	}
}
