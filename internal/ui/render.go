package ui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"

	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/state"
)

type hitRegion int

const (
	hitNone hitRegion = iota
	hitBody
	hitRotate
	hitResize      // uniform corner handle
	hitResizeLeft  // text width handle, left edge
	hitResizeRight // text width handle, right edge
)

type hitResult struct {
	itemID string
	region hitRegion
}

// displaySize is the rendered extent of an item after any ephemeral
// override: the primary dimension comes from the display, the secondary
// from the content's aspect.
func displaySize(c state.Content, d state.Display) (float32, float32) {
	w, h := c.BaseSize()
	switch c.ResizeMode() {
	case state.ResizeUniform:
		return d.Size, d.Size
	case state.ResizeWidth:
		return d.Size, h
	}
	return w, h
}

func displayRect(it *state.Item, d state.Display) geom.Rect {
	w, h := displaySize(it.Content, d)
	return geom.Rect{X: d.Pos.X, Y: d.Pos.Y, Width: w, Height: h}
}

// hitTest maps a widget-local pointer position to the topmost item region
// under it. Handles of the selected item take priority over bodies, and
// later (topmost) roots win.
func (w *CanvasWidget) hitTest(screen geom.Point) hitResult {
	vp := w.viewport()
	cp := geom.ToCanvas(screen, geom.Rect{}, vp)
	// handle extents are screen-constant, so shrink them in canvas space
	hr := handleRadius / vp.Zoom
	ew := edgeHandleWidth / vp.Zoom

	roots := w.doc.Roots()
	for i := len(roots) - 1; i >= 0; i-- {
		it := roots[i]
		if g, isGroup := it.Content.(*state.Group); isGroup {
			outline := w.resolver.GroupOutline(it, g)
			for j := len(g.Children) - 1; j >= 0; j-- {
				child := g.Children[j]
				cd := w.resolver.ResolveChild(it, g, child)
				rect := displayRect(child, cd)
				if region, ok := w.handleHit(child, rect, cp, hr, ew); ok {
					return hitResult{itemID: child.ID, region: region}
				}
				if rect.Contains(cp) {
					return hitResult{itemID: child.ID, region: hitBody}
				}
			}
			if outline.Contains(cp) {
				return hitResult{itemID: it.ID, region: hitBody}
			}
			continue
		}

		d := w.resolver.ResolveRoot(it)
		rect := displayRect(it, d)
		if region, ok := w.handleHit(it, rect, cp, hr, ew); ok {
			return hitResult{itemID: it.ID, region: region}
		}
		if rect.Contains(cp) {
			return hitResult{itemID: it.ID, region: hitBody}
		}
	}
	return hitResult{region: hitNone}
}

// handleHit tests the rotate and resize handles that decorate the
// selected item.
func (w *CanvasWidget) handleHit(it *state.Item, rect geom.Rect, cp geom.Point, hr, ew float32) (hitRegion, bool) {
	if !w.isSelected(it.ID) {
		return hitNone, false
	}
	vp := w.viewport()

	if it.Content.CanRotate() {
		handle := geom.Point{X: rect.Center().X, Y: rect.Y - rotateHandleOffset/vp.Zoom}
		dx, dy := cp.X-handle.X, cp.Y-handle.Y
		if dx*dx+dy*dy <= hr*hr {
			return hitRotate, true
		}
	}

	switch it.Content.ResizeMode() {
	case state.ResizeUniform:
		corner := geom.Rect{
			X: rect.X + rect.Width - hr, Y: rect.Y + rect.Height - hr,
			Width: 2 * hr, Height: 2 * hr,
		}
		if corner.Contains(cp) {
			return hitResize, true
		}
	case state.ResizeWidth:
		left := geom.Rect{X: rect.X - ew/2, Y: rect.Y, Width: ew, Height: rect.Height}
		if left.Contains(cp) {
			return hitResizeLeft, true
		}
		right := geom.Rect{X: rect.X + rect.Width - ew/2, Y: rect.Y, Width: ew, Height: rect.Height}
		if right.Contains(cp) {
			return hitResizeRight, true
		}
	}
	return hitNone, false
}

// --- renderer ---

var (
	backgroundColor = color.NRGBA{R: 0xfa, G: 0xfa, B: 0xf8, A: 0xff}
	noteColor       = color.NRGBA{R: 0xff, G: 0xf1, B: 0x76, A: 0xff}
	outlineColor    = color.NRGBA{R: 0x90, G: 0x90, B: 0x90, A: 0xff}
	selectColor     = color.NRGBA{R: 0x1e, G: 0x88, B: 0xe5, A: 0xff}
	remoteColor     = color.NRGBA{R: 0xfb, G: 0x8c, B: 0x00, A: 0xff}
)

func fillColor(name string) color.Color {
	switch name {
	case "red":
		return color.NRGBA{R: 0xef, G: 0x53, B: 0x50, A: 0xff}
	case "green":
		return color.NRGBA{R: 0x66, G: 0xbb, B: 0x6a, A: 0xff}
	case "yellow":
		return noteColor
	case "blue":
		return color.NRGBA{R: 0x42, G: 0xa5, B: 0xf5, A: 0xff}
	default:
		return color.NRGBA{R: 0xb0, G: 0xbe, B: 0xc5, A: 0xff}
	}
}

func (w *CanvasWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardRenderer{
		board:      w,
		background: canvas.NewRectangle(backgroundColor),
	}
	r.rebuild()
	return r
}

type boardRenderer struct {
	board      *CanvasWidget
	background *canvas.Rectangle
	objects    []fyne.CanvasObject
}

func (r *boardRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *boardRenderer) Destroy()                     {}

func (r *boardRenderer) MinSize() fyne.Size {
	return fyne.NewSize(480, 360)
}

func (r *boardRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
}

func (r *boardRenderer) Refresh() {
	r.rebuild()
	for _, o := range r.objects {
		o.Refresh()
	}
}

func (r *boardRenderer) rebuild() {
	w := r.board
	r.background.Resize(w.Size())
	objs := []fyne.CanvasObject{r.background}

	for _, it := range w.doc.Roots() {
		if g, isGroup := it.Content.(*state.Group); isGroup {
			objs = r.renderGroup(objs, it, g)
			continue
		}
		d := w.resolver.ResolveRoot(it)
		rect := displayRect(it, d)
		w.cache.SetMeasured(it.ID, rect)
		objs = r.renderContent(objs, it, d, rect)
		objs = r.renderDecorations(objs, it, d, rect)
	}

	r.objects = objs
}

func (r *boardRenderer) renderGroup(objs []fyne.CanvasObject, it *state.Item, g *state.Group) []fyne.CanvasObject {
	w := r.board
	vp := w.viewport()

	for _, child := range g.Children {
		cd := w.resolver.ResolveChild(it, g, child)
		rect := displayRect(child, cd)
		w.cache.SetMeasured(child.ID, rect)
		objs = r.renderContent(objs, child, cd, rect)
		objs = r.renderDecorations(objs, child, cd, rect)
	}

	outline := w.resolver.GroupOutline(it, g)
	w.cache.SetMeasured(it.ID, outline)

	box := canvas.NewRectangle(color.Transparent)
	box.StrokeColor = outlineColor
	if w.isSelected(it.ID) {
		box.StrokeColor = selectColor
	} else if w.resolver.Manipulated(it.ID) {
		box.StrokeColor = remoteColor
	}
	box.StrokeWidth = 1.5
	box.Move(w.toScreen(outline.TopLeft()))
	box.Resize(fyne.NewSize(outline.Width*vp.Zoom, outline.Height*vp.Zoom))
	objs = append(objs, box)

	name := g.Name
	if g.ViewAsGrid {
		name += " (grid)"
	}
	label := canvas.NewText(name, outlineColor)
	label.TextSize = theme.CaptionTextSize()
	label.Move(w.toScreen(geom.Point{X: outline.X, Y: outline.Y - 18/vp.Zoom}))
	objs = append(objs, label)

	return objs
}

func (r *boardRenderer) renderContent(objs []fyne.CanvasObject, it *state.Item, d state.Display, rect geom.Rect) []fyne.CanvasObject {
	w := r.board
	vp := w.viewport()
	pos := w.toScreen(rect.TopLeft())
	size := fyne.NewSize(rect.Width*vp.Zoom, rect.Height*vp.Zoom)

	switch c := it.Content.(type) {
	case *state.Shape:
		if c.Form == state.ShapeEllipse {
			circle := canvas.NewCircle(fillColor(c.Fill))
			circle.Move(pos)
			circle.Resize(size)
			objs = append(objs, circle)
		} else {
			box := canvas.NewRectangle(fillColor(c.Fill))
			box.Move(pos)
			box.Resize(size)
			objs = append(objs, box)
		}

	case *state.Note:
		box := canvas.NewRectangle(noteColor)
		box.StrokeColor = outlineColor
		box.StrokeWidth = 1
		box.Move(pos)
		box.Resize(size)
		objs = append(objs, box)
		text := canvas.NewText(c.Text, color.Black)
		text.TextSize = theme.TextSize() * vp.Zoom
		text.Move(fyne.NewPos(pos.X+4, pos.Y+4))
		objs = append(objs, text)

	case *state.TextBlock:
		text := canvas.NewText(c.Text, color.Black)
		text.TextSize = theme.TextSize() * vp.Zoom
		text.Move(pos)
		objs = append(objs, text)

	case *state.Table:
		objs = append(objs, r.tableObjects(c, pos, size, vp.Zoom)...)
	}

	return objs
}

func (r *boardRenderer) tableObjects(t *state.Table, pos fyne.Position, size fyne.Size, zoom float32) []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, t.Rows+t.Cols+1)

	outer := canvas.NewRectangle(color.White)
	outer.StrokeColor = outlineColor
	outer.StrokeWidth = 1
	outer.Move(pos)
	outer.Resize(size)
	objs = append(objs, outer)

	for row := 1; row < t.Rows; row++ {
		line := canvas.NewLine(outlineColor)
		y := pos.Y + float32(row)*t.CellHeight*zoom
		line.Position1 = fyne.NewPos(pos.X, y)
		line.Position2 = fyne.NewPos(pos.X+size.Width, y)
		objs = append(objs, line)
	}
	for col := 1; col < t.Cols; col++ {
		line := canvas.NewLine(outlineColor)
		x := pos.X + float32(col)*t.CellWidth*zoom
		line.Position1 = fyne.NewPos(x, pos.Y)
		line.Position2 = fyne.NewPos(x, pos.Y+size.Height)
		objs = append(objs, line)
	}
	return objs
}

// renderDecorations draws the selection outline, the manipulation
// highlight for items a remote peer is moving, and the gesture handles.
func (r *boardRenderer) renderDecorations(objs []fyne.CanvasObject, it *state.Item, d state.Display, rect geom.Rect) []fyne.CanvasObject {
	w := r.board
	vp := w.viewport()
	selected := w.isSelected(it.ID)

	if !selected && !d.Manipulated {
		return objs
	}

	pos := w.toScreen(rect.TopLeft())
	size := fyne.NewSize(rect.Width*vp.Zoom, rect.Height*vp.Zoom)

	frame := canvas.NewRectangle(color.Transparent)
	frame.StrokeWidth = 2
	if selected {
		frame.StrokeColor = selectColor
	} else {
		frame.StrokeColor = remoteColor
	}
	frame.Move(pos)
	frame.Resize(size)
	objs = append(objs, frame)

	if d.Rotation != 0 {
		// canvas primitives do not rotate; show the angle next to the frame
		angle := canvas.NewText(fmt.Sprintf("%.0f°", d.Rotation), frame.StrokeColor)
		angle.TextSize = theme.CaptionTextSize()
		angle.Move(fyne.NewPos(pos.X+size.Width+4, pos.Y))
		objs = append(objs, angle)
	}

	if !selected {
		return objs
	}

	if it.Content.CanRotate() {
		knob := canvas.NewCircle(selectColor)
		knob.Move(fyne.NewPos(pos.X+size.Width/2-handleRadius, pos.Y-rotateHandleOffset-handleRadius))
		knob.Resize(fyne.NewSize(2*handleRadius, 2*handleRadius))
		objs = append(objs, knob)
	}

	switch it.Content.ResizeMode() {
	case state.ResizeUniform:
		grip := canvas.NewRectangle(selectColor)
		grip.Move(fyne.NewPos(pos.X+size.Width-handleRadius, pos.Y+size.Height-handleRadius))
		grip.Resize(fyne.NewSize(2*handleRadius, 2*handleRadius))
		objs = append(objs, grip)
	case state.ResizeWidth:
		for _, x := range []float32{pos.X - edgeHandleWidth/2, pos.X + size.Width - edgeHandleWidth/2} {
			grip := canvas.NewRectangle(selectColor)
			grip.Move(fyne.NewPos(x, pos.Y))
			grip.Resize(fyne.NewSize(edgeHandleWidth, size.Height))
			objs = append(objs, grip)
		}
	}

	return objs
}
