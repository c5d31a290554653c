package ui

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/gesture"
	"LocalCanvas/internal/presence"
	"LocalCanvas/internal/state"
)

const (
	minZoom float32 = 0.25
	maxZoom float32 = 3.0

	rotateHandleOffset float32 = 24
	handleRadius       float32 = 7
	edgeHandleWidth    float32 = 8
)

// CanvasWidget is the interactive board surface: it renders items with
// any ephemeral overrides applied and feeds pointer input into the
// gesture controllers.
type CanvasWidget struct {
	widget.BaseWidget

	env       *gesture.Env
	doc       *state.Document
	resolver  *state.Resolver
	session   *gesture.Session
	cache     *state.LayoutCache
	selection *presence.Channel[presence.Selection]

	mu          sync.Mutex
	pan         geom.Point
	zoom        float32
	selected    map[string]bool
	controllers map[string]*gesture.Controller
	active      *pointerStream
	panning     bool
	panMoved    bool

	statusBar *widget.Label
}

var _ fyne.Widget = (*CanvasWidget)(nil)
var _ fyne.Draggable = (*CanvasWidget)(nil)
var _ fyne.Scrollable = (*CanvasWidget)(nil)
var _ desktop.Mouseable = (*CanvasWidget)(nil)

// NewCanvasWidget wires a board view around a prepared gesture
// environment. The widget installs its own viewport, origin, and click
// handling into env.
func NewCanvasWidget(env *gesture.Env, selection *presence.Channel[presence.Selection]) *CanvasWidget {
	w := &CanvasWidget{
		env:         env,
		doc:         env.Doc,
		resolver:    env.Resolver,
		session:     env.Session,
		cache:       env.Resolver.Cache,
		selection:   selection,
		zoom:        1,
		selected:    make(map[string]bool),
		controllers: make(map[string]*gesture.Controller),
		statusBar:   widget.NewLabel("Ready"),
	}
	env.Viewport = w.viewport
	// event positions are already widget-local, so the origin is zero;
	// this is also the documented degraded-layout fallback
	env.Origin = func() geom.Rect { return geom.Rect{} }
	env.OnClick = w.handleItemClick
	w.ExtendBaseWidget(w)
	return w
}

func (w *CanvasWidget) StatusBar() *widget.Label {
	return w.statusBar
}

func (w *CanvasWidget) SetStatus(text string) {
	fyne.Do(func() { w.statusBar.SetText(text) })
}

func (w *CanvasWidget) viewport() geom.Viewport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return geom.Viewport{Pan: w.pan, Zoom: w.zoom}
}

func (w *CanvasWidget) toScreen(p geom.Point) fyne.Position {
	vp := w.viewport()
	return fyne.NewPos(p.X*vp.Zoom+vp.Pan.X, p.Y*vp.Zoom+vp.Pan.Y)
}

func (w *CanvasWidget) controller(itemID string) *gesture.Controller {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.controllers[itemID]
	if !ok {
		c = gesture.NewController(w.env, itemID)
		w.controllers[itemID] = c
	}
	return c
}

// --- pointer input ---

func (w *CanvasWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	screen := geom.Point{X: e.Position.X, Y: e.Position.Y}
	hit := w.hitTest(screen)

	if hit.region == hitNone {
		// background press: pan, unless a gesture owns the pointer
		if !w.session.Manipulating() {
			w.mu.Lock()
			w.panning = true
			w.panMoved = false
			w.mu.Unlock()
		}
		return
	}

	stream := &pointerStream{last: screen}
	c := w.controller(hit.itemID)
	started := false
	switch hit.region {
	case hitBody:
		started = c.StartDrag(stream, screen, gesture.SlotMouse, gesture.PressOptions{})
	case hitRotate:
		started = c.StartRotate(stream, screen, gesture.SlotMouse)
	case hitResize:
		started = c.StartResize(stream, screen, gesture.SlotMouse, gesture.EdgeRight)
	case hitResizeLeft:
		started = c.StartResize(stream, screen, gesture.SlotMouse, gesture.EdgeLeft)
	case hitResizeRight:
		started = c.StartResize(stream, screen, gesture.SlotMouse, gesture.EdgeRight)
	}
	if started {
		w.mu.Lock()
		w.active = stream
		w.mu.Unlock()
	}
}

func (w *CanvasWidget) Dragged(e *fyne.DragEvent) {
	w.mu.Lock()
	stream := w.active
	panning := w.panning
	w.mu.Unlock()

	if stream != nil {
		stream.forwardMove(geom.Point{X: e.Position.X, Y: e.Position.Y})
		w.Refresh()
		return
	}
	if panning {
		w.mu.Lock()
		w.pan.X += e.Dragged.DX
		w.pan.Y += e.Dragged.DY
		w.panMoved = true
		w.mu.Unlock()
		w.Refresh()
	}
}

func (w *CanvasWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	w.mu.Lock()
	stream := w.active
	w.active = nil
	panning := w.panning
	panMoved := w.panMoved
	w.panning = false
	w.mu.Unlock()

	if stream != nil {
		stream.forwardEnd(geom.Point{X: e.Position.X, Y: e.Position.Y})
		w.Refresh()
		return
	}

	// background click: deselect, unless the pointer-up that just ended a
	// drag armed the suppression marker, or this was a pan
	if panning && panMoved {
		return
	}
	if w.session.ConsumeSuppressedClick() {
		return
	}
	w.clearSelection()
}

// DragEnd only concludes panning; gesture ends ride on MouseUp, which
// fyne delivers with the release position.
func (w *CanvasWidget) DragEnd() {
	w.mu.Lock()
	stream := w.active
	w.active = nil
	w.panning = false
	w.mu.Unlock()
	if stream != nil {
		// release happened without a MouseUp (focus stolen mid-gesture);
		// commit from the last known position
		stream.forwardEndAtLast()
		w.Refresh()
	}
}

func (w *CanvasWidget) Scrolled(e *fyne.ScrollEvent) {
	w.mu.Lock()
	if e.Scrolled.DY > 0 {
		w.zoom *= 1.1
	} else {
		w.zoom /= 1.1
	}
	if w.zoom < minZoom {
		w.zoom = minZoom
	}
	if w.zoom > maxZoom {
		w.zoom = maxZoom
	}
	w.mu.Unlock()
	w.Refresh()
}

// --- selection ---

func (w *CanvasWidget) handleItemClick(itemID string) {
	w.mu.Lock()
	w.selected = map[string]bool{itemID: true}
	w.mu.Unlock()
	w.publishSelection()
	w.Refresh()
}

func (w *CanvasWidget) clearSelection() {
	w.mu.Lock()
	changed := len(w.selected) > 0
	w.selected = make(map[string]bool)
	w.mu.Unlock()
	if changed {
		w.publishSelection()
		w.Refresh()
	}
}

func (w *CanvasWidget) publishSelection() {
	w.mu.Lock()
	ids := make([]string, 0, len(w.selected))
	for id := range w.selected {
		ids = append(ids, id)
	}
	w.mu.Unlock()
	if len(ids) == 0 {
		w.selection.Clear()
		return
	}
	w.selection.Publish(presence.Selection{ItemIDs: ids})
}

func (w *CanvasWidget) isSelected(itemID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected[itemID]
}

// SelectedIDs returns the current local selection.
func (w *CanvasWidget) SelectedIDs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.selected))
	for id := range w.selected {
		ids = append(ids, id)
	}
	return ids
}

// --- toolbar actions ---

// viewCenter is the canvas point at the middle of the visible area, where
// new items are placed.
func (w *CanvasWidget) viewCenter() geom.Point {
	size := w.Size()
	vp := w.viewport()
	return geom.ToCanvas(geom.Point{X: size.Width / 2, Y: size.Height / 2}, geom.Rect{}, vp)
}

func (w *CanvasWidget) AddShape(form state.ShapeForm) {
	c := w.viewCenter()
	it := &state.Item{
		ID: state.NewItemID(), X: c.X - 50, Y: c.Y - 50,
		Content: &state.Shape{Form: form, Size: 100, Fill: "blue"},
	}
	w.addItem(it)
}

func (w *CanvasWidget) AddNote(text string) {
	c := w.viewCenter()
	it := &state.Item{
		ID: state.NewItemID(), X: c.X - 60, Y: c.Y - 60,
		Content: &state.Note{Text: text, Size: 120},
	}
	w.addItem(it)
}

func (w *CanvasWidget) AddTextBlock(text string) {
	c := w.viewCenter()
	it := &state.Item{
		ID: state.NewItemID(), X: c.X - 70, Y: c.Y,
		Content: &state.TextBlock{Text: text, Width: 140},
	}
	w.addItem(it)
}

func (w *CanvasWidget) AddTable(rows, cols int) {
	c := w.viewCenter()
	it := &state.Item{
		ID: state.NewItemID(), X: c.X - 90, Y: c.Y - 40,
		Content: &state.Table{Rows: rows, Cols: cols, CellWidth: 60, CellHeight: 28},
	}
	w.addItem(it)
}

func (w *CanvasWidget) addItem(it *state.Item) {
	if err := w.doc.AddItem(it); err != nil {
		w.SetStatus(fmt.Sprintf("Add failed: %v", err))
		return
	}
	w.handleItemClick(it.ID)
}

// GroupSelected folds the current selection into a new group.
func (w *CanvasWidget) GroupSelected() {
	ids := w.SelectedIDs()
	if len(ids) == 0 {
		w.SetStatus("Nothing selected to group")
		return
	}
	name := fmt.Sprintf("Group %d", len(w.doc.Roots())+1)
	groupID, err := w.doc.GroupItems(name, ids)
	if err != nil {
		w.SetStatus(fmt.Sprintf("Group failed: %v", err))
		return
	}
	w.handleItemClick(groupID)
}

// ToggleGridView flips the selected group between free and grid layout.
func (w *CanvasWidget) ToggleGridView() {
	for _, id := range w.SelectedIDs() {
		it, ok := w.doc.Get(id)
		if !ok {
			continue
		}
		if g, isGroup := it.Content.(*state.Group); isGroup {
			if err := w.doc.SetGridView(id, !g.ViewAsGrid); err != nil {
				w.SetStatus(fmt.Sprintf("Grid view failed: %v", err))
			}
			return
		}
	}
	w.SetStatus("Select a group to toggle grid view")
}
