package gesture

import (
	"log"

	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/presence"
	"LocalCanvas/internal/state"
)

// Kind selects what an active gesture manipulates.
type Kind int

const (
	KindDrag Kind = iota
	KindRotate
	KindResize
)

// Edge identifies which side a width-resize grabbed.
type Edge int

const (
	EdgeRight Edge = iota
	EdgeLeft
)

type phase int

const (
	phaseIdle phase = iota
	phaseArmed
	phaseActive
)

// dragThresholdPx is how far, in screen pixels, a pointer must travel
// before a press becomes a gesture; below it the press is a click. The
// threshold doubles when the press landed on an embedded interactive
// control, to avoid accidental drags while using in-item editors.
const dragThresholdPx float32 = 4

// Env is the shared wiring every controller on a board view uses.
type Env struct {
	Session    *Session
	Arbiter    *Arbiter
	Doc        *state.Document
	Resolver   *state.Resolver
	Reconciler *state.Reconciler
	Drag       *presence.Channel[presence.DragState]
	Resize     *presence.Channel[presence.ResizeState]
	Viewport   func() geom.Viewport
	// Origin is the board element's screen bounds. Implementations that
	// cannot measure it return a zero rect; gestures still work.
	Origin func() geom.Rect
	// Branch tags published drag state with the document branch the
	// gesture was based on.
	Branch string
	// OnClick receives presses that never crossed the drag threshold.
	OnClick func(itemID string)
}

// PressOptions qualify a pointer-down.
type PressOptions struct {
	// OnChildControl is set when the press target was itself an
	// interactive embedded control; the drag threshold doubles.
	OnChildControl bool
}

// Controller runs the pointer lifecycle for one interactive item:
// Idle -> Armed (pointer-down) -> Active (threshold crossed) ->
// commit on release -> Idle. All event handling is synchronous on the
// UI thread; the only cross-thread caller is Arbiter cancellation,
// which funnels through cancel().
type Controller struct {
	env    *Env
	itemID string

	phase     phase
	kind      Kind
	edge      Edge
	handle    *Handle
	threshold float32

	originScreen geom.Point
	originCanvas geom.Point
	startPos     geom.Point // displayed absolute position at gesture start
	startRot     float32
	startSize    float32
	resizeMode   state.ResizeMode
	center       geom.Point // canvas-space item center (rotate/resize)
	parentID     string
	parentOrigin geom.Point // parent group display origin at gesture start
	gridChild    bool
}

func NewController(env *Env, itemID string) *Controller {
	return &Controller{env: env, itemID: itemID}
}

func (c *Controller) ItemID() string {
	return c.itemID
}

// StartDrag arms a drag gesture on pointer-down. Returns false when the
// press cannot become a drag (unknown item, or a grid-view child, whose
// position is owned by the grid).
func (c *Controller) StartDrag(ps PointerSession, screen geom.Point, slot Slot, opts PressOptions) bool {
	if !c.arm(ps, screen, slot, opts) {
		return false
	}
	if c.gridChild {
		c.finish(false)
		return false
	}
	c.kind = KindDrag
	return true
}

// StartRotate arms a rotation gesture from the rotate handle.
func (c *Controller) StartRotate(ps PointerSession, screen geom.Point, slot Slot) bool {
	if !c.arm(ps, screen, slot, PressOptions{}) {
		return false
	}
	it, ok := c.env.Doc.Get(c.itemID)
	if !ok || !it.Content.CanRotate() {
		c.finish(false)
		return false
	}
	c.kind = KindRotate
	return true
}

// StartResize arms a resize gesture from a corner or edge handle.
func (c *Controller) StartResize(ps PointerSession, screen geom.Point, slot Slot, edge Edge) bool {
	if !c.arm(ps, screen, slot, PressOptions{}) {
		return false
	}
	if c.resizeMode == state.ResizeNone {
		c.finish(false)
		return false
	}
	c.kind = KindResize
	c.edge = edge
	return true
}

// arm performs the Idle -> Armed transition shared by all gesture kinds:
// occupy the arbiter slot, snapshot the item's displayed geometry, and
// wire the pointer session. Nothing is published yet, so a plain click
// stays a click.
func (c *Controller) arm(ps PointerSession, screen geom.Point, slot Slot, opts PressOptions) bool {
	it, ok := c.env.Doc.Get(c.itemID)
	if !ok {
		return false
	}

	c.handle = c.env.Arbiter.Begin(slot, c.cancel)
	c.phase = phaseArmed
	c.threshold = dragThresholdPx
	if opts.OnChildControl {
		c.threshold *= 2
	}

	c.originScreen = screen
	c.originCanvas = c.toCanvas(screen)
	c.resizeMode = it.Content.ResizeMode()
	c.startSize = state.PrimarySize(it.Content)

	c.parentID = c.env.Doc.ParentOf(c.itemID)
	c.gridChild = false
	if c.parentID != "" {
		parent, ok := c.env.Doc.Get(c.parentID)
		if ok {
			if g, isGroup := parent.Content.(*state.Group); isGroup {
				pd := c.env.Resolver.ResolveRoot(parent)
				c.parentOrigin = pd.Pos
				c.gridChild = g.ViewAsGrid
				if idx := g.IndexOf(c.itemID); idx >= 0 {
					d := c.env.Resolver.ResolveChild(parent, g, g.Children[idx])
					c.startPos = d.Pos
					c.startRot = d.Rotation
				}
			}
		}
	} else {
		d := c.env.Resolver.ResolveRoot(it)
		c.startPos = d.Pos
		c.startRot = d.Rotation
	}

	w, h := it.Content.BaseSize()
	c.center = geom.Point{X: c.startPos.X + w/2, Y: c.startPos.Y + h/2}

	ps.OnMove(c.pointerMove)
	ps.OnEnd(c.pointerUp)
	ps.OnCancel(func() { c.cancel() })
	ps.Capture()
	return true
}

func (c *Controller) pointerMove(screen geom.Point) {
	switch c.phase {
	case phaseArmed:
		dx := screen.X - c.originScreen.X
		dy := screen.Y - c.originScreen.Y
		if dx*dx+dy*dy < c.threshold*c.threshold {
			return
		}
		c.phase = phaseActive
		c.env.Session.BeginManipulation(c.itemID)
		c.publish(screen)
	case phaseActive:
		c.publish(screen)
	}
}

// publish streams the current gesture value into the presence channel.
func (c *Controller) publish(screen geom.Point) {
	switch c.kind {
	case KindDrag:
		delta := geom.CanvasDelta(c.originScreen, screen, c.env.Origin(), c.env.Viewport())
		pos := c.startPos.Add(delta)
		c.env.Drag.Publish(presence.DragState{
			ItemID:       c.itemID,
			X:            pos.X,
			Y:            pos.Y,
			Rotation:     c.startRot, // rotation unchanged during a pure drag
			OriginBranch: c.env.Branch,
		})

	case KindRotate:
		rot := geom.RotationFromPointer(c.center, c.toCanvas(screen))
		c.env.Drag.Publish(presence.DragState{
			ItemID:       c.itemID,
			X:            c.startPos.X,
			Y:            c.startPos.Y,
			Rotation:     rot,
			OriginBranch: c.env.Branch,
		})

	case KindResize:
		c.publishResize(screen)
	}
}

func (c *Controller) publishResize(screen geom.Point) {
	switch c.resizeMode {
	case state.ResizeUniform:
		ratio := geom.RadialResizeRatio(c.center, c.originCanvas, c.toCanvas(screen))
		size, topLeft := geom.ResizeAboutCenter(c.center, c.startSize, ratio)
		c.env.Resize.Publish(presence.ResizeState{
			ItemID: c.itemID, X: topLeft.X, Y: topLeft.Y, Size: size,
		})

	case state.ResizeWidth:
		delta := geom.CanvasDelta(c.originScreen, screen, c.env.Origin(), c.env.Viewport())
		x := c.startPos.X
		var width float32
		if c.edge == EdgeRight {
			width = geom.ClampSize(c.startSize + delta.X)
		} else {
			// resizing from the left edge shifts the origin so the right
			// edge stays anchored
			width = geom.ClampSize(c.startSize - delta.X)
			x = c.startPos.X + (c.startSize - width)
		}
		c.env.Resize.Publish(presence.ResizeState{
			ItemID: c.itemID, X: x, Y: c.startPos.Y, Size: width,
		})
	}
}

func (c *Controller) pointerUp(screen geom.Point) {
	switch c.phase {
	case phaseArmed:
		// never crossed the threshold: a click, not a gesture
		if c.env.OnClick != nil {
			c.env.OnClick(c.itemID)
		}
		c.finish(false)
	case phaseActive:
		c.commit()
		c.finish(true)
	}
}

// commit reads the last published ephemeral value and hands it to the
// reconciler. A rejected write is logged and surfaced through the
// document's error path; the gesture still terminates cleanly.
func (c *Controller) commit() {
	switch c.kind {
	case KindDrag, KindRotate:
		v, ok := c.env.Drag.Local()
		if !ok || v.ItemID != c.itemID {
			return
		}
		pos := c.toStored(geom.Point{X: v.X, Y: v.Y})
		if err := c.env.Reconciler.CommitMove(c.itemID, pos, v.Rotation); err != nil {
			log.Printf("[GESTURE] commit move failed: %v", err)
		}
	case KindResize:
		v, ok := c.env.Resize.Local()
		if !ok || v.ItemID != c.itemID {
			return
		}
		pos := c.toStored(geom.Point{X: v.X, Y: v.Y})
		if err := c.env.Reconciler.CommitResize(c.itemID, pos, v.Size); err != nil {
			log.Printf("[GESTURE] commit resize failed: %v", err)
		}
	}
}

// toStored converts a displayed absolute position into the value the
// document stores: grouped children persist offsets relative to their
// container.
func (c *Controller) toStored(abs geom.Point) geom.Point {
	if c.parentID == "" {
		return abs
	}
	return abs.Sub(c.parentOrigin)
}

// cancel is invoked by the arbiter when a newer gesture supersedes this
// one, and by pointer-cancel. It releases everything without committing.
func (c *Controller) cancel() {
	if c.phase == phaseIdle {
		return
	}
	c.finish(false)
}

// finish is the single terminal cleanup for every exit path: clear the
// ephemeral channel, release the manipulating flag and arbiter slot, and
// optionally arm the background-click suppression marker.
func (c *Controller) finish(committed bool) {
	wasActive := c.phase == phaseActive
	c.phase = phaseIdle

	if wasActive {
		switch c.kind {
		case KindDrag, KindRotate:
			c.env.Drag.Clear()
		case KindResize:
			c.env.Resize.Clear()
		}
		c.env.Session.EndManipulation()
		if committed {
			c.env.Session.SuppressNextBackgroundClick()
		}
	}
	c.handle.End()
	c.handle = nil
}

func (c *Controller) toCanvas(screen geom.Point) geom.Point {
	return geom.ToCanvas(screen, c.env.Origin(), c.env.Viewport())
}
