package gesture

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/presence"
	"LocalCanvas/internal/state"
)

type fakePointer struct {
	captured bool
	onMove   func(geom.Point)
	onEnd    func(geom.Point)
	onCancel func()
}

func (f *fakePointer) Capture()                    { f.captured = true }
func (f *fakePointer) OnMove(fn func(geom.Point))  { f.onMove = fn }
func (f *fakePointer) OnEnd(fn func(geom.Point))   { f.onEnd = fn }
func (f *fakePointer) OnCancel(fn func())          { f.onCancel = fn }
func (f *fakePointer) move(x, y float32)           { f.onMove(geom.Point{X: x, Y: y}) }
func (f *fakePointer) release(x, y float32)        { f.onEnd(geom.Point{X: x, Y: y}) }
func (f *fakePointer) interrupt()                  { f.onCancel() }

type testEnv struct {
	*Env
	doc    *state.Document
	clicks []string
}

func newTestEnv() *testEnv {
	doc := state.NewDocument("site-test")
	bus := presence.NewBus("client-test")
	drag := presence.NewChannel[presence.DragState](bus, presence.TopicDrag)
	resize := presence.NewChannel[presence.ResizeState](bus, presence.TopicResize)
	resolver := &state.Resolver{Doc: doc, Drag: drag, Resize: resize, Cache: state.NewLayoutCache()}

	te := &testEnv{doc: doc}
	te.Env = &Env{
		Session:    NewSession(),
		Arbiter:    NewArbiter(),
		Doc:        doc,
		Resolver:   resolver,
		Reconciler: &state.Reconciler{Doc: doc},
		Drag:       drag,
		Resize:     resize,
		Viewport:   func() geom.Viewport { return geom.Viewport{Zoom: 1} },
		Origin:     func() geom.Rect { return geom.Rect{} },
		Branch:     "main",
		OnClick:    func(id string) { te.clicks = append(te.clicks, id) },
	}
	return te
}

func addShape(doc *state.Document, id string, x, y, size float32) {
	doc.AddItem(&state.Item{ID: id, X: x, Y: y, Content: &state.Shape{Form: state.ShapeRect, Size: size}})
}

func TestPressBelowThresholdIsAClick(t *testing.T) {
	te := newTestEnv()
	addShape(te.doc, "a", 100, 100, 50)

	c := NewController(te.Env, "a")
	ps := &fakePointer{}
	assert.Equal(t, true, c.StartDrag(ps, geom.Point{X: 200, Y: 200}, SlotMouse, PressOptions{}))
	assert.Equal(t, true, ps.captured)

	ps.move(201, 201)
	_, published := te.Drag.Local()
	assert.Equal(t, false, published)
	assert.Equal(t, false, te.Session.Manipulating())

	ps.release(201, 201)
	assert.Equal(t, []string{"a"}, te.clicks)
	// a click never arms the background suppression marker
	assert.Equal(t, false, te.Session.ConsumeSuppressedClick())

	it, _ := te.doc.Get("a")
	assert.Equal(t, float32(100), it.X)
}

func TestDragPublishesAndCommitsFinalPosition(t *testing.T) {
	// item at (100,100), screen delta (50,0) at zoom 1, pan (0,0)
	te := newTestEnv()
	addShape(te.doc, "a", 100, 100, 50)

	c := NewController(te.Env, "a")
	ps := &fakePointer{}
	c.StartDrag(ps, geom.Point{X: 200, Y: 200}, SlotMouse, PressOptions{})
	ps.move(250, 200)

	v, ok := te.Drag.Local()
	assert.Equal(t, true, ok)
	assert.Equal(t, float32(150), v.X)
	assert.Equal(t, float32(100), v.Y)
	assert.Equal(t, "main", v.OriginBranch)
	assert.Equal(t, true, te.Session.Manipulating())

	ps.release(250, 200)

	// committed value equals the last published ephemeral value
	it, _ := te.doc.Get("a")
	assert.Equal(t, float32(150), it.X)
	assert.Equal(t, float32(100), it.Y)

	// terminal cleanup: channel cleared, flags released, click suppressed
	_, ok = te.Drag.Local()
	assert.Equal(t, false, ok)
	assert.Equal(t, false, te.Session.Manipulating())
	assert.Equal(t, true, te.Session.ConsumeSuppressedClick())
}

func TestDragAtZoomUsesCanvasDelta(t *testing.T) {
	te := newTestEnv()
	addShape(te.doc, "a", 100, 100, 50)
	te.Viewport = func() geom.Viewport { return geom.Viewport{Pan: geom.Point{X: 7, Y: -3}, Zoom: 2} }

	c := NewController(te.Env, "a")
	ps := &fakePointer{}
	c.StartDrag(ps, geom.Point{X: 0, Y: 0}, SlotMouse, PressOptions{})
	ps.move(100, 0)

	v, _ := te.Drag.Local()
	// 100 screen px at zoom 2 is 50 canvas units; pan cancels out
	assert.Equal(t, float32(150), v.X)
	assert.Equal(t, float32(100), v.Y)
}

func TestNewGestureCancelsActiveOne(t *testing.T) {
	te := newTestEnv()
	addShape(te.doc, "a", 0, 0, 50)
	addShape(te.doc, "b", 500, 0, 50)

	ca := NewController(te.Env, "a")
	psA := &fakePointer{}
	ca.StartDrag(psA, geom.Point{X: 10, Y: 10}, SlotMouse, PressOptions{})
	psA.move(60, 10)

	v, ok := te.Drag.Local()
	assert.Equal(t, true, ok)
	assert.Equal(t, "a", v.ItemID)

	// B starts: A's ephemeral value must be cleared before B publishes
	cb := NewController(te.Env, "b")
	psB := &fakePointer{}
	cb.StartDrag(psB, geom.Point{X: 500, Y: 10}, SlotMouse, PressOptions{})

	_, ok = te.Drag.Local()
	assert.Equal(t, false, ok)
	assert.Equal(t, false, te.Session.Manipulating())

	psB.move(560, 10)
	v, ok = te.Drag.Local()
	assert.Equal(t, true, ok)
	assert.Equal(t, "b", v.ItemID)

	// A was never committed
	it, _ := te.doc.Get("a")
	assert.Equal(t, float32(0), it.X)

	// a stale move from A's pointer stream is ignored
	psA.move(200, 200)
	v, _ = te.Drag.Local()
	assert.Equal(t, "b", v.ItemID)
}

func TestTouchAndMouseSlotsAreIndependent(t *testing.T) {
	te := newTestEnv()
	addShape(te.doc, "a", 0, 0, 50)
	addShape(te.doc, "b", 500, 0, 50)

	ca := NewController(te.Env, "a")
	psA := &fakePointer{}
	ca.StartDrag(psA, geom.Point{X: 10, Y: 10}, SlotMouse, PressOptions{})
	psA.move(60, 10)

	cb := NewController(te.Env, "b")
	psB := &fakePointer{}
	cb.StartDrag(psB, geom.Point{X: 500, Y: 10}, SlotTouch, PressOptions{})

	// the touch gesture did not evict the mouse gesture
	v, ok := te.Drag.Local()
	assert.Equal(t, true, ok)
	assert.Equal(t, "a", v.ItemID)
}

func TestRotateGesture(t *testing.T) {
	// shape top-left (100,100) size 100: center (150,150); pointer ends
	// directly right of center -> committed rotation 90
	te := newTestEnv()
	addShape(te.doc, "a", 100, 100, 100)

	c := NewController(te.Env, "a")
	ps := &fakePointer{}
	assert.Equal(t, true, c.StartRotate(ps, geom.Point{X: 150, Y: 90}, SlotMouse))
	ps.move(300, 150)

	v, ok := te.Drag.Local()
	assert.Equal(t, true, ok)
	assert.Equal(t, float32(90), v.Rotation)
	// position untouched by rotation
	assert.Equal(t, float32(100), v.X)

	ps.release(300, 150)
	it, _ := te.doc.Get("a")
	assert.Equal(t, float32(90), it.Rotation)
	assert.Equal(t, float32(100), it.X)
}

func TestRotateCommitAlwaysNormalized(t *testing.T) {
	te := newTestEnv()
	addShape(te.doc, "a", 100, 100, 100)

	c := NewController(te.Env, "a")
	ps := &fakePointer{}
	c.StartRotate(ps, geom.Point{X: 150, Y: 90}, SlotMouse)
	// pointer up-left of center: atan2 in (-180,-90), +90 wraps negative
	ps.move(50, 50)
	ps.release(50, 50)

	it, _ := te.doc.Get("a")
	if it.Rotation < 0 || it.Rotation >= 360 {
		t.Fatalf("committed rotation %v out of [0,360)", it.Rotation)
	}
}

func TestShapeResizePreservesCenter(t *testing.T) {
	// size 100 centered at (150,150); pointer doubles its distance from
	// the center -> size 200, top-left (50,50), center unchanged
	te := newTestEnv()
	addShape(te.doc, "a", 100, 100, 100)

	c := NewController(te.Env, "a")
	ps := &fakePointer{}
	assert.Equal(t, true, c.StartResize(ps, geom.Point{X: 200, Y: 150}, SlotMouse, EdgeRight))
	ps.move(250, 150)

	v, ok := te.Resize.Local()
	assert.Equal(t, true, ok)
	assert.Equal(t, float32(200), v.Size)
	assert.Equal(t, float32(50), v.X)
	assert.Equal(t, float32(50), v.Y)

	ps.release(250, 150)
	it, _ := te.doc.Get("a")
	assert.Equal(t, float32(200), state.PrimarySize(it.Content))
	assert.Equal(t, float32(50), it.X)
	// center before == center after
	assert.Equal(t, float32(150), it.X+state.PrimarySize(it.Content)/2)
}

func TestShapeResizeCannotInvert(t *testing.T) {
	te := newTestEnv()
	addShape(te.doc, "a", 100, 100, 100)

	c := NewController(te.Env, "a")
	ps := &fakePointer{}
	c.StartResize(ps, geom.Point{X: 200, Y: 150}, SlotMouse, EdgeRight)
	// drag through and past the center
	ps.move(50, 150)

	v, _ := te.Resize.Local()
	assert.Equal(t, geom.MinItemSize, v.Size)
}

func TestTextResizeLeftEdgeAnchorsRightEdge(t *testing.T) {
	te := newTestEnv()
	te.doc.AddItem(&state.Item{ID: "t", X: 100, Y: 100, Content: &state.TextBlock{Text: "x", Width: 120}})

	c := NewController(te.Env, "t")
	ps := &fakePointer{}
	assert.Equal(t, true, c.StartResize(ps, geom.Point{X: 100, Y: 110}, SlotMouse, EdgeLeft))
	ps.move(80, 110)

	v, ok := te.Resize.Local()
	assert.Equal(t, true, ok)
	assert.Equal(t, float32(140), v.Size)
	assert.Equal(t, float32(80), v.X)
	// right edge stays put
	assert.Equal(t, float32(220), v.X+v.Size)

	ps.release(80, 110)
	it, _ := te.doc.Get("t")
	assert.Equal(t, float32(140), state.PrimarySize(it.Content))
	assert.Equal(t, float32(80), it.X)
}

func TestTextResizeRightEdge(t *testing.T) {
	te := newTestEnv()
	te.doc.AddItem(&state.Item{ID: "t", X: 100, Y: 100, Content: &state.TextBlock{Text: "x", Width: 120}})

	c := NewController(te.Env, "t")
	ps := &fakePointer{}
	c.StartResize(ps, geom.Point{X: 220, Y: 110}, SlotMouse, EdgeRight)
	ps.move(260, 110)

	v, _ := te.Resize.Local()
	assert.Equal(t, float32(160), v.Size)
	// left edge stays put
	assert.Equal(t, float32(100), v.X)
}

func TestTableRefusesResize(t *testing.T) {
	te := newTestEnv()
	te.doc.AddItem(&state.Item{ID: "tbl", X: 0, Y: 0, Content: &state.Table{Rows: 2, Cols: 2, CellWidth: 40, CellHeight: 20}})

	c := NewController(te.Env, "tbl")
	ps := &fakePointer{}
	assert.Equal(t, false, c.StartResize(ps, geom.Point{}, SlotMouse, EdgeRight))
}

func TestGroupRefusesRotate(t *testing.T) {
	te := newTestEnv()
	te.doc.AddItem(&state.Item{ID: "g", Content: &state.Group{Name: "g"}})

	c := NewController(te.Env, "g")
	ps := &fakePointer{}
	assert.Equal(t, false, c.StartRotate(ps, geom.Point{}, SlotMouse))
}

func TestGridChildCannotBeDragged(t *testing.T) {
	te := newTestEnv()
	te.doc.AddItem(&state.Item{ID: "grp", X: 0, Y: 0, Content: &state.Group{
		Name:       "g",
		ViewAsGrid: true,
		Children:   []*state.Item{{ID: "c", X: 20, Y: 20, Content: &state.Shape{Size: 50}}},
	}})

	c := NewController(te.Env, "c")
	ps := &fakePointer{}
	assert.Equal(t, false, c.StartDrag(ps, geom.Point{X: 20, Y: 20}, SlotMouse, PressOptions{}))
}

func TestGroupedChildCommitStoresRelativeOffset(t *testing.T) {
	te := newTestEnv()
	te.doc.AddItem(&state.Item{ID: "grp", X: 30, Y: 40, Content: &state.Group{
		Name:     "g",
		Children: []*state.Item{{ID: "c", X: 20, Y: 20, Content: &state.Shape{Size: 50}}},
	}})

	c := NewController(te.Env, "c")
	ps := &fakePointer{}
	// child displays at (50,60)
	c.StartDrag(ps, geom.Point{X: 55, Y: 65}, SlotMouse, PressOptions{})
	ps.move(65, 65)

	// published position is absolute canvas space
	v, _ := te.Drag.Local()
	assert.Equal(t, float32(60), v.X)
	assert.Equal(t, float32(60), v.Y)

	ps.release(65, 65)

	// stored offset is group-relative
	it, _ := te.doc.Get("c")
	assert.Equal(t, float32(30), it.X)
	assert.Equal(t, float32(20), it.Y)
}

func TestDoubledThresholdOnChildControl(t *testing.T) {
	te := newTestEnv()
	addShape(te.doc, "a", 0, 0, 50)

	c := NewController(te.Env, "a")
	ps := &fakePointer{}
	c.StartDrag(ps, geom.Point{X: 100, Y: 100}, SlotMouse, PressOptions{OnChildControl: true})

	// six pixels crosses the normal threshold but not the doubled one
	ps.move(106, 100)
	_, published := te.Drag.Local()
	assert.Equal(t, false, published)

	ps.move(110, 100)
	_, published = te.Drag.Local()
	assert.Equal(t, true, published)
}

func TestPointerCancelCleansUpWithoutCommit(t *testing.T) {
	te := newTestEnv()
	addShape(te.doc, "a", 100, 100, 50)

	c := NewController(te.Env, "a")
	ps := &fakePointer{}
	c.StartDrag(ps, geom.Point{X: 0, Y: 0}, SlotMouse, PressOptions{})
	ps.move(80, 0)
	ps.interrupt()

	_, ok := te.Drag.Local()
	assert.Equal(t, false, ok)
	assert.Equal(t, false, te.Session.Manipulating())

	it, _ := te.doc.Get("a")
	assert.Equal(t, float32(100), it.X)
}

func TestCommitFailureStillTerminatesCleanly(t *testing.T) {
	te := newTestEnv()
	addShape(te.doc, "a", 100, 100, 50)

	c := NewController(te.Env, "a")
	ps := &fakePointer{}
	c.StartDrag(ps, geom.Point{X: 0, Y: 0}, SlotMouse, PressOptions{})
	ps.move(80, 0)

	// item vanishes mid-gesture (e.g. removed by a remote client)
	te.doc.RemoveItem("a")
	ps.release(80, 0)

	_, ok := te.Drag.Local()
	assert.Equal(t, false, ok)
	assert.Equal(t, false, te.Session.Manipulating())
}

func TestArbiterEndDoesNotEvictSuccessor(t *testing.T) {
	arb := NewArbiter()
	cancelled := []string{}

	h1 := arb.Begin(SlotMouse, func() { cancelled = append(cancelled, "first") })
	h2 := arb.Begin(SlotMouse, func() { cancelled = append(cancelled, "second") })
	assert.Equal(t, []string{"first"}, cancelled)

	// a late End from the superseded gesture is a no-op
	h1.End()
	arb.Begin(SlotMouse, func() {})
	assert.Equal(t, []string{"first", "second"}, cancelled)
	h2.End()
}

func TestSessionSuppressedClickIsOneShot(t *testing.T) {
	s := NewSession()
	s.SuppressNextBackgroundClick()
	assert.Equal(t, true, s.ConsumeSuppressedClick())
	assert.Equal(t, false, s.ConsumeSuppressedClick())
}
