package state

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/presence"
)

func newResolver(doc *Document) (*Resolver, *presence.Channel[presence.DragState], *presence.Channel[presence.ResizeState]) {
	bus := presence.NewBus("me")
	drag := presence.NewChannel[presence.DragState](bus, presence.TopicDrag)
	resize := presence.NewChannel[presence.ResizeState](bus, presence.TopicResize)
	return &Resolver{Doc: doc, Drag: drag, Resize: resize, Cache: NewLayoutCache()}, drag, resize
}

func TestResolveRootPersistedOnly(t *testing.T) {
	doc := NewDocument("site-a")
	doc.AddItem(newShapeItem("a", 100, 100, 50))
	r, _, _ := newResolver(doc)

	it, _ := doc.Get("a")
	d := r.ResolveRoot(it)
	assert.Equal(t, geom.Point{X: 100, Y: 100}, d.Pos)
	assert.Equal(t, false, d.Manipulated)
	assert.Equal(t, false, r.Manipulated("a"))
}

func TestResolveRootDragOverride(t *testing.T) {
	doc := NewDocument("site-a")
	doc.AddItem(newShapeItem("a", 100, 100, 50))
	r, drag, _ := newResolver(doc)

	drag.Publish(presence.DragState{ItemID: "a", X: 150, Y: 100, Rotation: 30})

	it, _ := doc.Get("a")
	d := r.ResolveRoot(it)
	assert.Equal(t, geom.Point{X: 150, Y: 100}, d.Pos)
	assert.Equal(t, float32(30), d.Rotation)
	assert.Equal(t, true, d.Manipulated)
	assert.Equal(t, true, r.Manipulated("a"))

	// cleared gesture falls back to the persisted position
	drag.Clear()
	d = r.ResolveRoot(it)
	assert.Equal(t, geom.Point{X: 100, Y: 100}, d.Pos)
	assert.Equal(t, false, d.Manipulated)
}

func TestResolveRootResizeOverride(t *testing.T) {
	doc := NewDocument("site-a")
	doc.AddItem(newShapeItem("a", 100, 100, 100))
	r, _, resize := newResolver(doc)

	resize.Publish(presence.ResizeState{ItemID: "a", X: 50, Y: 50, Size: 200})

	it, _ := doc.Get("a")
	d := r.ResolveRoot(it)
	assert.Equal(t, geom.Point{X: 50, Y: 50}, d.Pos)
	assert.Equal(t, float32(200), d.Size)
	assert.Equal(t, true, d.Manipulated)
}

func TestResolveChildFollowsGroupDrag(t *testing.T) {
	// group at (0,0), child offset (20,20); group dragged to (30,40)
	// resolves the child at (50,60)
	doc := NewDocument("site-a")
	groupID := "grp"
	doc.AddItem(&Item{ID: groupID, X: 0, Y: 0, Content: &Group{
		Name:     "g",
		Children: []*Item{newShapeItem("c", 20, 20, 50)},
	}})

	r, drag, _ := newResolver(doc)
	group, _ := doc.Get(groupID)
	g := group.Content.(*Group)
	child := g.Children[0]

	drag.Publish(presence.DragState{ItemID: groupID, X: 30, Y: 40})
	d := r.ResolveChild(group, g, child)
	assert.Equal(t, geom.Point{X: 50, Y: 60}, d.Pos)
}

func TestResolveChildGridViewIgnoresRotation(t *testing.T) {
	doc := NewDocument("site-a")
	doc.AddItem(newShapeItem("c", 20, 20, 50))
	groupID, _ := doc.GroupItems("g", []string{"c"})
	doc.SetGridView(groupID, true)

	r, _, _ := newResolver(doc)
	group, _ := doc.Get(groupID)
	g := group.Content.(*Group)
	child := g.Children[0]
	child.Rotation = 45

	d := r.ResolveChild(group, g, child)
	assert.Equal(t, float32(0), d.Rotation)
	assert.Equal(t, group.X+geom.DefaultGrid.CellOrigin(0).X, d.Pos.X)
}

func TestResolveChildOwnDragWins(t *testing.T) {
	doc := NewDocument("site-a")
	doc.AddItem(newShapeItem("c", 20, 20, 50))
	groupID, _ := doc.GroupItems("g", []string{"c"})

	r, drag, _ := newResolver(doc)
	group, _ := doc.Get(groupID)
	g := group.Content.(*Group)
	child := g.Children[0]

	drag.Publish(presence.DragState{ItemID: child.ID, X: 400, Y: 400})
	d := r.ResolveChild(group, g, child)
	assert.Equal(t, geom.Point{X: 400, Y: 400}, d.Pos)
	assert.Equal(t, true, d.Manipulated)
}

func TestGroupOutlineTracksDrag(t *testing.T) {
	doc := NewDocument("site-a")
	doc.AddItem(newShapeItem("c", 0, 0, 50))
	groupID, _ := doc.GroupItems("g", []string{"c"})

	r, drag, _ := newResolver(doc)
	group, _ := doc.Get(groupID)
	g := group.Content.(*Group)

	before := r.GroupOutline(group, g)
	drag.Publish(presence.DragState{ItemID: groupID, X: 200, Y: 300})
	after := r.GroupOutline(group, g)

	assert.Equal(t, before.X+200, after.X)
	assert.Equal(t, before.Y+300, after.Y)
}
