package state

import (
	"LocalCanvas/internal/geom"
	"LocalCanvas/internal/presence"
)

// Display is what renderers consume for one item: persisted values with
// any ephemeral gesture override already folded in.
type Display struct {
	Pos         geom.Point
	Rotation    float32
	Size        float32 // primary dimension after any resize override
	Manipulated bool    // some client is currently dragging/resizing it
}

// Resolver folds ephemeral presence values over the persisted document.
// If no ephemeral state exists for an item its rendered position equals
// its persisted (or group-resolved) position.
type Resolver struct {
	Doc    *Document
	Drag   *presence.Channel[presence.DragState]
	Resize *presence.Channel[presence.ResizeState]
	Cache  *LayoutCache
}

func (r *Resolver) findDrag(itemID string) (presence.DragState, bool) {
	var found presence.DragState
	ok := false
	r.Drag.Each(func(_ string, v presence.DragState) {
		if v.ItemID == itemID {
			found = v
			ok = true
		}
	})
	return found, ok
}

func (r *Resolver) findResize(itemID string) (presence.ResizeState, bool) {
	var found presence.ResizeState
	ok := false
	r.Resize.Each(func(_ string, v presence.ResizeState) {
		if v.ItemID == itemID {
			found = v
			ok = true
		}
	})
	return found, ok
}

// Manipulated reports whether any client currently has gesture state on
// the item. Renderers use it to suppress conflicting interactions.
func (r *Resolver) Manipulated(itemID string) bool {
	if _, ok := r.findDrag(itemID); ok {
		return true
	}
	_, ok := r.findResize(itemID)
	return ok
}

// ResolveRoot computes the display state of a root item.
func (r *Resolver) ResolveRoot(it *Item) Display {
	d := Display{
		Pos:      geom.Point{X: it.X, Y: it.Y},
		Rotation: it.Rotation,
		Size:     PrimarySize(it.Content),
	}
	if ds, ok := r.findDrag(it.ID); ok {
		d.Pos = geom.Point{X: ds.X, Y: ds.Y}
		d.Rotation = ds.Rotation
		d.Manipulated = true
		return d
	}
	if rs, ok := r.findResize(it.ID); ok {
		d.Pos = geom.Point{X: rs.X, Y: rs.Y}
		d.Size = rs.Size
		d.Manipulated = true
	}
	return d
}

// ResolveChild computes the display state of a grouped child: the group's
// display origin (ephemeral while the group drags) plus the child's
// offset, unless the child itself carries gesture state. In grid view the
// child's own rotation is ignored.
func (r *Resolver) ResolveChild(group *Item, g *Group, child *Item) Display {
	if ds, ok := r.findDrag(child.ID); ok {
		return Display{
			Pos:         geom.Point{X: ds.X, Y: ds.Y},
			Rotation:    ds.Rotation,
			Size:        PrimarySize(child.Content),
			Manipulated: true,
		}
	}
	if rs, ok := r.findResize(child.ID); ok {
		return Display{
			Pos:         geom.Point{X: rs.X, Y: rs.Y},
			Size:        rs.Size,
			Rotation:    child.Rotation,
			Manipulated: true,
		}
	}

	groupDisplay := r.ResolveRoot(group)
	off := ChildOffset(g, child)
	d := Display{
		Pos:      groupDisplay.Pos.Add(off),
		Rotation: child.Rotation,
		Size:     PrimarySize(child.Content),
	}
	if g.ViewAsGrid {
		d.Rotation = 0
	}
	return d
}

// GroupOutline is the bounding box renderers draw around a group,
// tracking the ephemeral origin while the group is dragged.
func (r *Resolver) GroupOutline(group *Item, g *Group) geom.Rect {
	display := r.ResolveRoot(group)
	return GroupBounds(g, display.Pos, r.Cache, display.Manipulated)
}
