package state

import (
	"sync"

	"LocalCanvas/internal/geom"
)

const (
	// defaultItemExtent stands in for a child that has not been measured yet.
	defaultItemExtent float32 = 100

	// empty groups render a fixed placeholder instead of a zero-size box
	emptyGroupWidth  float32 = 160
	emptyGroupHeight float32 = 100
)

// LayoutCache remembers the last measured absolute bounding box of each
// rendered item, keyed by item id. Renderers write into it after layout;
// group bounds prefer these measurements over synthesized defaults.
type LayoutCache struct {
	mu    sync.RWMutex
	rects map[string]geom.Rect
}

func NewLayoutCache() *LayoutCache {
	return &LayoutCache{rects: make(map[string]geom.Rect)}
}

func (lc *LayoutCache) SetMeasured(id string, r geom.Rect) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.rects[id] = r
}

func (lc *LayoutCache) Measured(id string) (geom.Rect, bool) {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	r, ok := lc.rects[id]
	return r, ok
}

func (lc *LayoutCache) Forget(id string) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	delete(lc.rects, id)
}

// ChildOffset returns a child's position relative to its group origin:
// the deterministic grid cell for its index when the group is in grid
// view, otherwise the child's own stored offset.
func ChildOffset(g *Group, child *Item) geom.Point {
	if g.ViewAsGrid {
		return geom.DefaultGrid.CellOrigin(g.IndexOf(child.ID))
	}
	return geom.Point{X: child.X, Y: child.Y}
}

// GroupBounds aggregates child bounds into the group's bounding box.
// origin is the group's display position, which during a drag is the
// ephemeral one. When live is set (group mid-drag) bounds are synthesized
// from origin plus child offsets so the outline tracks the drag without
// waiting for child re-layout; otherwise measured child rects from the
// cache win over synthesized ones.
func GroupBounds(g *Group, origin geom.Point, cache *LayoutCache, live bool) geom.Rect {
	if len(g.Children) == 0 {
		return geom.Rect{X: origin.X, Y: origin.Y, Width: emptyGroupWidth, Height: emptyGroupHeight}
	}

	var bounds geom.Rect
	for i, child := range g.Children {
		r := childRect(g, child, origin, cache, live)
		if i == 0 {
			bounds = r
		} else {
			bounds = bounds.Union(r)
		}
	}
	return bounds
}

func childRect(g *Group, child *Item, origin geom.Point, cache *LayoutCache, live bool) geom.Rect {
	w, h := defaultItemExtent, defaultItemExtent
	if cache != nil {
		if measured, ok := cache.Measured(child.ID); ok {
			if !live {
				return measured
			}
			w, h = measured.Width, measured.Height
		}
	}
	off := ChildOffset(g, child)
	return geom.Rect{X: origin.X + off.X, Y: origin.Y + off.Y, Width: w, Height: h}
}
