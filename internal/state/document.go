package state

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
)

// OpType enumerates the operations replicated between clients.
type OpType string

const (
	OpAddItem     OpType = "add_item"
	OpRemoveItem  OpType = "remove_item"
	OpSetGeometry OpType = "set_geometry"
	OpSetGridView OpType = "set_grid_view"
)

// Op is one replicated document operation. A set_geometry op carries the
// whole outcome of a gesture (position plus rotation or size) so it
// applies atomically; no intermediate state is ever observable.
type Op struct {
	ID      string `json:"id"`
	Type    OpType `json:"type"`
	Site    string `json:"site"`
	Lamport uint64 `json:"lamport"`

	Item       *Item    `json:"item,omitempty"`    // add_item
	ItemID     string   `json:"item_id,omitempty"` // all others
	ParentID   string   `json:"parent_id,omitempty"`
	X          float32  `json:"x,omitempty"`
	Y          float32  `json:"y,omitempty"`
	Rotation   *float32 `json:"rotation,omitempty"`
	Size       *float32 `json:"size,omitempty"`
	ViewAsGrid *bool    `json:"view_as_grid,omitempty"`
}

// Document is the persisted, replicated board state. Mutation happens
// only through ops: local calls build an op, apply it under the lock, and
// hand it to OnLocalOp for broadcast; remote ops arrive via ApplyRemote.
// Geometry writes are last-writer-wins per item, ordered by Lamport
// timestamp with the site id as tiebreaker.
type Document struct {
	siteID string
	clock  Clock

	mu        sync.RWMutex
	roots     []string
	items     map[string]*Item
	parents   map[string]string // child id -> containing group id
	applied   map[string]bool   // op ids already seen
	geomStamp map[string]struct {
		lamport uint64
		site    string
	}

	// OnLocalOp broadcasts a locally produced op; set by the session wiring.
	OnLocalOp func(Op)
	// OnChange is invoked after every applied mutation, local or remote.
	OnChange func()
}

func NewDocument(siteID string) *Document {
	return &Document{
		siteID:  siteID,
		roots:   []string{},
		items:   make(map[string]*Item),
		parents: make(map[string]string),
		applied: make(map[string]bool),
		geomStamp: make(map[string]struct {
			lamport uint64
			site    string
		}),
	}
}

func (d *Document) SiteID() string {
	return d.siteID
}

// NewItemID mints an id for a new board item.
func NewItemID() string {
	return uuid.NewString()
}

// AddItem inserts a root item (which may be a group with children).
func (d *Document) AddItem(it *Item) error {
	if it.ID == "" {
		return fmt.Errorf("add item: missing id")
	}
	op := d.newOp(OpAddItem)
	op.Item = it.Clone()
	return d.applyLocal(op)
}

// RemoveItem deletes an item wherever it lives (root list or a group).
func (d *Document) RemoveItem(id string) error {
	op := d.newOp(OpRemoveItem)
	op.ItemID = id
	return d.applyLocal(op)
}

// SetGeometry atomically writes a gesture outcome: position always, plus
// rotation or size when the gesture changed them. The op is scoped to the
// item's containing group when it has one, so appliers resolve the child
// through its container.
func (d *Document) SetGeometry(itemID string, x, y float32, rotation, size *float32) error {
	d.mu.RLock()
	_, known := d.items[itemID]
	parent := d.parents[itemID]
	d.mu.RUnlock()
	if !known {
		return fmt.Errorf("set geometry: unknown item %s", itemID)
	}
	op := d.newOp(OpSetGeometry)
	op.ItemID = itemID
	op.ParentID = parent
	op.X = x
	op.Y = y
	op.Rotation = rotation
	op.Size = size
	return d.applyLocal(op)
}

// SetGridView flips a group between free and grid child layout.
func (d *Document) SetGridView(groupID string, viewAsGrid bool) error {
	op := d.newOp(OpSetGridView)
	op.ItemID = groupID
	op.ViewAsGrid = &viewAsGrid
	return d.applyLocal(op)
}

// GroupItems moves the named root items into a new group positioned at
// their collective top-left; each child keeps its visual position as a
// relative offset. Returns the new group's id.
func (d *Document) GroupItems(name string, ids []string) (string, error) {
	d.mu.RLock()
	members := make([]*Item, 0, len(ids))
	for _, id := range ids {
		it, ok := d.items[id]
		if !ok || d.parents[id] != "" {
			continue
		}
		if it.Content.Kind() == KindGroup {
			continue // no nested groups
		}
		members = append(members, it.Clone())
	}
	d.mu.RUnlock()
	if len(members) == 0 {
		return "", fmt.Errorf("group %q: no groupable items", name)
	}

	originX, originY := members[0].X, members[0].Y
	for _, m := range members[1:] {
		if m.X < originX {
			originX = m.X
		}
		if m.Y < originY {
			originY = m.Y
		}
	}
	for _, m := range members {
		m.X -= originX
		m.Y -= originY
	}

	group := &Item{
		ID:      NewItemID(),
		X:       originX,
		Y:       originY,
		Content: &Group{Name: name, Children: members},
	}
	op := d.newOp(OpAddItem)
	op.Item = group
	if err := d.applyLocal(op); err != nil {
		return "", err
	}
	return group.ID, nil
}

// ApplyRemote merges an op received from another client. Returns true
// when the op changed local state.
func (d *Document) ApplyRemote(op Op) bool {
	d.mu.Lock()
	if d.applied[op.ID] {
		d.mu.Unlock()
		return false
	}
	d.clock.Observe(op.Lamport)
	changed := d.apply(op)
	d.mu.Unlock()

	if changed {
		log.Printf("[DOC] applied remote %s from site %s", op.Type, op.Site)
		d.notify()
	}
	return changed
}

// Get returns a deep copy of an item, root or grouped.
func (d *Document) Get(id string) (*Item, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	it, ok := d.items[id]
	if !ok {
		return nil, false
	}
	return it.Clone(), true
}

// ParentOf reports the containing group of an item, "" for roots.
func (d *Document) ParentOf(id string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.parents[id]
}

// Roots returns deep copies of the root items in z-order.
func (d *Document) Roots() []*Item {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Item, 0, len(d.roots))
	for _, id := range d.roots {
		if it, ok := d.items[id]; ok {
			out = append(out, it.Clone())
		}
	}
	return out
}

// snapshotWire carries the whole document to a late joiner.
type snapshotWire struct {
	Lamport uint64  `json:"lamport"`
	Items   []*Item `json:"items"`
}

func (d *Document) SnapshotJSON() ([]byte, error) {
	return json.Marshal(snapshotWire{Lamport: d.clock.Now(), Items: d.Roots()})
}

// LoadSnapshot replaces the local document with a snapshot from the host.
func (d *Document) LoadSnapshot(data []byte) error {
	var snap snapshotWire
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	d.mu.Lock()
	d.roots = d.roots[:0]
	d.items = make(map[string]*Item)
	d.parents = make(map[string]string)
	for _, it := range snap.Items {
		d.roots = append(d.roots, it.ID)
		d.register(it, "")
	}
	d.clock.Observe(snap.Lamport)
	d.mu.Unlock()
	log.Printf("[DOC] loaded snapshot with %d root items", len(snap.Items))
	d.notify()
	return nil
}

func (d *Document) newOp(t OpType) Op {
	return Op{ID: uuid.NewString(), Type: t, Site: d.siteID, Lamport: d.clock.Tick()}
}

func (d *Document) applyLocal(op Op) error {
	d.mu.Lock()
	changed := d.apply(op)
	d.mu.Unlock()
	if !changed {
		return fmt.Errorf("%s: op had no effect (item %s)", op.Type, op.ItemID)
	}
	if d.OnLocalOp != nil {
		d.OnLocalOp(op)
	}
	d.notify()
	return nil
}

// apply mutates state under d.mu. The whole op applies inside one lock
// hold, which is what makes a multi-field geometry write atomic.
func (d *Document) apply(op Op) bool {
	d.applied[op.ID] = true
	switch op.Type {
	case OpAddItem:
		if op.Item == nil {
			return false
		}
		it := op.Item.Clone()
		// items moving into a new group leave the root list
		if g, ok := it.Content.(*Group); ok {
			for _, child := range g.Children {
				d.removeLocked(child.ID)
			}
		}
		if _, exists := d.items[it.ID]; exists {
			return false
		}
		d.roots = append(d.roots, it.ID)
		d.register(it, "")
		return true

	case OpRemoveItem:
		return d.removeLocked(op.ItemID)

	case OpSetGeometry:
		it, ok := d.items[op.ItemID]
		if !ok {
			return false
		}
		if !d.geomWins(op) {
			log.Printf("[DOC] stale geometry for %s from site %s ignored", op.ItemID, op.Site)
			return false
		}
		it.X = op.X
		it.Y = op.Y
		if op.Rotation != nil {
			it.Rotation = *op.Rotation
		}
		if op.Size != nil {
			setPrimarySize(it.Content, *op.Size)
		}
		d.geomStamp[op.ItemID] = struct {
			lamport uint64
			site    string
		}{op.Lamport, op.Site}
		return true

	case OpSetGridView:
		it, ok := d.items[op.ItemID]
		if !ok || op.ViewAsGrid == nil {
			return false
		}
		g, ok := it.Content.(*Group)
		if !ok {
			return false
		}
		g.ViewAsGrid = *op.ViewAsGrid
		return true
	}
	return false
}

// geomWins decides last-writer-wins for near-simultaneous commits on the
// same item.
func (d *Document) geomWins(op Op) bool {
	last, ok := d.geomStamp[op.ItemID]
	if !ok {
		return true
	}
	if op.Lamport != last.lamport {
		return op.Lamport > last.lamport
	}
	return op.Site >= last.site
}

func (d *Document) register(it *Item, parentID string) {
	d.items[it.ID] = it
	if parentID != "" {
		d.parents[it.ID] = parentID
	}
	if g, ok := it.Content.(*Group); ok {
		for _, child := range g.Children {
			d.register(child, it.ID)
		}
	}
}

func (d *Document) removeLocked(id string) bool {
	it, ok := d.items[id]
	if !ok {
		return false
	}
	if parentID, grouped := d.parents[id]; grouped {
		if parent, ok := d.items[parentID]; ok {
			if g, ok := parent.Content.(*Group); ok {
				if i := g.IndexOf(id); i >= 0 {
					g.Children = append(g.Children[:i], g.Children[i+1:]...)
				}
			}
		}
	} else {
		for i, rid := range d.roots {
			if rid == id {
				d.roots = append(d.roots[:i], d.roots[i+1:]...)
				break
			}
		}
	}
	d.unregister(it)
	return true
}

func (d *Document) unregister(it *Item) {
	delete(d.items, it.ID)
	delete(d.parents, it.ID)
	delete(d.geomStamp, it.ID)
	if g, ok := it.Content.(*Group); ok {
		for _, child := range g.Children {
			d.unregister(child)
		}
	}
}

func (d *Document) notify() {
	if d.OnChange != nil {
		d.OnChange()
	}
}
