package presence

// Topic names shared by every client on a board.
const (
	TopicDrag   = "drag"
	TopicResize = "resize"
	TopicSelect = "select"
)

// DragState is the ephemeral value streamed while an item is dragged or
// rotated. X and Y are the absolute canvas-space position of the item,
// not a delta, so a late-joining observer can render from a single value.
type DragState struct {
	ItemID       string  `json:"item_id"`
	X            float32 `json:"x"`
	Y            float32 `json:"y"`
	Rotation     float32 `json:"rotation"`
	OriginBranch string  `json:"origin_branch,omitempty"`
}

// ResizeState is streamed during a resize. X and Y are the recomputed
// top-left; resize is center-preserving, so the origin moves as size
// changes. Size is the uniform dimension for shapes or the width for text.
type ResizeState struct {
	ItemID string  `json:"item_id"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Size   float32 `json:"size"`
}

// Selection is each client's set of selected item ids.
type Selection struct {
	ItemIDs []string `json:"item_ids"`
}
