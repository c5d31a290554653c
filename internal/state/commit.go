package state

import (
	"fmt"
	"log"

	"LocalCanvas/internal/geom"
)

// Reconciler writes the final outcome of a gesture into the document as
// one atomic operation. It performs no retries and no rollback of its
// own; a rejected write surfaces to the caller's error path.
type Reconciler struct {
	Doc *Document
}

// CommitMove persists a drag or rotate outcome: position and rotation
// together, never separately. Rotation is normalized into [0,360) at the
// commit boundary even though the document itself does not enforce it.
func (r *Reconciler) CommitMove(itemID string, pos geom.Point, rotation float32) error {
	rot := geom.NormalizeDegrees(rotation)
	if err := r.Doc.SetGeometry(itemID, pos.X, pos.Y, &rot, nil); err != nil {
		return fmt.Errorf("commit move %s: %w", itemID, err)
	}
	log.Printf("[COMMIT] %s moved to (%.1f, %.1f) rot %.1f", itemID, pos.X, pos.Y, rot)
	return nil
}

// CommitResize persists a resize outcome: the recomputed top-left and the
// new primary size in one write.
func (r *Reconciler) CommitResize(itemID string, pos geom.Point, size float32) error {
	if err := r.Doc.SetGeometry(itemID, pos.X, pos.Y, nil, &size); err != nil {
		return fmt.Errorf("commit resize %s: %w", itemID, err)
	}
	log.Printf("[COMMIT] %s resized to %.1f at (%.1f, %.1f)", itemID, size, pos.X, pos.Y)
	return nil
}
