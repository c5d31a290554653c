package gesture

import "LocalCanvas/internal/geom"

// PointerSession abstracts one continuous pointer interaction so the
// controller state machine has no dependency on a UI toolkit. The
// platform adapter delivers screen-space positions.
type PointerSession interface {
	// Capture grabs the pointer for the rest of the interaction. Best
	// effort: a platform that cannot capture simply delivers whatever
	// events it still receives, and a lost capture must still end the
	// session via OnEnd or OnCancel.
	Capture()
	OnMove(func(screen geom.Point))
	OnEnd(func(screen geom.Point))
	OnCancel(func())
}
