package gesture

import "sync"

// Slot is one input class. A mouse gesture and a touch gesture cannot
// both be meaningfully active, but they are arbitrated independently.
type Slot int

const (
	SlotMouse Slot = iota
	SlotTouch
	slotCount
)

// Arbiter guarantees at most one active drag-class gesture per input
// slot. Starting a new gesture cancels the previous occupant first, so
// two live gestures never fight over the same presence channel. One
// Arbiter is owned by the document-view session and injected into
// controllers; there is no package-level state.
type Arbiter struct {
	mu      sync.Mutex
	seq     [slotCount]uint64
	cancels [slotCount]func()
}

func NewArbiter() *Arbiter {
	return &Arbiter{}
}

// Handle identifies one occupancy of a slot.
type Handle struct {
	arb  *Arbiter
	slot Slot
	seq  uint64
}

// Begin occupies a slot with the new gesture's cancel callback. A prior
// occupant is cancelled after the slot has been handed over, so its
// cleanup cannot race the new occupancy.
func (a *Arbiter) Begin(slot Slot, cancel func()) *Handle {
	a.mu.Lock()
	old := a.cancels[slot]
	a.seq[slot]++
	seq := a.seq[slot]
	a.cancels[slot] = cancel
	a.mu.Unlock()

	if old != nil {
		old()
	}
	return &Handle{arb: a, slot: slot, seq: seq}
}

// End releases the slot, but only if this handle is still the occupant;
// a superseded gesture calling End must not evict its successor.
func (h *Handle) End() {
	if h == nil {
		return
	}
	a := h.arb
	a.mu.Lock()
	if a.seq[h.slot] == h.seq {
		a.cancels[h.slot] = nil
	}
	a.mu.Unlock()
}
