package gesture

import "sync"

// Session holds the per-view transient flags consumed by background
// pan/selection logic: whether a gesture is actively manipulating an
// item, which item a drag owns, and the short-lived marker that stops
// the pointer-up ending a drag from also deselecting on the background.
type Session struct {
	mu            sync.Mutex
	manipulating  string // item id, "" when idle
	suppressClick bool
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) BeginManipulation(itemID string) {
	s.mu.Lock()
	s.manipulating = itemID
	s.mu.Unlock()
}

func (s *Session) EndManipulation() {
	s.mu.Lock()
	s.manipulating = ""
	s.mu.Unlock()
}

// Manipulating reports whether any local gesture is past its threshold.
func (s *Session) Manipulating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manipulating != ""
}

// ActiveItemID is the item owned by the active local gesture, if any.
func (s *Session) ActiveItemID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manipulating
}

// SuppressNextBackgroundClick arms the marker set when a drag commits.
func (s *Session) SuppressNextBackgroundClick() {
	s.mu.Lock()
	s.suppressClick = true
	s.mu.Unlock()
}

// ConsumeSuppressedClick reports and resets the marker. Background click
// handling calls this exactly once per click.
func (s *Session) ConsumeSuppressedClick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.suppressClick
	s.suppressClick = false
	return was
}
