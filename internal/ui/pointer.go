package ui

import "LocalCanvas/internal/geom"

// pointerStream adapts fyne's per-widget mouse/drag events to the
// gesture layer's PointerSession. fyne keeps routing drag events to the
// widget that received the press, so Capture needs no work here.
type pointerStream struct {
	onMove   func(geom.Point)
	onEnd    func(geom.Point)
	onCancel func()
	last     geom.Point
}

func (s *pointerStream) Capture()                   {}
func (s *pointerStream) OnMove(fn func(geom.Point)) { s.onMove = fn }
func (s *pointerStream) OnEnd(fn func(geom.Point))  { s.onEnd = fn }
func (s *pointerStream) OnCancel(fn func())         { s.onCancel = fn }

func (s *pointerStream) forwardMove(p geom.Point) {
	s.last = p
	if s.onMove != nil {
		s.onMove(p)
	}
}

func (s *pointerStream) forwardEnd(p geom.Point) {
	s.last = p
	if s.onEnd != nil {
		s.onEnd(p)
	}
}

func (s *pointerStream) forwardEndAtLast() {
	if s.onEnd != nil {
		s.onEnd(s.last)
	}
}

func (s *pointerStream) cancel() {
	if s.onCancel != nil {
		s.onCancel()
	}
}
