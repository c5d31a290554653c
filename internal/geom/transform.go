package geom

// Viewport captures the current pan offset and zoom factor of a board view.
type Viewport struct {
	Pan  Point
	Zoom float32
}

// ToCanvas converts a screen-space pointer position into canvas space.
// origin is the bounding rect of the board element on screen; callers that
// cannot measure it pass a zero Rect so gestures keep working in degraded
// layout states. A non-positive zoom is treated as 1 so the division is
// always defined.
func ToCanvas(screen Point, origin Rect, vp Viewport) Point {
	zoom := vp.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return Point{
		X: (screen.X - origin.X - vp.Pan.X) / zoom,
		Y: (screen.Y - origin.Y - vp.Pan.Y) / zoom,
	}
}

// CanvasDelta maps a screen-space movement between two pointer positions
// into a canvas-space delta. The pan offset cancels out, so only zoom
// matters; the same gesture yields the same delta at any pan.
func CanvasDelta(startScreen, currentScreen Point, origin Rect, vp Viewport) Point {
	start := ToCanvas(startScreen, origin, vp)
	current := ToCanvas(currentScreen, origin, vp)
	return current.Sub(start)
}
