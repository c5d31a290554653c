package geom

import "math"

const (
	// MinItemSize and MaxItemSize bound every resize gesture.
	MinItemSize float32 = 20
	MaxItemSize float32 = 1000

	// minResizeRatio keeps a shape from inverting through zero when the
	// pointer crosses the center.
	minResizeRatio float32 = 0.05

	// minVectorLength guards the projection math against a degenerate
	// zero-length start vector.
	minVectorLength float32 = 0.0001
)

// NormalizeDegrees wraps an angle into [0, 360).
func NormalizeDegrees(deg float32) float32 {
	d := float32(math.Mod(float64(deg), 360))
	if d < 0 {
		d += 360
	}
	return d
}

// RotationFromPointer computes the rotation, in degrees, implied by the
// pointer at p orbiting the item center. atan2 yields 0 for a pointer
// directly right of center; the +90 offset makes "up" the zero rotation.
func RotationFromPointer(center, p Point) float32 {
	rad := math.Atan2(float64(p.Y-center.Y), float64(p.X-center.X))
	deg := float32(rad*180/math.Pi) + 90
	return NormalizeDegrees(deg)
}

// RadialResizeRatio projects the current pointer vector onto the vector
// recorded at gesture start and returns the scale ratio. Depending only on
// the radial projection keeps resize intuitive when the item is rotated.
// The ratio is clamped to a small positive minimum.
func RadialResizeRatio(center, start, current Point) float32 {
	sx := start.X - center.X
	sy := start.Y - center.Y
	lenSq := sx*sx + sy*sy
	if lenSq < minVectorLength {
		return 1
	}
	cx := current.X - center.X
	cy := current.Y - center.Y
	ratio := (cx*sx + cy*sy) / lenSq
	if ratio < minResizeRatio {
		ratio = minResizeRatio
	}
	return ratio
}

// ClampSize bounds a resized dimension to the global size limits.
func ClampSize(size float32) float32 {
	if size < MinItemSize {
		return MinItemSize
	}
	if size > MaxItemSize {
		return MaxItemSize
	}
	return size
}

// ResizeAboutCenter scales size by ratio, clamps it, and returns the new
// size plus the top-left that keeps center fixed.
func ResizeAboutCenter(center Point, size, ratio float32) (float32, Point) {
	newSize := ClampSize(size * ratio)
	topLeft := Point{X: center.X - newSize/2, Y: center.Y - newSize/2}
	return newSize, topLeft
}
