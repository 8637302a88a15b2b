// Package geom provides the rectangle type shared by depth sampling and
// obstacle classification. Coordinates are view pixels unless noted.
package geom

import "math"

// Rect is an axis-aligned box with float coordinates.
type Rect struct {
	Left   float64 `json:"left" yaml:"left"`
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
}

// Width returns Right - Left (negative for unsorted rects).
func (r Rect) Width() float64 {
	return r.Right - r.Left
}

// Height returns Bottom - Top (negative for unsorted rects).
func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

// Area returns Width * Height.
func (r Rect) Area() float64 {
	return r.Width() * r.Height()
}

// CenterX returns the horizontal center of the box.
func (r Rect) CenterX() float64 {
	return (r.Left + r.Right) / 2
}

// Empty reports whether the rect has no interior.
func (r Rect) Empty() bool {
	return r.Left >= r.Right || r.Top >= r.Bottom
}

// Finite reports whether all four coordinates are finite numbers.
func (r Rect) Finite() bool {
	for _, v := range [4]float64{r.Left, r.Top, r.Right, r.Bottom} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Sorted swaps coordinates so that Left <= Right and Top <= Bottom.
func (r Rect) Sorted() Rect {
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Top > r.Bottom {
		r.Top, r.Bottom = r.Bottom, r.Top
	}
	return r
}

// Intersect clips r to the box [0,width]×[0,height].
// The result may be Empty.
func (r Rect) Intersect(width, height float64) Rect {
	return Rect{
		Left:   math.Max(0, r.Left),
		Top:    math.Max(0, r.Top),
		Right:  math.Min(width, r.Right),
		Bottom: math.Min(height, r.Bottom),
	}
}

// ClampToView sorts r and forces it inside a width×height view:
// left/top into [0, size-1], right/bottom into [left+1, size].
// The result always has at least a one pixel extent.
func (r Rect) ClampToView(width, height float64) Rect {
	r = r.Sorted()
	maxLeft := math.Max(0, width-1)
	maxTop := math.Max(0, height-1)

	left := clamp(r.Left, 0, maxLeft)
	top := clamp(r.Top, 0, maxTop)
	return Rect{
		Left:   left,
		Top:    top,
		Right:  clamp(r.Right, left+1, math.Max(left+1, width)),
		Bottom: clamp(r.Bottom, top+1, math.Max(top+1, height)),
	}
}

// Scale multiplies x coordinates by sx and y coordinates by sy.
func (r Rect) Scale(sx, sy float64) Rect {
	return Rect{
		Left:   r.Left * sx,
		Top:    r.Top * sy,
		Right:  r.Right * sx,
		Bottom: r.Bottom * sy,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
