package navigation

import "github.com/teslashibe/go-wayfinder/pkg/geom"

// Proximity heuristic thresholds, as fractions of the view.
// Calibrated for a phone held at chest height pointing forward.
const (
	// A box covering this much of the view is close on its own.
	closeAreaRatio = 0.15

	// A smaller box is close when it also reaches the lower quarter of the
	// frame, i.e. it sits on the ground right in front of the user.
	lowAreaRatio   = 0.08
	lowBottomRatio = 0.75
)

// IsApproximatelyClose guesses whether an object is near using only its
// box. It stands in for metric depth and must only be used when no
// distance is available; the result is carried as Obstacle.Approximate.
func IsApproximatelyClose(box geom.Rect, viewW, viewH int) bool {
	total := float64(viewW) * float64(viewH)
	if viewW <= 0 || viewH <= 0 || total <= 0 {
		return false
	}

	ratio := box.Area() / total
	if ratio >= closeAreaRatio {
		return true
	}
	return ratio >= lowAreaRatio && box.Bottom > float64(viewH)*lowBottomRatio
}
