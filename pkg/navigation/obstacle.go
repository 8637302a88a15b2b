package navigation

import (
	"github.com/teslashibe/go-wayfinder/pkg/depth"
)

// DefaultSafeDistance is the distance in meters at or under which an
// obstacle blocks the way.
const DefaultSafeDistance = 1.2

// Obstacle is a detection placed in the view with whatever distance
// information this frame could provide.
type Obstacle struct {
	Label  string `json:"label"`
	Sector Sector `json:"sector"`

	// DistanceMeters is nil when no metric depth was available.
	DistanceMeters *float64 `json:"distanceMeters"`

	// Approximate is set only when DistanceMeters is nil and the box
	// heuristic judged the object close.
	Approximate bool `json:"approximate"`
}

// IsBlocking reports whether the obstacle is within safe meters. Without a
// metric distance, an approximately close obstacle counts as within range;
// the two are never compared arithmetically.
func (o Obstacle) IsBlocking(safe float64) bool {
	if o.DistanceMeters != nil {
		return *o.DistanceMeters <= safe
	}
	return o.Approximate
}

// BuildObstacle derives an Obstacle from a detection. frame may be nil when
// the sensor has no depth this frame.
func BuildObstacle(det Detection, frame *depth.Frame, viewW, viewH, stride int) Obstacle {
	o := Obstacle{
		Label:  det.Label,
		Sector: SectorOf(det.Box, viewW),
	}
	if frame != nil {
		if meters, ok := frame.Query(det.Box, viewW, viewH, stride); ok {
			o.DistanceMeters = &meters
		}
	}
	if o.DistanceMeters == nil {
		o.Approximate = IsApproximatelyClose(det.Box, viewW, viewH)
	}
	return o
}

// BuildObstacles maps BuildObstacle over a detection batch.
func BuildObstacles(dets []Detection, frame *depth.Frame, viewW, viewH, stride int) []Obstacle {
	obstacles := make([]Obstacle, 0, len(dets))
	for _, d := range dets {
		obstacles = append(obstacles, BuildObstacle(d, frame, viewW, viewH, stride))
	}
	return obstacles
}
