package navigation

import (
	"fmt"
	"math"
	"strings"
)

// crosswalkLabel is the detector class that triggers crossing guidance.
const crosswalkLabel = "crosswalk"

// Engine chooses one instruction for a frame's obstacle set.
// The zero value uses English and DefaultSafeDistance.
type Engine struct {
	Phrases      Phrasebook
	SafeDistance float64
}

// Decide returns the English instruction for obstacles with the given safe
// distance in meters.
func Decide(obstacles []Obstacle, safe float64) string {
	return Engine{Phrases: English, SafeDistance: safe}.Decide(obstacles)
}

// Decide applies the rules below in order; the first match wins.
//
//  1. No obstacles: go straight.
//  2. Any "crosswalk" (case-insensitive): crosswalk guidance, regardless
//     of everything else in the frame.
//  3. Center blocked: go right if the right third is clear, else left if
//     the left third is clear, else stop. Right is always tried first.
//  4. Center clear: caution about the nearest center obstacle, where
//     obstacles without a distance rank behind all measured ones.
//  5. Nothing in the center: go straight.
func (e Engine) Decide(obstacles []Obstacle) string {
	p := e.phrases()
	safe := e.safeDistance()

	if len(obstacles) == 0 {
		return p.GoStraight
	}

	for _, o := range obstacles {
		if strings.EqualFold(o.Label, crosswalkLabel) {
			return p.Crosswalk
		}
	}

	var blocked [3]bool
	var center []Obstacle
	for _, o := range obstacles {
		if o.Sector < SectorLeft || o.Sector > SectorRight {
			continue
		}
		if o.IsBlocking(safe) {
			blocked[o.Sector] = true
		}
		if o.Sector == SectorCenter {
			center = append(center, o)
		}
	}

	if blocked[SectorCenter] {
		switch {
		case !blocked[SectorRight]:
			return p.GoRight
		case !blocked[SectorLeft]:
			return p.GoLeft
		default:
			return p.Stop
		}
	}

	caution, ok := nearest(center)
	if !ok {
		return p.GoStraight
	}
	return p.caution(caution)
}

// caution renders the warning for a single obstacle.
func (p Phrasebook) caution(o Obstacle) string {
	switch {
	case o.DistanceMeters != nil:
		return fmt.Sprintf(p.CautionAt, o.Label, p.meters(*o.DistanceMeters))
	case o.Approximate:
		return fmt.Sprintf(p.CautionClose, o.Label)
	default:
		return fmt.Sprintf(p.Caution, o.Label)
	}
}

func (e Engine) phrases() Phrasebook {
	if e.Phrases.GoStraight == "" {
		return English
	}
	return e.Phrases
}

func (e Engine) safeDistance() float64 {
	if e.SafeDistance <= 0 || math.IsNaN(e.SafeDistance) {
		return DefaultSafeDistance
	}
	return e.SafeDistance
}

// nearest returns the first obstacle with the smallest distance, treating
// a missing distance as infinitely far.
func nearest(obstacles []Obstacle) (Obstacle, bool) {
	if len(obstacles) == 0 {
		return Obstacle{}, false
	}
	best := 0
	bestDist := math.Inf(1)
	for i, o := range obstacles {
		d := math.Inf(1)
		if o.DistanceMeters != nil {
			d = *o.DistanceMeters
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return obstacles[best], true
}
