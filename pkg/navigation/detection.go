// Package navigation turns per-frame object detections into a single
// spoken walking instruction.
//
// Each detection is placed in a horizontal third of the view (Sector),
// given a metric distance from the depth cache when one is available or a
// coarse "approximately close" flag when it is not, and the resulting
// obstacle set is reduced to one instruction by a fixed precedence chain
// (see Engine.Decide). Navigator wires the steps together and forwards
// changed instructions to a Speaker.
package navigation

import (
	"strings"

	"github.com/teslashibe/go-wayfinder/pkg/geom"
)

// Detection is a validated detector output in view-pixel coordinates.
type Detection struct {
	Label string
	Box   geom.Rect
	Score float64
}

// RawBox is a box whose corners may be missing on the wire.
type RawBox struct {
	Left   *float64 `json:"left,omitempty" yaml:"left,omitempty"`
	Top    *float64 `json:"top,omitempty" yaml:"top,omitempty"`
	Right  *float64 `json:"right,omitempty" yaml:"right,omitempty"`
	Bottom *float64 `json:"bottom,omitempty" yaml:"bottom,omitempty"`
}

// rect returns the box when all four corners are present.
func (b RawBox) rect() (geom.Rect, bool) {
	if b.Left == nil || b.Top == nil || b.Right == nil || b.Bottom == nil {
		return geom.Rect{}, false
	}
	return geom.Rect{Left: *b.Left, Top: *b.Top, Right: *b.Right, Bottom: *b.Bottom}, true
}

// RawDetection is a detection as received from the detector host: either
// pixel corners or a Normalized box in [0,1] view units.
type RawDetection struct {
	Label string  `json:"label" yaml:"label"`
	Score float64 `json:"score" yaml:"score"`
	RawBox     `yaml:",inline"`
	Normalized *RawBox `json:"normalized,omitempty" yaml:"normalized,omitempty"`
}

// Pixels builds a RawDetection from pixel corners.
func Pixels(label string, score, left, top, right, bottom float64) RawDetection {
	return RawDetection{
		Label:  label,
		Score:  score,
		RawBox: RawBox{Left: &left, Top: &top, Right: &right, Bottom: &bottom},
	}
}

// Normalized builds a RawDetection from [0,1] corners.
func Normalized(label string, score, left, top, right, bottom float64) RawDetection {
	return RawDetection{
		Label:      label,
		Score:      score,
		Normalized: &RawBox{Left: &left, Top: &top, Right: &right, Bottom: &bottom},
	}
}

// ParseDetections validates raw detections against a view size.
//
// Pixel corners win over normalized ones. Boxes are sorted and clamped
// into the view with a minimum one pixel extent. Entries with a blank
// label, missing or non-finite corners are dropped, as is everything when
// the view size is not positive. Detector jitter makes partial frames
// normal, so nothing here is an error.
func ParseDetections(raw []RawDetection, viewW, viewH int) []Detection {
	if len(raw) == 0 || viewW <= 0 || viewH <= 0 {
		return nil
	}
	w, h := float64(viewW), float64(viewH)

	dets := make([]Detection, 0, len(raw))
	for _, r := range raw {
		label := strings.TrimSpace(r.Label)
		if label == "" {
			continue
		}

		box, ok := r.RawBox.rect()
		if !ok && r.Normalized != nil {
			var n geom.Rect
			if n, ok = r.Normalized.rect(); ok {
				box = n.Scale(w, h)
			}
		}
		if !ok || !box.Finite() {
			continue
		}

		dets = append(dets, Detection{
			Label: label,
			Box:   box.ClampToView(w, h),
			Score: r.Score,
		})
	}
	return dets
}
