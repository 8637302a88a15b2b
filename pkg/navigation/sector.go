package navigation

import (
	"fmt"

	"github.com/teslashibe/go-wayfinder/pkg/geom"
)

// Sector is a horizontal third of the camera view.
type Sector int

const (
	SectorLeft Sector = iota
	SectorCenter
	SectorRight
)

// String returns the short wire form: L, C or R.
func (s Sector) String() string {
	switch s {
	case SectorLeft:
		return "L"
	case SectorCenter:
		return "C"
	case SectorRight:
		return "R"
	default:
		return fmt.Sprintf("Sector(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Sector) MarshalText() ([]byte, error) {
	switch s {
	case SectorLeft, SectorCenter, SectorRight:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("navigation: invalid sector %d", int(s))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Sector) UnmarshalText(text []byte) error {
	switch string(text) {
	case "L":
		*s = SectorLeft
	case "C":
		*s = SectorCenter
	case "R":
		*s = SectorRight
	default:
		return fmt.Errorf("navigation: unknown sector %q", text)
	}
	return nil
}

// SectorOf places a box by its horizontal center. A non-positive view
// width puts everything in the center.
func SectorOf(box geom.Rect, viewWidth int) Sector {
	if viewWidth <= 0 {
		return SectorCenter
	}
	third := float64(viewWidth) / 3
	cx := box.CenterX()
	switch {
	case cx < third:
		return SectorLeft
	case cx > 2*third:
		return SectorRight
	default:
		return SectorCenter
	}
}
