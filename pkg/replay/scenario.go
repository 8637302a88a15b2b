// Package replay runs recorded or hand-written detection sequences through
// the navigation pipeline on a simulated clock, so speech timing can be
// checked without waiting in real time.
package replay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-wayfinder/pkg/depth"
	"github.com/teslashibe/go-wayfinder/pkg/navigation"
)

// Sentinel errors for scenario validation.
var (
	ErrInvalidView   = errors.New("replay: view width and height must be positive")
	ErrNoFrames      = errors.New("replay: scenario has no frames")
	ErrInvalidDepth  = errors.New("replay: depth needs a timestamp and positive size")
	ErrNegativeDelay = errors.New("replay: frame offsets must not be negative")
)

// Scenario is one replayable session.
type Scenario struct {
	Name         string      `yaml:"name"`
	View         View        `yaml:"view"`
	SafeDistance float64     `yaml:"safe_distance,omitempty"`
	Language     string      `yaml:"language,omitempty"`
	RateLimit    *Duration   `yaml:"rate_limit,omitempty"`
	SpeechReady  Duration    `yaml:"speech_ready_at,omitempty"` // synthesizer init delay
	Frames       []Frame     `yaml:"frames"`
	ExpectSpoken []Utterance `yaml:"expect_spoken,omitempty"`
}

// View is the camera view size in pixels.
type View struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Frame is one detection batch at an offset from the session start.
type Frame struct {
	At         Duration                  `yaml:"at"`
	Reset      bool                      `yaml:"reset,omitempty"` // sensor paused before this frame
	Detections []navigation.RawDetection `yaml:"detections,omitempty"`
	Depth      *DepthSpec                `yaml:"depth,omitempty"`
	Expect     string                    `yaml:"expect,omitempty"` // expected instruction
}

// DepthSpec describes a synthetic depth plane: either explicit row-major
// samples or a uniform fill, in millimeters.
type DepthSpec struct {
	Timestamp int64    `yaml:"timestamp"`
	Width     int      `yaml:"width"`
	Height    int      `yaml:"height"`
	FillMM    uint16   `yaml:"fill_mm,omitempty"`
	Samples   []uint16 `yaml:"samples,omitempty"`
}

// Utterance is a dispatched instruction and when it was handed to the
// synthesizer.
type Utterance struct {
	At   Duration `yaml:"at" json:"at"`
	Text string   `yaml:"text" json:"text"`
}

// Duration is a time.Duration written as "1200ms" in YAML.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("replay: line %d: %w", value.Line, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// MarshalText writes the duration string for JSON reports.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Plane builds the encoded depth plane.
func (d *DepthSpec) Plane() (*depth.Plane, error) {
	if d.Timestamp == 0 || d.Width <= 0 || d.Height <= 0 {
		return nil, ErrInvalidDepth
	}
	n := d.Width * d.Height
	samples := d.Samples
	if len(samples) == 0 {
		samples = make([]uint16, n)
		for i := range samples {
			samples[i] = d.FillMM
		}
	}
	if len(samples) != n {
		return nil, fmt.Errorf("%w: %d samples for %dx%d", ErrInvalidDepth, len(samples), d.Width, d.Height)
	}
	return depth.EncodePlane(d.Timestamp, d.Width, d.Height, samples), nil
}

// Parse decodes a scenario and validates it. Frames are ordered by offset.
func Parse(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("replay: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(s.Frames, func(i, j int) bool {
		return s.Frames[i].At.Duration < s.Frames[j].At.Duration
	})
	return &s, nil
}

// LoadFile reads a scenario from disk.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks the scenario.
func (s *Scenario) Validate() error {
	if s.View.Width <= 0 || s.View.Height <= 0 {
		return ErrInvalidView
	}
	if len(s.Frames) == 0 {
		return ErrNoFrames
	}
	for i, f := range s.Frames {
		if f.At.Duration < 0 {
			return fmt.Errorf("frame %d: %w", i, ErrNegativeDelay)
		}
		if f.Depth != nil {
			if _, err := f.Depth.Plane(); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
		}
	}
	if s.SpeechReady.Duration < 0 {
		return ErrNegativeDelay
	}
	if _, err := navigation.PhrasebookFor(s.Language); err != nil {
		return err
	}
	return nil
}
