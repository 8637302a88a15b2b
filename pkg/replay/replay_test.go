package replay

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-wayfinder/pkg/navigation"
)

func parse(t *testing.T, body string) *Scenario {
	t.Helper()
	s, err := Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return s
}

func run(t *testing.T, s *Scenario) *Report {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := Run(ctx, s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return r
}

func TestLoadFile_Walk(t *testing.T) {
	s, err := LoadFile("testdata/walk.yaml")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if s.Name != "hallway walk" || len(s.Frames) != 4 {
		t.Fatalf("scenario: %q with %d frames", s.Name, len(s.Frames))
	}
	if s.RateLimit == nil || s.RateLimit.Duration != 1200*time.Millisecond {
		t.Errorf("rate limit: %v", s.RateLimit)
	}
	if got := s.Frames[1].Detections[0]; got.Label != "chair" || got.Left == nil || *got.Left != 270 {
		t.Errorf("pixel detection: %+v", got)
	}
	if got := s.Frames[2].Detections[0]; got.Normalized == nil || *got.Normalized.Right != 0.7 {
		t.Errorf("normalized detection: %+v", got)
	}

	r := run(t, s)
	if !r.Passed() {
		t.Fatalf("failures: %v", r.Failures)
	}
	if r.Speech.Dispatched != 3 {
		t.Errorf("dispatched %d, want 3", r.Speech.Dispatched)
	}
	if !r.Frames[1].UsedDepth || r.Frames[2].UsedDepth {
		t.Errorf("depth use: %+v", r.Frames)
	}
	if r.Frames[3].Changed {
		t.Error("repeated instruction should not be announced again")
	}
	if r.Depth.Resets != 1 {
		t.Errorf("depth resets: %d", r.Depth.Resets)
	}
}

func TestRun_NewestPendingWins(t *testing.T) {
	s := parse(t, `
name: newest wins
view: {width: 640, height: 480}
frames:
  - at: 0s
  - at: 500ms
    detections:
      - {label: chair, score: 0.9, left: 220, top: 200, right: 420, bottom: 480}
    expect: go right
  - at: 800ms
    detections:
      - {label: chair, score: 0.9, left: 220, top: 200, right: 420, bottom: 480}
      - {label: bin, score: 0.9, left: 440, top: 200, right: 640, bottom: 480}
    expect: go left
expect_spoken:
  - {at: 0s, text: go straight}
  - {at: 1.2s, text: go left}
`)

	r := run(t, s)
	if !r.Passed() {
		t.Fatalf("failures: %v", r.Failures)
	}
	if r.Speech.Superseded != 1 {
		t.Errorf("superseded %d, want 1", r.Speech.Superseded)
	}
}

func TestRun_SpeechReadyLate(t *testing.T) {
	s := parse(t, `
name: late synthesizer
view: {width: 640, height: 480}
speech_ready_at: 2s
frames:
  - at: 0s
  - at: 500ms
    detections:
      - {label: chair, score: 0.9, left: 220, top: 200, right: 420, bottom: 480}
expect_spoken:
  - {at: 2s, text: go right}
`)

	r := run(t, s)
	if !r.Passed() {
		t.Fatalf("failures: %v", r.Failures)
	}
	if r.Speech.Dispatched != 1 || r.Speech.State != "ready" {
		t.Errorf("speech stats: %+v", r.Speech)
	}
}

func TestRun_Spanish(t *testing.T) {
	s := parse(t, `
name: spanish
view: {width: 640, height: 480}
language: es-MX
safe_distance: 3
frames:
  - at: 0s
    detections:
      - {label: silla, score: 0.9, left: 270, top: 200, right: 370, bottom: 300}
    depth: {timestamp: 7, width: 4, height: 3, fill_mm: 2500}
    expect: Sigue por la derecha
`)

	r := run(t, s)
	if !r.Passed() {
		t.Fatalf("failures: %v", r.Failures)
	}
}

func TestRun_ReportsMismatches(t *testing.T) {
	s := parse(t, `
name: wrong
view: {width: 640, height: 480}
frames:
  - at: 0s
    expect: go left
expect_spoken:
  - {at: 0s, text: go straight}
  - {at: 1s, text: go left}
`)

	r := run(t, s)
	if r.Passed() {
		t.Fatal("expected failures")
	}
	if len(r.Failures) != 2 {
		t.Errorf("failures: %v", r.Failures)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"no view", "frames: [{at: 0s}]", ErrInvalidView},
		{"no frames", "view: {width: 10, height: 10}", ErrNoFrames},
		{"negative offset", "view: {width: 10, height: 10}\nframes: [{at: -1s}]", ErrNegativeDelay},
		{"depth without timestamp", "view: {width: 10, height: 10}\nframes: [{at: 0s, depth: {width: 2, height: 2}}]", ErrInvalidDepth},
		{"sample count", "view: {width: 10, height: 10}\nframes: [{at: 0s, depth: {timestamp: 1, width: 2, height: 2, samples: [1, 2, 3]}}]", ErrInvalidDepth},
		{"language", "view: {width: 10, height: 10}\nlanguage: xx\nframes: [{at: 0s}]", navigation.ErrUnknownLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParse_RejectsUnknownFieldsAndBadDurations(t *testing.T) {
	for _, body := range []string{
		"view: {width: 10, height: 10}\nframes: [{at: 0s}]\nspeed: 3",
		"view: {width: 10, height: 10}\nframes: [{at: soon}]",
	} {
		if _, err := Parse(strings.NewReader(body)); err == nil {
			t.Errorf("expected error for %q", body)
		}
	}
}

func TestParse_SortsFrames(t *testing.T) {
	s := parse(t, "view: {width: 10, height: 10}\nframes: [{at: 2s}, {at: 1s}]")
	if s.Frames[0].At.Duration != time.Second {
		t.Errorf("frames not sorted: %+v", s.Frames)
	}
}

func TestDepthSpec_Plane(t *testing.T) {
	d := DepthSpec{Timestamp: 3, Width: 2, Height: 1, Samples: []uint16{1000, 2000}}
	p, err := d.Plane()
	if err != nil {
		t.Fatalf("Plane: %v", err)
	}
	if p.Timestamp != 3 || len(p.Data) != 4 || p.Data[0] != 0xe8 || p.Data[1] != 0x03 {
		t.Errorf("plane: %+v", p)
	}
}
