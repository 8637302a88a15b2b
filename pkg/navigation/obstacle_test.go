package navigation

import (
	"encoding/json"
	"testing"

	"github.com/teslashibe/go-wayfinder/pkg/depth"
	"github.com/teslashibe/go-wayfinder/pkg/geom"
)

func TestSectorOf(t *testing.T) {
	tests := []struct {
		name  string
		box   geom.Rect
		viewW int
		want  Sector
	}{
		{"left third", geom.Rect{Left: 0, Right: 200}, 900, SectorLeft},
		{"center", geom.Rect{Left: 400, Right: 500}, 900, SectorCenter},
		{"right third", geom.Rect{Left: 700, Right: 900}, 900, SectorRight},
		{"exactly one third is center", geom.Rect{Left: 250, Right: 350}, 900, SectorCenter},
		{"exactly two thirds is center", geom.Rect{Left: 550, Right: 650}, 900, SectorCenter},
		{"zero width view", geom.Rect{Left: 0, Right: 10}, 0, SectorCenter},
		{"negative width view", geom.Rect{Left: 0, Right: 10}, -5, SectorCenter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SectorOf(tt.box, tt.viewW); got != tt.want {
				t.Errorf("SectorOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSector_Text(t *testing.T) {
	data, err := json.Marshal([]Sector{SectorLeft, SectorCenter, SectorRight})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["L","C","R"]` {
		t.Errorf("marshal: got %s", data)
	}

	var back []Sector
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back[2] != SectorRight {
		t.Errorf("unmarshal: got %v", back)
	}

	if _, err := json.Marshal(Sector(7)); err == nil {
		t.Error("expected error marshalling an invalid sector")
	}
}

func TestIsApproximatelyClose(t *testing.T) {
	// 1000x1000 view: area ratios are easy to read.
	tests := []struct {
		name string
		box  geom.Rect
		want bool
	}{
		{"15 percent anywhere", geom.Rect{Left: 0, Top: 0, Right: 500, Bottom: 300}, true},
		{"10 percent high in frame", geom.Rect{Left: 0, Top: 200, Right: 500, Bottom: 400}, false},
		{"10 percent low in frame", geom.Rect{Left: 0, Top: 700, Right: 500, Bottom: 900}, true},
		{"10 percent touching three quarters", geom.Rect{Left: 0, Top: 550, Right: 500, Bottom: 750}, false},
		{"small and low", geom.Rect{Left: 0, Top: 900, Right: 100, Bottom: 1000}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsApproximatelyClose(tt.box, 1000, 1000); got != tt.want {
				t.Errorf("IsApproximatelyClose() = %v, want %v", got, tt.want)
			}
		})
	}

	if IsApproximatelyClose(geom.Rect{Right: 10, Bottom: 10}, 0, 100) {
		t.Error("zero-area view must never be close")
	}
}

func TestObstacle_IsBlocking(t *testing.T) {
	tests := []struct {
		name     string
		obstacle Obstacle
		want     bool
	}{
		{"under safe distance", Obstacle{DistanceMeters: dist(0.5)}, true},
		{"at safe distance", Obstacle{DistanceMeters: dist(1.2)}, true},
		{"beyond safe distance", Obstacle{DistanceMeters: dist(1.21)}, false},
		{"approximate without distance", Obstacle{Approximate: true}, true},
		{"no information", Obstacle{}, false},
		{"metric wins over approximate", Obstacle{DistanceMeters: dist(5), Approximate: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.obstacle.IsBlocking(DefaultSafeDistance); got != tt.want {
				t.Errorf("IsBlocking() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildObstacle_NoDepth(t *testing.T) {
	// 900x1000 view, box centered at x=100 covering 20% of the view.
	det := Detection{Label: "car", Box: geom.Rect{Left: 0, Top: 0, Right: 200, Bottom: 900}}

	o := BuildObstacle(det, nil, 900, 1000, depth.DefaultStride)

	if o.Sector != SectorLeft {
		t.Errorf("sector: got %v, want L", o.Sector)
	}
	if o.DistanceMeters != nil {
		t.Errorf("distance: got %v, want nil", *o.DistanceMeters)
	}
	if !o.Approximate {
		t.Error("expected approximate")
	}
	if got := Decide([]Obstacle{o}, DefaultSafeDistance); got != "go straight" {
		t.Errorf("instruction: got %q, want go straight", got)
	}
}

func TestBuildObstacle_WithDepth(t *testing.T) {
	frame := &depth.Frame{Timestamp: 1, Width: 9, Height: 6, Samples: make([]uint16, 54)}
	for i := range frame.Samples {
		frame.Samples[i] = 900
	}
	det := Detection{Label: "chair", Box: geom.Rect{Left: 350, Top: 100, Right: 550, Bottom: 500}}

	o := BuildObstacle(det, frame, 900, 600, depth.DefaultStride)

	if o.Sector != SectorCenter {
		t.Errorf("sector: got %v, want C", o.Sector)
	}
	if o.DistanceMeters == nil || *o.DistanceMeters != 0.9 {
		t.Fatalf("distance: got %v, want 0.9", o.DistanceMeters)
	}
	if o.Approximate {
		t.Error("measured obstacle must not be approximate")
	}
	if got := Decide([]Obstacle{o}, DefaultSafeDistance); got != "go right" {
		t.Errorf("instruction: got %q, want go right", got)
	}
}

func TestBuildObstacle_DepthWithoutSamplesFallsBack(t *testing.T) {
	frame := &depth.Frame{Timestamp: 1, Width: 4, Height: 4, Samples: make([]uint16, 16)}
	det := Detection{Label: "wall", Box: geom.Rect{Left: 300, Top: 0, Right: 600, Bottom: 600}}

	o := BuildObstacle(det, frame, 900, 600, depth.DefaultStride)

	if o.DistanceMeters != nil {
		t.Error("all-invalid depth should give no distance")
	}
	if !o.Approximate {
		t.Error("large box should fall back to approximate close")
	}
}
