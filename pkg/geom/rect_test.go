package geom

import (
	"math"
	"testing"
)

func TestRect_AreaAndCenter(t *testing.T) {
	r := Rect{Left: 10, Top: 20, Right: 110, Bottom: 70}

	if got := r.Area(); got != 5000 {
		t.Errorf("Area: got %v, want 5000", got)
	}
	if got := r.CenterX(); got != 60 {
		t.Errorf("CenterX: got %v, want 60", got)
	}
}

func TestRect_Empty(t *testing.T) {
	tests := []struct {
		name string
		rect Rect
		want bool
	}{
		{"normal", Rect{0, 0, 10, 10}, false},
		{"zero width", Rect{5, 0, 5, 10}, true},
		{"zero height", Rect{0, 5, 10, 5}, true},
		{"inverted", Rect{10, 0, 0, 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rect.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRect_Finite(t *testing.T) {
	if !(Rect{1, 2, 3, 4}).Finite() {
		t.Error("finite rect reported as non-finite")
	}
	if (Rect{math.NaN(), 2, 3, 4}).Finite() {
		t.Error("NaN rect reported as finite")
	}
	if (Rect{1, 2, math.Inf(1), 4}).Finite() {
		t.Error("Inf rect reported as finite")
	}
}

func TestRect_ClampToView(t *testing.T) {
	tests := []struct {
		name string
		rect Rect
		want Rect
	}{
		{
			name: "inside view unchanged",
			rect: Rect{10, 20, 100, 200},
			want: Rect{10, 20, 100, 200},
		},
		{
			name: "inverted coordinates sorted",
			rect: Rect{100, 200, 10, 20},
			want: Rect{10, 20, 100, 200},
		},
		{
			name: "overflow clipped",
			rect: Rect{-50, -10, 1000, 800},
			want: Rect{0, 0, 640, 480},
		},
		{
			name: "collapsed box keeps one pixel",
			rect: Rect{700, 500, 700, 500},
			want: Rect{639, 479, 640, 480},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rect.ClampToView(640, 480)
			if got != tt.want {
				t.Errorf("ClampToView: got %+v, want %+v", got, tt.want)
			}
			if got.Empty() {
				t.Error("ClampToView produced an empty rect")
			}
		})
	}
}

func TestRect_Intersect(t *testing.T) {
	got := Rect{-10, -10, 50, 50}.Intersect(40, 30)
	want := Rect{0, 0, 40, 30}
	if got != want {
		t.Errorf("Intersect: got %+v, want %+v", got, want)
	}

	if !(Rect{50, 50, 60, 60}).Intersect(40, 30).Empty() {
		t.Error("rect outside view should intersect to empty")
	}
}
