package navigation

import (
	"testing"
)

func dist(m float64) *float64 { return &m }

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		obstacles []Obstacle
		want      string
	}{
		{
			name: "empty set goes straight",
			want: "go straight",
		},
		{
			name: "crosswalk wins over blocked center",
			obstacles: []Obstacle{
				{Label: "person", Sector: SectorCenter, DistanceMeters: dist(0.3)},
				{Label: "car", Sector: SectorLeft, Approximate: true},
				{Label: "CrossWalk", Sector: SectorRight, DistanceMeters: dist(9)},
			},
			want: "crosswalk ahead, proceed to cross",
		},
		{
			name: "crosswalk alone",
			obstacles: []Obstacle{
				{Label: "crosswalk", Sector: SectorCenter},
			},
			want: "crosswalk ahead, proceed to cross",
		},
		{
			name: "blocked center with clear sides prefers right",
			obstacles: []Obstacle{
				{Label: "chair", Sector: SectorCenter, DistanceMeters: dist(0.9)},
			},
			want: "go right",
		},
		{
			name: "blocked center and right goes left",
			obstacles: []Obstacle{
				{Label: "chair", Sector: SectorCenter, DistanceMeters: dist(0.9)},
				{Label: "bench", Sector: SectorRight, Approximate: true},
			},
			want: "go left",
		},
		{
			name: "everything blocked stops",
			obstacles: []Obstacle{
				{Label: "chair", Sector: SectorCenter, DistanceMeters: dist(1.0)},
				{Label: "bench", Sector: SectorRight, DistanceMeters: dist(0.5)},
				{Label: "tree", Sector: SectorLeft, Approximate: true},
			},
			want: "stop, obstacles around",
		},
		{
			name: "far right obstacle does not block right",
			obstacles: []Obstacle{
				{Label: "chair", Sector: SectorCenter, Approximate: true},
				{Label: "bench", Sector: SectorRight, DistanceMeters: dist(3.0)},
				{Label: "tree", Sector: SectorLeft, DistanceMeters: dist(0.5)},
			},
			want: "go right",
		},
		{
			name: "center exactly at safe distance blocks",
			obstacles: []Obstacle{
				{Label: "pole", Sector: SectorCenter, DistanceMeters: dist(1.2)},
			},
			want: "go right",
		},
		{
			name: "nearest center obstacle is announced with distance",
			obstacles: []Obstacle{
				{Label: "bike", Sector: SectorCenter, DistanceMeters: dist(4.25)},
				{Label: "door", Sector: SectorCenter},
				{Label: "person", Sector: SectorCenter, DistanceMeters: dist(2.04)},
				{Label: "car", Sector: SectorLeft, DistanceMeters: dist(1.5)},
			},
			want: "caution person ahead at 2.0 meters",
		},
		{
			name: "unmeasured center obstacle is announced bare",
			obstacles: []Obstacle{
				{Label: "door", Sector: SectorCenter},
			},
			want: "caution door ahead",
		},
		{
			name: "nearest of two measured center obstacles",
			obstacles: []Obstacle{
				{Label: "dog", Sector: SectorCenter, DistanceMeters: dist(2.5)},
				{Label: "cat", Sector: SectorCenter, DistanceMeters: dist(1.6)},
			},
			want: "caution cat ahead at 1.6 meters",
		},
		{
			name: "side obstacles only goes straight",
			obstacles: []Obstacle{
				{Label: "car", Sector: SectorLeft, Approximate: true},
				{Label: "car", Sector: SectorRight, DistanceMeters: dist(0.4)},
			},
			want: "go straight",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.obstacles, DefaultSafeDistance)
			if got != tt.want {
				t.Errorf("Decide() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPhrasebook_Caution(t *testing.T) {
	tests := []struct {
		name     string
		obstacle Obstacle
		want     string
	}{
		{"with distance", Obstacle{Label: "box", DistanceMeters: dist(0.84)}, "caution box ahead at 0.8 meters"},
		{"approximate only", Obstacle{Label: "box", Approximate: true}, "caution box ahead, very close"},
		{"neither", Obstacle{Label: "box"}, "caution box ahead"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := English.caution(tt.obstacle); got != tt.want {
				t.Errorf("caution() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEngine_SafeDistanceOverride(t *testing.T) {
	obstacles := []Obstacle{{Label: "chair", Sector: SectorCenter, DistanceMeters: dist(1.5)}}

	if got := Decide(obstacles, 1.2); got != "caution chair ahead at 1.5 meters" {
		t.Errorf("safe=1.2: got %q", got)
	}
	if got := Decide(obstacles, 2.0); got != "go right" {
		t.Errorf("safe=2.0: got %q", got)
	}
	if got := Decide(obstacles, 0); got != "caution chair ahead at 1.5 meters" {
		t.Errorf("safe=0 should fall back to default: got %q", got)
	}
}

func TestEngine_Spanish(t *testing.T) {
	e := Engine{Phrases: Spanish, SafeDistance: DefaultSafeDistance}

	tests := []struct {
		obstacles []Obstacle
		want      string
	}{
		{nil, "Sigue derecho"},
		{[]Obstacle{{Label: "silla", Sector: SectorCenter, DistanceMeters: dist(0.5)}}, "Sigue por la derecha"},
		{[]Obstacle{{Label: "silla", Sector: SectorCenter, DistanceMeters: dist(2.5)}}, "Cuidado silla al frente a 2,5 metros"},
	}

	for _, tt := range tests {
		if got := e.Decide(tt.obstacles); got != tt.want {
			t.Errorf("Decide() = %q, want %q", got, tt.want)
		}
	}
}

func TestPhrasebookFor(t *testing.T) {
	tests := []struct {
		lang    string
		want    string
		wantErr bool
	}{
		{"", "en", false},
		{"en", "en", false},
		{"es-MX", "es", false},
		{"ES_es", "es", false},
		{"fr", "", true},
	}

	for _, tt := range tests {
		p, err := PhrasebookFor(tt.lang)
		if (err != nil) != tt.wantErr {
			t.Errorf("PhrasebookFor(%q) error = %v, wantErr %v", tt.lang, err, tt.wantErr)
			continue
		}
		if p.Language != tt.want {
			t.Errorf("PhrasebookFor(%q) = %q, want %q", tt.lang, p.Language, tt.want)
		}
	}
}
