package services

import (
	"errors"
	"testing"
)

func TestPolygonArea_Rectangle(t *testing.T) {
	// 40x30 px rectangle at 0.1 m/px -> 4m x 3m = 12 m².
	points := []Point{{0, 0}, {40, 0}, {40, 30}, {0, 30}}

	got := PolygonArea(points, 0.1)
	if got.String() != "12" {
		t.Errorf("PolygonArea() = %s, want 12", got)
	}
}

func TestPolygonArea_VertexOrderInvariant(t *testing.T) {
	clockwise := []Point{{0, 0}, {0, 30}, {40, 30}, {40, 0}}
	counter := []Point{{0, 0}, {40, 0}, {40, 30}, {0, 30}}

	cw := PolygonArea(clockwise, 0.1)
	ccw := PolygonArea(counter, 0.1)
	if !cw.Equal(ccw) {
		t.Errorf("clockwise %s != counter-clockwise %s", cw, ccw)
	}

	// Rotating the vertex list must not change the result either.
	rotated := []Point{{40, 30}, {0, 30}, {0, 0}, {40, 0}}
	if rot := PolygonArea(rotated, 0.1); !rot.Equal(ccw) {
		t.Errorf("rotated %s != original %s", rot, ccw)
	}
}

func TestPolygonArea_Triangle(t *testing.T) {
	// Right triangle 30x40 px at scale 1 -> 600.
	points := []Point{{0, 0}, {30, 0}, {0, 40}}
	got := PolygonArea(points, 1)
	if got.String() != "600" {
		t.Errorf("PolygonArea() = %s, want 600", got)
	}
}

func TestPolygonArea_Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
	}{
		{"nil", nil},
		{"single point", []Point{{5, 5}}},
		{"two points", []Point{{0, 0}, {10, 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PolygonArea(tt.points, 1); !got.IsZero() {
				t.Errorf("PolygonArea(%v) = %s, want 0", tt.points, got)
			}
		})
	}
}

func TestPolygonPerimeter(t *testing.T) {
	// 40x30 px rectangle at 0.1 m/px -> 2*(4+3) = 14 m.
	points := []Point{{0, 0}, {40, 0}, {40, 30}, {0, 30}}
	got := PolygonPerimeter(points, 0.1)
	if got.String() != "14" {
		t.Errorf("PolygonPerimeter() = %s, want 14", got)
	}
}

func TestPolygonPerimeter_ClosesTheLoop(t *testing.T) {
	// Two points: segment there and back.
	points := []Point{{0, 0}, {30, 40}}
	got := PolygonPerimeter(points, 1)
	if got.String() != "100" {
		t.Errorf("PolygonPerimeter() = %s, want 100", got)
	}

	if got := PolygonPerimeter([]Point{{5, 5}}, 1); !got.IsZero() {
		t.Errorf("single point perimeter = %s, want 0", got)
	}
}

func TestDistance(t *testing.T) {
	// 3-4-5 triangle: 50 px at 0.5 m/px -> 25 m.
	got := Distance(Point{0, 0}, Point{30, 40}, 0.5)
	if got.String() != "25" {
		t.Errorf("Distance() = %s, want 25", got)
	}
}

func TestDeriveScale(t *testing.T) {
	scale, err := DeriveScale(Point{0, 0}, Point{30, 40}, 25)
	if err != nil {
		t.Fatalf("DeriveScale() error = %v", err)
	}
	if scale != 0.5 {
		t.Errorf("DeriveScale() = %v, want 0.5", scale)
	}
}

func TestDeriveScale_CoincidingPoints(t *testing.T) {
	_, err := DeriveScale(Point{10, 10}, Point{10, 10}, 5)
	if !errors.Is(err, ErrInvalidCalibration) {
		t.Errorf("DeriveScale() error = %v, want ErrInvalidCalibration", err)
	}
}

func TestWallSurface(t *testing.T) {
	tests := []struct {
		name      string
		perimeter string
		height    string
		expect    string
	}{
		{"basic", "14", "2.5", "35"},
		{"empty perimeter", "", "2.5", "0"},
		{"empty height", "14", "", "0"},
		{"garbage input", "abc", "2.5", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WallSurface(tt.perimeter, tt.height)
			if got.String() != tt.expect {
				t.Errorf("WallSurface(%q, %q) = %s, want %s",
					tt.perimeter, tt.height, got, tt.expect)
			}
		})
	}
}

func TestVolume(t *testing.T) {
	if got := Volume("12", "2.5"); got.String() != "30" {
		t.Errorf("Volume() = %s, want 30", got)
	}
	if got := Volume("", "2.5"); !got.IsZero() {
		t.Errorf("Volume with empty area = %s, want 0", got)
	}
}
