// Package services provides the measurement and pricing logic behind
// quote generation: plan geometry, tier pricing, the article price
// cascade and the version draft builder.
package services

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// ErrInvalidCalibration is returned when the two calibration points
// coincide, leaving no pixel distance to derive a scale from.
var ErrInvalidCalibration = errors.New("invalid calibration: zero pixel distance")

// Point is a pixel-space coordinate on a digitized plan.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// metricPlaces is the rounding applied to every geometric result.
const metricPlaces = 4

// PolygonArea computes the real-world area of a polygon drawn in pixel
// space, using the shoelace formula and the plan's scale factor
// (real-world length per pixel). Vertex order does not matter.
// Fewer than 3 points yields zero.
func PolygonArea(points []Point, scale float64) decimal.Decimal {
	if len(points) < 3 {
		return decimal.Zero
	}

	var area float64
	n := len(points)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += points[i].X * points[j].Y
		area -= points[j].X * points[i].Y
	}
	area = math.Abs(area) / 2.0

	real := area * scale * scale
	return decimal.NewFromFloat(real).Round(metricPlaces)
}

// PolygonPerimeter computes the real-world perimeter of a closed polygon,
// wrapping from the last vertex back to the first. Fewer than 2 points
// yields zero.
func PolygonPerimeter(points []Point, scale float64) decimal.Decimal {
	if len(points) < 2 {
		return decimal.Zero
	}

	var perimeter float64
	n := len(points)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		dx := points[j].X - points[i].X
		dy := points[j].Y - points[i].Y
		perimeter += math.Sqrt(dx*dx + dy*dy)
	}

	return decimal.NewFromFloat(perimeter * scale).Round(metricPlaces)
}

// Distance computes the real-world distance between two pixel points.
func Distance(p1, p2 Point, scale float64) decimal.Decimal {
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	pixels := math.Sqrt(dx*dx + dy*dy)
	return decimal.NewFromFloat(pixels * scale).Round(metricPlaces)
}

// DeriveScale computes a plan's scale factor (real-world length per pixel)
// from two calibration points and the known real-world distance between
// them. Returns ErrInvalidCalibration when both points coincide.
func DeriveScale(p1, p2 Point, realDistance float64) (float64, error) {
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	pixels := math.Sqrt(dx*dx + dy*dy)
	if pixels == 0 {
		return 0, ErrInvalidCalibration
	}
	return realDistance / pixels, nil
}

// WallSurface multiplies a room perimeter by its ceiling height.
// Empty or unparseable operands yield zero rather than an error so a
// room with incomplete data never blocks a recomputation pass.
func WallSurface(perimeter, height string) decimal.Decimal {
	p, err := decimal.NewFromString(perimeter)
	if err != nil {
		return decimal.Zero
	}
	h, err := decimal.NewFromString(height)
	if err != nil {
		return decimal.Zero
	}
	return p.Mul(h)
}

// Volume multiplies a room area by its ceiling height, with the same
// fail-soft contract as WallSurface.
func Volume(area, height string) decimal.Decimal {
	a, err := decimal.NewFromString(area)
	if err != nil {
		return decimal.Zero
	}
	h, err := decimal.NewFromString(height)
	if err != nil {
		return decimal.Zero
	}
	return a.Mul(h)
}
