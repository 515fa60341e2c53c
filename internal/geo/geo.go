// Package geo holds the 3-D distance queries used to build control spheres.
package geo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ProfitRadius is the distance in light years within which exploited systems
// contribute to a control system's income and fortification state.
const ProfitRadius = 15.0

// Point is implemented by anything with a position in galactic coordinates.
type Point interface {
	Position() r3.Vec
}

// Vec builds a coordinate vector.
func Vec(x, y, z float64) r3.Vec {
	return r3.Vec{X: x, Y: y, Z: z}
}

// Distance returns the Euclidean distance between a and b at full precision.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// Round1 rounds a distance to one decimal place for display.
func Round1(d float64) float64 {
	return math.Round(d*10) / 10
}

// WithinRadius returns the candidates whose distance to center is at most
// radius, preserving candidate order. Comparison uses unrounded distances.
func WithinRadius[P Point](center r3.Vec, candidates []P, radius float64) []P {
	var out []P
	for _, c := range candidates {
		if Distance(center, c.Position()) <= radius {
			out = append(out, c)
		}
	}
	return out
}
