// Package geometry provides the 3D vector arithmetic shared by the
// trajectory, filter, grid, and risk packages. It is a thin layer over
// gonum's r3 package rather than a hand-rolled [3]float64 toolkit.
package geometry

import "gonum.org/v1/gonum/spatial/r3"

// Vec is a point or displacement in meters.
type Vec = r3.Vec

// New builds a Vec from components.
func New(x, y, z float64) Vec {
	return Vec{X: x, Y: y, Z: z}
}

// Sub returns a-b.
func Sub(a, b Vec) Vec {
	return r3.Sub(a, b)
}

// Add returns a+b.
func Add(a, b Vec) Vec {
	return r3.Add(a, b)
}

// Scale returns f*v.
func Scale(f float64, v Vec) Vec {
	return r3.Scale(f, v)
}

// Dot returns a.b.
func Dot(a, b Vec) float64 {
	return r3.Dot(a, b)
}

// Norm returns the Euclidean length of v.
func Norm(v Vec) float64 {
	return r3.Norm(v)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// Lerp returns the point a fraction t of the way from a to b (t need not be
// clamped to [0,1]; callers that want clamping do it themselves).
func Lerp(a, b Vec, t float64) Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Vec) Vec {
	return Lerp(a, b, 0.5)
}

// Clamp01 restricts f to [0,1].
func Clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Clamp restricts f to [lo,hi].
func Clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
