// Package geom holds the value types shared by the kernel contract and the
// query layer: points, vectors, segments and a seedable random source.
// Points and vectors are sdfx vectors so they pass through to sdfx-backed
// code without conversion.
package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Epsilon is the default absolute tolerance for coincidence tests, in model
// units (mm).
const Epsilon = 1e-7

// Point is a location in model space.
type Point = v3.Vec

// Vector is a direction or displacement in model space.
type Vector = v3.Vec

// Translate returns p moved by v.
func Translate(p Point, v Vector) Point {
	return p.Add(v)
}

// Angle returns the angle between a and b in radians, in [0, pi].
// Zero-length inputs yield 0.
func Angle(a, b Vector) float64 {
	la, lb := a.Length(), b.Length()
	if la == 0 || lb == 0 {
		return 0
	}
	c := a.Dot(b) / (la * lb)
	// Rounding can push |c| slightly past 1.
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c)
}

// Parallel reports whether a and b are parallel or anti-parallel within tol,
// measured as the sine of the angle between them.
func Parallel(a, b Vector, tol float64) bool {
	la, lb := a.Length(), b.Length()
	if la == 0 || lb == 0 {
		return true
	}
	return a.Cross(b).Length()/(la*lb) <= tol
}

// Coincident reports whether a and b are within tol of each other.
func Coincident(a, b Point, tol float64) bool {
	return a.Sub(b).Length() <= tol
}

// Round rounds x to the given number of decimal digits.
func Round(x float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(x*p) / p
}

// Centroid returns the arithmetic mean of pts, or the zero point when pts
// is empty.
func Centroid(pts []Point) Point {
	var c Point
	if len(pts) == 0 {
		return c
	}
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.DivScalar(float64(len(pts)))
}
