package deflect

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	deg2rad = math.Pi / 180
	twoPi   = 2 * math.Pi
)

// Deg2rad converts degrees to radians. Unlike a display conversion, the angle is not wrapped.
func Deg2rad(a float64) float64 {
	return a * deg2rad
}

// Rad2deg converts radians to degrees, wrapped in [0; 360).
func Rad2deg(a float64) float64 {
	a = math.Mod(a/deg2rad, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// norm returns the norm of a given vector which is supposed to be 3x1.
func norm(v []float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// sub returns a - b for 3x1 vectors.
func sub(a, b []float64) []float64 {
	return []float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// distance returns the Euclidean distance between two vectors.
func distance(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// finite returns whether all values are neither NaN nor infinite.
func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
