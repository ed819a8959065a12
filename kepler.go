package deflect

import (
	"fmt"
	"math"
)

const (
	// KeplerTolerance is the convergence threshold on the eccentric anomaly correction (radians).
	KeplerTolerance = 1e-8
	// KeplerMaxIterations caps the Newton-Raphson iterations.
	KeplerMaxIterations = 20
	// NearParabolicEccentricity is the eccentricity above which the fixed-iteration solver degrades.
	NearParabolicEccentricity = 0.99
)

// KeplerSolver solves Kepler's equation M = E - e sin(E) with Newton-Raphson.
// The zero value is not usable, use DefaultKeplerSolver.
type KeplerSolver struct {
	Tolerance     float64
	MaxIterations int
}

// DefaultKeplerSolver is the solver used by the propagator.
var DefaultKeplerSolver = KeplerSolver{Tolerance: KeplerTolerance, MaxIterations: KeplerMaxIterations}

// Solve returns the eccentric anomaly E for the mean anomaly M and eccentricity e.
// The best estimate is returned even if the tolerance was not reached.
func (s KeplerSolver) Solve(M, e float64) float64 {
	E, _, _ := s.SolveIter(M, e)
	return E
}

// SolveIter is Solve which also returns the number of iterations performed
// and whether the last correction was under the tolerance.
func (s KeplerSolver) SolveIter(M, e float64) (E float64, iterations int, converged bool) {
	E = M
	for iterations < s.MaxIterations {
		sinE, cosE := math.Sincos(E)
		ΔE := (E - e*sinE - M) / (1 - e*cosE)
		E -= ΔE
		iterations++
		if math.Abs(ΔE) < s.Tolerance {
			converged = true
			break
		}
	}
	return
}

// SolveKepler solves Kepler's equation with the default solver.
func SolveKepler(M, e float64) float64 {
	return DefaultKeplerSolver.Solve(M, e)
}

// CheckEccentricity returns ErrNearParabolic when e is too close to 1 for the solver to be trusted.
// Callers needing strict convergence guarantees should call this before solving.
func CheckEccentricity(e float64) error {
	if e >= NearParabolicEccentricity {
		return fmt.Errorf("%w: e=%f >= %.2f", ErrNearParabolic, e, NearParabolicEccentricity)
	}
	return nil
}
