package deflect

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestEarthElements(t *testing.T) {
	if !scalar.EqualWithinRel(Earth.SemiMajorAxis(), 1.00000261*AU, 1e-12) {
		t.Fatalf("a=%f", Earth.SemiMajorAxis())
	}
	if !scalar.EqualWithinAbs(Earth.Period()/86400, 365.256363004, 1e-9) {
		t.Fatalf("T=%f days", Earth.Period()/86400)
	}
	// The tabulated period is within a few minutes of Kepler's third law.
	if Δ := math.Abs(Earth.Period() - KeplerPeriod(Earth.SemiMajorAxis())); Δ > 3600 {
		t.Fatalf("tabulated and Keplerian periods differ by %f s", Δ)
	}
}

func TestEarthPosition(t *testing.T) {
	// At J2000 the heliocentric longitude of the Earth is ≈100.4°.
	pos := EarthPosition(J2000)
	if λ := Rad2deg(math.Atan2(pos.Helio.Y, pos.Helio.X)); !scalar.EqualWithinAbs(λ, 100.4, 0.5) {
		t.Fatalf("λ=%f at J2000", λ)
	}
	if !scalar.EqualWithinAbs(pos.Helio.Z, 0, 100) {
		t.Fatalf("z=%f km", pos.Helio.Z)
	}
	// Perihelion in early January, aphelion in early July, over several decades.
	for _, year := range []int{2000, 2025, 2050} {
		jan := EarthPosition(CalendarToJulianDate(year, 1, 3)).Helio.R
		jul := EarthPosition(CalendarToJulianDate(year, 7, 4)).Helio.R
		if !scalar.EqualWithinRel(jan, Earth.Perihelion(), 1e-4) {
			t.Fatalf("%d: r=%f km in January, perihelion is %f", year, jan, Earth.Perihelion())
		}
		if !scalar.EqualWithinRel(jul, Earth.Aphelion(), 1e-4) {
			t.Fatalf("%d: r=%f km in July, aphelion is %f", year, jul, Earth.Aphelion())
		}
	}
}

func TestKeplerPeriod(t *testing.T) {
	// T² ∝ a³ with the same constant for every orbit.
	k := func(a float64) float64 { T := KeplerPeriod(a); return T * T / (a * a * a) }
	exp := 4 * math.Pi * math.Pi / SunGM
	for _, a := range []float64{0.4 * AU, AU, 2.7 * AU, 30 * AU} {
		if !scalar.EqualWithinRel(k(a), exp, 1e-12) {
			t.Fatalf("T²/a³=%e != 4π²/μ=%e", k(a), exp)
		}
	}
}
