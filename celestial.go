package deflect

import "math"

const (
	// AU is one astronomical unit in kilometers.
	AU = 1.495978707e8
	// SunGM is the gravitational parameter μ of the Sun in km³/s².
	SunGM = 1.32712440018e11

	// earthSiderealYear is the sidereal year in days.
	earthSiderealYear = 365.256363004
)

// KeplerPeriod returns the period in seconds of a heliocentric orbit of semi major axis a (km).
func KeplerPeriod(a float64) float64 {
	return twoPi * math.Sqrt(a*a*a/SunGM)
}

// earthRecord holds the J2000.0 mean elements of the Earth-Moon barycenter.
// ω is the longitude of perihelion since Ω is zero, and M0 = L - ϖ.
var earthRecord = ElementRecord{
	SemiMajorAxis:          1.00000261,
	Eccentricity:           0.01671123,
	Inclination:            -0.00001531,
	AscendingNodeLongitude: 0,
	PerihelionArgument:     102.93768193,
	MeanAnomaly:            100.46457166 - 102.93768193,
	MeanMotion:             360 / earthSiderealYear,
	EpochOsculation:        J2000,
	OrbitalPeriod:          earthSiderealYear,
}

// Earth is the element set of the Earth, propagated like any other body.
var Earth = mustElements(NewElementsFromRecord(earthRecord))

// EarthPosition returns the heliocentric position of the Earth at the Julian Date.
func EarthPosition(jd float64) Position {
	return PositionAtTime(Earth, jd)
}

// GeocentricDistance returns the distance in km between the Earth and the provided position.
func GeocentricDistance(p Position) float64 {
	return p.Helio.DistanceTo(EarthPosition(p.JD).Helio)
}

func mustElements(o Elements, err error) Elements {
	if err != nil {
		panic(err)
	}
	return o
}
