package deflect

import (
	"errors"
	"fmt"
	"math"

	json "github.com/goccy/go-json"
	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

const (
	eccentricityε = 5e-5                         // 0.00005
	angleε        = (5e-3 / 360) * (2 * math.Pi) // 0.005 degrees
	distanceε     = 2e1                          // 20 km
)

// Elements is an immutable set of heliocentric Keplerian elements.
// Distances are in km, angles in radians, the mean motion in rad/s and the epoch is a Julian Date.
type Elements struct {
	a, e, i, Ω, ω float64
	M0            float64 // mean anomaly at epoch
	n             float64 // mean motion
	epoch         float64
	period        float64
}

// NewElements returns a validated element set.
// A non positive period is derived from Kepler's third law, and a zero mean motion from the period.
func NewElements(a, e, i, Ω, ω, M0, n, epochJD, period float64) (Elements, error) {
	if !finite(a, e, i, Ω, ω, M0, n, epochJD, period) {
		return Elements{}, fmt.Errorf("%w: non finite value", ErrInvalidOrbitalElements)
	}
	if a <= 0 {
		return Elements{}, fmt.Errorf("%w: semi major axis %f km is not positive", ErrInvalidOrbitalElements, a)
	}
	if e < 0 || e >= 1 {
		return Elements{}, fmt.Errorf("%w: eccentricity %f not in [0; 1)", ErrInvalidOrbitalElements, e)
	}
	if period <= 0 {
		period = KeplerPeriod(a)
	}
	if n == 0 {
		n = twoPi / period
	}
	return Elements{a: a, e: e, i: i, Ω: Ω, ω: ω, M0: M0, n: n, epoch: epochJD, period: period}, nil
}

// ElementRecord is an element set in the units of the NASA small body services.
type ElementRecord struct {
	SemiMajorAxis          float64 // AU
	Eccentricity           float64
	Inclination            float64 // degrees
	AscendingNodeLongitude float64 // degrees
	PerihelionArgument     float64 // degrees
	MeanAnomaly            float64 // degrees
	MeanMotion             float64 // degrees/day
	EpochOsculation        float64 // Julian Date
	OrbitalPeriod          float64 // days
}

// NewElementsFromRecord converts a raw record into an element set.
// A missing period is taken from the mean motion, or from Kepler's third law when both are missing.
func NewElementsFromRecord(r ElementRecord) (Elements, error) {
	period := r.OrbitalPeriod * secondsPerDay
	if period <= 0 && r.MeanMotion > 0 {
		period = 360 / r.MeanMotion * secondsPerDay
	}
	rad := func(deg float64) float64 { return unit.AngleFromDeg(deg).Rad() }
	return NewElements(r.SemiMajorAxis*AU, r.Eccentricity,
		rad(r.Inclination), rad(r.AscendingNodeLongitude), rad(r.PerihelionArgument),
		rad(r.MeanAnomaly), rad(r.MeanMotion)/secondsPerDay,
		r.EpochOsculation, period)
}

// SemiMajorAxis returns a in km.
func (o Elements) SemiMajorAxis() float64 { return o.a }

// Eccentricity returns e.
func (o Elements) Eccentricity() float64 { return o.e }

// Inclination returns i in radians.
func (o Elements) Inclination() float64 { return o.i }

// AscendingNode returns the longitude of the ascending node Ω in radians.
func (o Elements) AscendingNode() float64 { return o.Ω }

// ArgPerihelion returns the argument of perihelion ω in radians.
func (o Elements) ArgPerihelion() float64 { return o.ω }

// MeanAnomalyAtEpoch returns M0 in radians.
func (o Elements) MeanAnomalyAtEpoch() float64 { return o.M0 }

// MeanMotion returns n in rad/s.
func (o Elements) MeanMotion() float64 { return o.n }

// Epoch returns the Julian Date of the elements.
func (o Elements) Epoch() float64 { return o.epoch }

// Period returns the orbital period in seconds.
func (o Elements) Period() float64 { return o.period }

// Perihelion returns the perihelion distance in km.
func (o Elements) Perihelion() float64 {
	return o.a * (1 - o.e)
}

// Aphelion returns the aphelion distance in km.
func (o Elements) Aphelion() float64 {
	return o.a * (1 + o.e)
}

// CheckConvergence returns ErrNearParabolic if the Kepler solver cannot be trusted for this orbit.
func (o Elements) CheckConvergence() error {
	return CheckEccentricity(o.e)
}

// Orientation returns the rotation matrix from the orbital plane to the ecliptic.
func (o Elements) Orientation() *mat.Dense {
	return PerifocalToEcliptic(o.i, o.Ω, o.ω)
}

// withOrbitChange returns a copy with the semi major axis and the period of the change.
// The mean motion follows the new period.
func (o Elements) withOrbitChange(c OrbitChange) Elements {
	o.a = c.NewSemiMajorAxis
	o.period = c.NewPeriod
	o.n = twoPi / c.NewPeriod
	return o
}

// MarshalJSON encodes the elements in their internal units.
func (o Elements) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		A      float64 `json:"semiMajorAxis_km"`
		E      float64 `json:"eccentricity"`
		I      float64 `json:"inclination_rad"`
		Ω      float64 `json:"longitudeAscendingNode_rad"`
		ω      float64 `json:"argumentPerihelion_rad"`
		M0     float64 `json:"meanAnomalyAtEpoch_rad"`
		N      float64 `json:"meanMotion_rad_per_sec"`
		Epoch  float64 `json:"epoch_JD"`
		Period float64 `json:"period_sec"`
	}{o.a, o.e, o.i, o.Ω, o.ω, o.M0, o.n, o.epoch, o.period})
}

// String implements the stringer interface.
func (o Elements) String() string {
	return fmt.Sprintf("a=%.1f e=%.4f i=%.3f Ω=%.3f ω=%.3f M0=%.3f epoch=%.1f", o.a, o.e, Rad2deg(o.i), Rad2deg(o.Ω), Rad2deg(o.ω), Rad2deg(o.M0), o.epoch)
}

// Equals returns whether two element sets describe the same orbit within tolerances.
func (o Elements) Equals(o1 Elements) (bool, error) {
	if !scalar.EqualWithinAbs(o.a, o1.a, distanceε) {
		return false, errors.New("semi major axis invalid")
	}
	if !scalar.EqualWithinAbs(o.e, o1.e, eccentricityε) {
		return false, errors.New("eccentricity invalid")
	}
	if !anglesEqual(o.i, o1.i) {
		return false, errors.New("inclination invalid")
	}
	if !anglesEqual(o.Ω, o1.Ω) {
		return false, errors.New("RAAN invalid")
	}
	if !anglesEqual(o.ω, o1.ω) {
		return false, errors.New("argument of perihelion invalid")
	}
	if !anglesEqual(o.M0, o1.M0) {
		return false, errors.New("mean anomaly invalid")
	}
	return true, nil
}

func anglesEqual(a, b float64) bool {
	d := math.Mod(math.Abs(a-b), twoPi)
	return d < angleε || twoPi-d < angleε
}

// PlanePosition is a position in the orbital plane (km), perihelion along x.
type PlanePosition struct {
	X, Y, R float64
}

// HelioPosition is a heliocentric ecliptic position in km.
type HelioPosition struct {
	X, Y, Z, R float64
}

// Vector returns the position as a 3x1 vector.
func (p HelioPosition) Vector() []float64 {
	return []float64{p.X, p.Y, p.Z}
}

// Sub returns the offset from ref to p, e.g. the geocentric vector when ref is the Earth.
func (p HelioPosition) Sub(ref HelioPosition) []float64 {
	return sub(p.Vector(), ref.Vector())
}

// DistanceTo returns the distance in km between two positions.
func (p HelioPosition) DistanceTo(ref HelioPosition) float64 {
	return distance(p.Vector(), ref.Vector())
}

// Position is the state of a body at a Julian Date. It holds no reference to its elements.
type Position struct {
	Plane       PlanePosition
	Helio       HelioPosition
	TrueAnomaly float64 // ν in radians
	JD          float64
}

// Geocentric returns the position relative to the reference body position.
func (p Position) Geocentric(ref Position) []float64 {
	return p.Helio.Sub(ref.Helio)
}

// EccentricToTrueAnomaly converts the eccentric anomaly to the true anomaly ν.
func EccentricToTrueAnomaly(E, e float64) float64 {
	sinE2, cosE2 := math.Sincos(E / 2)
	return 2 * math.Atan2(math.Sqrt(1+e)*sinE2, math.Sqrt(1-e)*cosE2)
}

// OrbitalPlanePosition returns the position in the orbital plane for the true anomaly ν.
func OrbitalPlanePosition(ν, a, e float64) PlanePosition {
	sinν, cosν := math.Sincos(ν)
	r := a * (1 - e*e) / (1 + e*cosν)
	return PlanePosition{X: r * cosν, Y: r * sinν, R: r}
}

// ToHeliocentric rotates an orbital plane position by R3(-Ω)·R1(-i)·R3(-ω).
func ToHeliocentric(p PlanePosition, i, Ω, ω float64) HelioPosition {
	sΩ, cΩ := math.Sincos(Ω)
	si, ci := math.Sincos(i)
	sω, cω := math.Sincos(ω)
	return HelioPosition{
		X: (cΩ*cω-sΩ*sω*ci)*p.X + (-cΩ*sω-sΩ*cω*ci)*p.Y,
		Y: (sΩ*cω+cΩ*sω*ci)*p.X + (-sΩ*sω+cΩ*cω*ci)*p.Y,
		Z: (sω*si)*p.X + (cω*si)*p.Y,
		R: p.R,
	}
}

// MeanAnomalyAt returns the unwrapped mean anomaly at the Julian Date.
func (o Elements) MeanAnomalyAt(jd float64) float64 {
	Δt := (jd - o.epoch) * secondsPerDay
	return o.M0 + o.n*Δt
}

// PositionAt propagates the elements to the Julian Date with the default Kepler solver.
func (o Elements) PositionAt(jd float64) Position {
	return PositionAtTime(o, jd)
}

// PositionAtTime propagates the elements to the Julian Date.
func PositionAtTime(o Elements, jd float64) Position {
	plane, ν := o.planePositionAt(jd)
	return Position{
		Plane:       plane,
		Helio:       ToHeliocentric(plane, o.i, o.Ω, o.ω),
		TrueAnomaly: ν,
		JD:          jd,
	}
}

// planePositionAt returns the orbital plane position and the true anomaly at the Julian Date.
func (o Elements) planePositionAt(jd float64) (PlanePosition, float64) {
	E := DefaultKeplerSolver.Solve(o.MeanAnomalyAt(jd), o.e)
	ν := EccentricToTrueAnomaly(E, o.e)
	return OrbitalPlanePosition(ν, o.a, o.e), ν
}
