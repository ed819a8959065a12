package deflect

import (
	"fmt"
	"math"
	"strings"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const (
	// DefaultBeta is the momentum enhancement factor used when none is measured (DART measured ≈3.6).
	DefaultBeta = 3.0
	// DefaultDensity is the bulk density (kg/m³) of unknown or mixed spectral types.
	DefaultDensity = 2000.0
)

// densities maps the first letter of the spectral type to the bulk density in kg/m³.
var densities = map[byte]float64{
	'C': 1700, // carbonaceous
	'S': 2500, // silicaceous
	'M': 5500, // metallic
	'X': 2000, // ambiguous
}

// Density returns the bulk density in kg/m³ for the spectral type.
func Density(spectralType string) float64 {
	spectralType = strings.TrimSpace(spectralType)
	if spectralType == "" {
		return DefaultDensity
	}
	if ρ, ok := densities[strings.ToUpper(spectralType)[0]]; ok {
		return ρ
	}
	return DefaultDensity
}

// EstimateMass returns the mass in kg of a sphere of the provided diameter (km)
// with the density of the spectral type.
func EstimateMass(diameterKm float64, spectralType string) float64 {
	radius := diameterKm * 1000 / 2
	volume := 4. / 3 * math.Pi * radius * radius * radius
	return Density(spectralType) * volume
}

// DeltaV returns the velocity change (m/s) of the target from momentum conservation:
// Δv = m·v·(1+β)/M with v converted to m/s.
func DeltaV(impactorMass, impactVelocityKms, β, targetMass float64) (float64, error) {
	if !(targetMass > 0) || math.IsInf(targetMass, 0) {
		return 0, fmt.Errorf("%w: mass %g kg", ErrDegenerateTarget, targetMass)
	}
	return impactorMass * impactVelocityKms * 1000 * (1 + β) / targetMass, nil
}

// OrbitChange is the effect of a tangential velocity change on the orbit size.
type OrbitChange struct {
	ΔSemiMajorAxis   float64 `json:"deltaSemiMajorAxis_km"`
	NewSemiMajorAxis float64 `json:"newSemiMajorAxis_km"`
	OldPeriod        float64 `json:"oldPeriod_sec"`
	NewPeriod        float64 `json:"newPeriod_sec"`
	ΔPeriod          float64 `json:"deltaPeriod_sec"`
}

// OrbitalPerturbation returns the orbit change for a tangential velocity change Δv (m/s) applied
// to an orbit of semi major axis a (km) and eccentricity e. Uses Δa = 2a²Δv/h with h = √(μa(1-e²)).
// Eccentricity and orientation are assumed unchanged.
func OrbitalPerturbation(a, e, Δv float64) (OrbitChange, error) {
	if !(a > 0) || math.IsInf(a, 0) {
		return OrbitChange{}, fmt.Errorf("%w: semi major axis %f km", ErrDegenerateOrbit, a)
	}
	if !(e >= 0 && e < 1) {
		return OrbitChange{}, fmt.Errorf("%w: eccentricity %f", ErrDegenerateOrbit, e)
	}
	h := math.Sqrt(SunGM * a * (1 - e*e))
	Δa := 2 * a * a * (Δv / 1000) / h
	newA := a + Δa
	if !(newA > 0) {
		return OrbitChange{}, fmt.Errorf("%w: new semi major axis %f km", ErrDegenerateOrbit, newA)
	}
	oldT := KeplerPeriod(a)
	newT := KeplerPeriod(newA)
	return OrbitChange{
		ΔSemiMajorAxis:   Δa,
		NewSemiMajorAxis: newA,
		OldPeriod:        oldT,
		NewPeriod:        newT,
		ΔPeriod:          newT - oldT,
	}, nil
}

// Target is a body hit by an impactor.
type Target struct {
	Name         string
	Elements     Elements
	DiameterKm   float64
	SpectralType string
}

// ImpactParameters describes the impactor.
type ImpactParameters struct {
	ImpactorMass   float64 `json:"impactorMass_kg"`
	ImpactVelocity float64 `json:"impactVelocity_kms"`
	Beta           float64 `json:"beta"`
	// Retrograde applies the velocity change against the orbital motion.
	Retrograde bool `json:"retrograde"`
}

// Validate returns an error if the parameters cannot describe an impact.
func (p ImpactParameters) Validate() error {
	if !(p.ImpactorMass > 0) || !(p.ImpactVelocity > 0) || !(p.Beta >= 0) || !finite(p.ImpactorMass, p.ImpactVelocity, p.Beta) {
		return fmt.Errorf("%w: impactor mass %g kg, velocity %g km/s, β %g", ErrInvalidImpactParameters, p.ImpactorMass, p.ImpactVelocity, p.Beta)
	}
	return nil
}

// ImpactResult is the outcome of a kinetic impact.
type ImpactResult struct {
	Target       string           `json:"target"`
	DiameterKm   float64          `json:"diameter_km"`
	SpectralType string           `json:"spectralType"`
	Impactor     ImpactParameters `json:"impactor"`
	AsteroidMass float64          `json:"asteroidMass_kg"`
	ΔV           float64          `json:"deltaV_ms"`
	OldSemiMajor float64          `json:"oldSemiMajorAxis_km"`
	OrbitChange
	NewElements Elements `json:"newElements"`
}

// Simulator runs kinetic impact simulations. It holds no state besides its logger.
type Simulator struct {
	logger kitlog.Logger
}

// NewSimulator returns a simulator logging each step at debug level. A nil logger disables logging.
func NewSimulator(logger kitlog.Logger) *Simulator {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &Simulator{kitlog.With(logger, "subsys", "impact")}
}

// SimulateImpact runs a simulation without logging.
func SimulateImpact(t Target, p ImpactParameters) (ImpactResult, error) {
	return NewSimulator(nil).Simulate(t, p)
}

// Simulate estimates the target mass, the velocity change and the resulting orbit.
// The new elements only differ by their semi major axis, and their period is the new period of
// the orbit change with the mean motion following it.
func (s *Simulator) Simulate(t Target, p ImpactParameters) (ImpactResult, error) {
	if err := p.Validate(); err != nil {
		return ImpactResult{}, err
	}
	mass := EstimateMass(t.DiameterKm, t.SpectralType)
	level.Debug(s.logger).Log("target", t.Name, "diameter_km", t.DiameterKm, "type", t.SpectralType, "density", Density(t.SpectralType), "mass_kg", mass)

	Δv, err := DeltaV(p.ImpactorMass, p.ImpactVelocity, p.Beta, mass)
	if err != nil {
		return ImpactResult{}, fmt.Errorf("target %q: %w", t.Name, err)
	}
	if p.Retrograde {
		Δv = -Δv
	}
	level.Debug(s.logger).Log("target", t.Name, "momentum", p.ImpactorMass*p.ImpactVelocity*1000*(1+p.Beta), "deltaV_ms", Δv)

	a, e := t.Elements.SemiMajorAxis(), t.Elements.Eccentricity()
	change, err := OrbitalPerturbation(a, e, Δv)
	if err != nil {
		return ImpactResult{}, fmt.Errorf("target %q: %w", t.Name, err)
	}
	level.Debug(s.logger).Log("target", t.Name, "a_km", a, "deltaA_km", change.ΔSemiMajorAxis, "deltaPeriod_s", change.ΔPeriod)

	return ImpactResult{
		Target:       t.Name,
		DiameterKm:   t.DiameterKm,
		SpectralType: t.SpectralType,
		Impactor:     p,
		AsteroidMass: mass,
		ΔV:           Δv,
		OldSemiMajor: a,
		OrbitChange:  change,
		NewElements:  t.Elements.withOrbitChange(change),
	}, nil
}

// Report returns a human readable summary of the impact.
func (r ImpactResult) Report() string {
	name, class := r.Target, r.SpectralType
	if name == "" {
		name = "Unknown"
	}
	if class == "" {
		class = "Unknown"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "KINETIC IMPACT SIMULATION RESULTS\n")
	fmt.Fprintf(&b, "TARGET ASTEROID:\n  Name: %s\n  Diameter: %g km\n  Type: %s\n  Mass: %.2e kg\n", name, r.DiameterKm, class, r.AsteroidMass)
	fmt.Fprintf(&b, "IMPACTOR:\n  Mass: %g kg\n  Velocity: %g km/s\n  Beta Factor: %g\n", r.Impactor.ImpactorMass, r.Impactor.ImpactVelocity, r.Impactor.Beta)
	fmt.Fprintf(&b, "IMPACT RESULTS:\n  Delta-V: %.2e m/s (%.2f mm/s)\n", r.ΔV, r.ΔV*1000)
	fmt.Fprintf(&b, "ORBITAL CHANGES:\n  Semi-major Axis Change: %+.3f km\n", r.ΔSemiMajorAxis)
	fmt.Fprintf(&b, "  Original Orbit: %.6f AU\n  Modified Orbit: %.6f AU\n", r.OldSemiMajor/AU, r.NewSemiMajorAxis/AU)
	fmt.Fprintf(&b, "  Orbital Period Change: %+.2f seconds (%+.6f days)\n", r.ΔPeriod, r.ΔPeriod/secondsPerDay)
	fmt.Fprintf(&b, "  Original Period: %.2f days\n  Modified Period: %.2f days\n", r.OldPeriod/secondsPerDay, r.NewPeriod/secondsPerDay)
	return b.String()
}
