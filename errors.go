package deflect

import "errors"

var (
	// ErrInvalidOrbitalElements is returned when an element set cannot describe an elliptical orbit.
	ErrInvalidOrbitalElements = errors.New("invalid orbital elements")
	// ErrInvalidTimeRange is returned for a non positive step or an end before the start.
	ErrInvalidTimeRange = errors.New("invalid time range")
	// ErrDegenerateTarget is returned when the impact target has no positive mass.
	ErrDegenerateTarget = errors.New("degenerate target")
	// ErrDegenerateOrbit is returned when the orbit has no finite angular momentum.
	ErrDegenerateOrbit = errors.New("degenerate orbit")
	// ErrInvalidImpactParameters is returned for a non positive impactor mass or velocity, or a negative β.
	ErrInvalidImpactParameters = errors.New("invalid impact parameters")
	// ErrNearParabolic is returned by the opt-in eccentricity guard of the Kepler solver.
	ErrNearParabolic = errors.New("near parabolic eccentricity")
)
