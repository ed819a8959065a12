package deflect

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// TrajectoryPoint is one sample of a trajectory.
type TrajectoryPoint struct {
	JD            float64
	Time          time.Time
	Position      Position
	Geocentric    []float64 // body minus Earth, km
	EarthDistance float64   // km
}

// MaxTrajectoryPoints bounds the number of points of a single trajectory.
const MaxTrajectoryPoints = 10_000_000

// endSlackJD is the distance (1 ms) within which a point still counts as falling on the end.
const endSlackJD = 1 / msPerDay

// Trajectory is a finite sequence of propagated positions sampled every step from start.
// Every point is computed on demand from its index so any sub range can be regenerated independently.
type Trajectory struct {
	elements    Elements
	orientation *mat.Dense
	startJD     float64
	stepJD      float64
	count       int
}

// NewTrajectory returns the trajectory of the elements between two instants, both included if
// the end falls on a step. The number of steps is counted on the integer durations.
func NewTrajectory(o Elements, start, end time.Time, step time.Duration) (Trajectory, error) {
	if step <= 0 {
		return Trajectory{}, fmt.Errorf("%w: step %s is not positive", ErrInvalidTimeRange, step)
	}
	if end.Before(start) {
		return Trajectory{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidTimeRange, end, start)
	}
	var steps int64
	if step%time.Millisecond == 0 {
		// Julian Dates are at the millisecond.
		steps = (end.UnixMilli() - start.UnixMilli()) / step.Milliseconds()
	} else {
		steps = int64(end.Sub(start) / step)
	}
	if steps >= MaxTrajectoryPoints {
		return Trajectory{}, fmt.Errorf("%w: more than %d points between %s and %s every %s", ErrInvalidTimeRange, MaxTrajectoryPoints, start, end, step)
	}
	return newTrajectory(o, ToJulianDate(start), step.Seconds()/secondsPerDay, int(steps)+1), nil
}

// NewTrajectoryJD is NewTrajectory with Julian Dates and a step in seconds.
// The end is included when it is within a millisecond of a step.
func NewTrajectoryJD(o Elements, startJD, endJD, stepSeconds float64) (Trajectory, error) {
	if !(stepSeconds > 0) || math.IsInf(stepSeconds, 0) {
		return Trajectory{}, fmt.Errorf("%w: step %f s is not positive", ErrInvalidTimeRange, stepSeconds)
	}
	if !finite(startJD, endJD) || endJD < startJD {
		return Trajectory{}, fmt.Errorf("%w: end JD %f before start JD %f", ErrInvalidTimeRange, endJD, startJD)
	}
	stepJD := stepSeconds / secondsPerDay
	steps := math.Floor((endJD-startJD)/stepJD + math.Min(endSlackJD/stepJD, 0.5))
	if !(steps < MaxTrajectoryPoints) {
		return Trajectory{}, fmt.Errorf("%w: more than %d points between JD %f and %f every %f s", ErrInvalidTimeRange, MaxTrajectoryPoints, startJD, endJD, stepSeconds)
	}
	return newTrajectory(o, startJD, stepJD, int(steps)+1), nil
}

func newTrajectory(o Elements, startJD, stepJD float64, count int) Trajectory {
	return Trajectory{elements: o, orientation: o.Orientation(), startJD: startJD, stepJD: stepJD, count: count}
}

// Len returns the number of points.
func (t Trajectory) Len() int {
	return t.count
}

// JD returns the Julian Date of the k-th point.
func (t Trajectory) JD(k int) float64 {
	return t.startJD + float64(k)*t.stepJD
}

// At computes the k-th point. Panics if k is out of range.
func (t Trajectory) At(k int) TrajectoryPoint {
	if k < 0 || k >= t.count {
		panic(fmt.Errorf("trajectory index %d out of range [0; %d)", k, t.count))
	}
	jd := t.JD(k)
	plane, ν := t.elements.planePositionAt(jd)
	helio := MxV33(t.orientation, []float64{plane.X, plane.Y, 0})
	pos := Position{
		Plane:       plane,
		Helio:       HelioPosition{X: helio[0], Y: helio[1], Z: helio[2], R: plane.R},
		TrueAnomaly: ν,
		JD:          jd,
	}
	earth := EarthPosition(jd)
	return TrajectoryPoint{
		JD:            jd,
		Time:          FromJulianDate(jd),
		Position:      pos,
		Geocentric:    pos.Geocentric(earth),
		EarthDistance: pos.Helio.DistanceTo(earth.Helio),
	}
}

// Points computes every point in ascending Julian Date.
func (t Trajectory) Points() []TrajectoryPoint {
	pts := make([]TrajectoryPoint, t.count)
	for k := range pts {
		pts[k] = t.At(k)
	}
	return pts
}

// Generate returns the points of the elements between start and end, sampled every step.
func Generate(o Elements, start, end time.Time, step time.Duration) ([]TrajectoryPoint, error) {
	traj, err := NewTrajectory(o, start, end, step)
	if err != nil {
		return nil, err
	}
	return traj.Points(), nil
}
