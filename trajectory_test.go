package deflect

import (
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestTrajectoryLength(t *testing.T) {
	o := mustRecord(t, sampleNEA)
	traj, err := NewTrajectoryJD(o, 2460000, 2460010, 86400)
	if err != nil {
		t.Fatal(err)
	}
	if traj.Len() != 11 {
		t.Fatalf("expected 11 points, got %d", traj.Len())
	}
	for k, pt := range traj.Points() {
		if pt.JD != 2460000+float64(k) {
			t.Fatalf("point %d at JD %f", k, pt.JD)
		}
		if pt.Position.JD != pt.JD {
			t.Fatalf("point %d position at JD %f", k, pt.Position.JD)
		}
		if !pt.Time.Equal(FromJulianDate(pt.JD)) {
			t.Fatalf("point %d time %s", k, pt.Time)
		}
	}
	// The final point is only included when it falls on a step.
	for _, tc := range []struct {
		start, end, step float64
		count          int
	}{
		{2460000, 2460000, 3600, 1},
		{2460000, 2460010.5, 86400, 11},
		{2460000, 2460001, 3600, 25},
		{2460000, 2460001, 7 * 3600, 4},
	} {
		traj, err := NewTrajectoryJD(o, tc.start, tc.end, tc.step)
		if err != nil {
			t.Fatal(err)
		}
		if exp := int(math.Floor((tc.end-tc.start)/(tc.step/86400))) + 1; traj.Len() != exp || exp != tc.count {
			t.Fatalf("%+v: %d points, formula gives %d", tc, traj.Len(), exp)
		}
		if last := traj.JD(traj.Len() - 1); last > tc.end+1e-9 {
			t.Fatalf("%+v: last point %f after the end", tc, last)
		}
	}
}

func TestTrajectoryInvalidRange(t *testing.T) {
	o := mustRecord(t, sampleNEA)
	start := time.Date(2029, 4, 1, 0, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		name       string
		start, end time.Time
		step       time.Duration
	}{
		{"zero step", start, start.Add(time.Hour), 0},
		{"negative step", start, start.Add(time.Hour), -time.Minute},
		{"end before start", start, start.Add(-time.Hour), time.Minute},
	} {
		if _, err := Generate(o, tc.start, tc.end, tc.step); !errors.Is(err, ErrInvalidTimeRange) {
			t.Fatalf("%s: expected ErrInvalidTimeRange, got %v", tc.name, err)
		}
	}
	for _, step := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := NewTrajectoryJD(o, 2460000, 2460001, step); !errors.Is(err, ErrInvalidTimeRange) {
			t.Fatalf("step %f: expected ErrInvalidTimeRange, got %v", step, err)
		}
	}
}

func TestTrajectoryRestartable(t *testing.T) {
	o := mustRecord(t, sampleNEA)
	start := time.Date(2029, 4, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(30 * 24 * time.Hour)
	full, err := Generate(o, start, end, 6*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	// Regenerating a sub range returns the same points.
	sub, err := Generate(o, full[40].Time, full[60].Time, 6*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(sub) != 21 {
		t.Fatalf("expected 21 points, got %d", len(sub))
	}
	for k, pt := range sub {
		ref := full[40+k]
		if !scalar.EqualWithinAbs(pt.JD, ref.JD, 1e-8) || !vectorsEqual(pt.Position.Helio.Vector(), ref.Position.Helio.Vector(), 1e-2) {
			t.Fatalf("point %d differs: %+v != %+v", k, pt.Position.Helio, ref.Position.Helio)
		}
	}
	traj, _ := NewTrajectory(o, start, end, 6*time.Hour)
	if traj.At(17).Position != full[17].Position {
		t.Fatal("At is not deterministic")
	}
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("out of range index did not panic")
		}
	}()
	traj.At(traj.Len())
}

func TestGeocentricDistance(t *testing.T) {
	o := mustRecord(t, sampleNEA)
	pts, err := NewTrajectoryJD(o, sampleNEA.EpochOsculation, sampleNEA.EpochOsculation+100, 10*86400)
	if err != nil {
		t.Fatal(err)
	}
	for _, pt := range pts.Points() {
		if d := GeocentricDistance(pt.Position); d != pt.EarthDistance {
			t.Fatalf("JD %f: %f != %f", pt.JD, d, pt.EarthDistance)
		}
		if d := norm(pt.Geocentric); !scalar.EqualWithinRel(d, pt.EarthDistance, 1e-12) {
			t.Fatalf("JD %f: |geocentric| = %f != %f", pt.JD, d, pt.EarthDistance)
		}
	}
}

func TestTrajectoryTooManyPoints(t *testing.T) {
	o := mustRecord(t, sampleNEA)
	for _, tc := range []struct{ start, end, step float64 }{
		{0, 1e300, 1},
		{2460000, 2460000 + MaxTrajectoryPoints, 86400},
		{2460000, 2460001, 1e-300},
	} {
		if traj, err := NewTrajectoryJD(o, tc.start, tc.end, tc.step); !errors.Is(err, ErrInvalidTimeRange) {
			t.Fatalf("%+v: expected ErrInvalidTimeRange, got %d points and %v", tc, traj.Len(), err)
		}
	}
	start := time.Date(2029, 4, 1, 0, 0, 0, 0, time.UTC)
	for _, step := range []time.Duration{time.Nanosecond, time.Millisecond} {
		if _, err := NewTrajectory(o, start, start.AddDate(200, 0, 0), step); !errors.Is(err, ErrInvalidTimeRange) {
			t.Fatalf("step %s: expected ErrInvalidTimeRange, got %v", step, err)
		}
	}
}

func TestTrajectoryFinalPoint(t *testing.T) {
	o := mustRecord(t, sampleNEA)
	start := time.Date(2029, 4, 1, 0, 0, 0, 0, time.UTC)
	for _, step := range []time.Duration{7 * time.Minute, 13 * time.Second, time.Hour + 7*time.Millisecond, 3*time.Hour + 500*time.Microsecond} {
		end := start.Add(240 * step)
		traj, err := NewTrajectory(o, start, end, step)
		if err != nil {
			t.Fatal(err)
		}
		if traj.Len() != 241 {
			t.Fatalf("step %s: %d points, expected 241", step, traj.Len())
		}
		jdTraj, err := NewTrajectoryJD(o, ToJulianDate(start), ToJulianDate(end), step.Seconds())
		if err != nil {
			t.Fatal(err)
		}
		if jdTraj.Len() != 241 {
			t.Fatalf("step %s: %d points from Julian Dates, expected 241", step, jdTraj.Len())
		}
		if last := traj.At(240).Time; last.Sub(end).Abs() > time.Millisecond {
			t.Fatalf("step %s: last point at %s, expected %s", step, last, end)
		}
	}
}

func TestTrajectoryOrientation(t *testing.T) {
	for _, o := range []Elements{mustRecord(t, sampleNEA), Earth} {
		traj, err := NewTrajectoryJD(o, o.Epoch(), o.Epoch()+400, 86400)
		if err != nil {
			t.Fatal(err)
		}
		for k := 0; k < traj.Len(); k += 7 {
			pt := traj.At(k)
			exp := PositionAtTime(o, pt.JD)
			if pt.Position.Plane != exp.Plane || pt.Position.TrueAnomaly != exp.TrueAnomaly || pt.Position.Helio.R != exp.Helio.R {
				t.Fatalf("JD %f: %+v != %+v", pt.JD, pt.Position, exp)
			}
			if !vectorsEqual(pt.Position.Helio.Vector(), exp.Helio.Vector(), 1e-4) {
				t.Fatalf("JD %f: rotated %v, closed form %v", pt.JD, pt.Position.Helio.Vector(), exp.Helio.Vector())
			}
		}
	}
}
