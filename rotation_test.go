package deflect

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestRotationsAreOrthonormal(t *testing.T) {
	for _, m := range []*mat.Dense{R1(0.3), R3(-2.1), PerifocalToEcliptic(0.2, 1.3, -0.4)} {
		var prod mat.Dense
		prod.Mul(m.T(), m)
		if !mat.EqualApprox(&prod, mat.NewDiagDense(3, []float64{1, 1, 1}), 1e-12) {
			t.Fatalf("Mᵀ·M != I:\n%v", mat.Formatted(&prod))
		}
		if d := mat.Det(m); math.Abs(d-1) > 1e-12 {
			t.Fatalf("det=%f", d)
		}
	}
}

func TestPerifocalToEclipticAxes(t *testing.T) {
	// With Ω=ω=0 the perihelion direction stays on x and the orbit normal tilts by i about x.
	i := 0.4
	m := PerifocalToEcliptic(i, 0, 0)
	if p := MxV33(m, []float64{1, 0, 0}); !vectorsEqual(p, []float64{1, 0, 0}, 1e-15) {
		t.Fatalf("x axis moved to %v", p)
	}
	if q := MxV33(m, []float64{0, 1, 0}); !vectorsEqual(q, []float64{0, math.Cos(i), math.Sin(i)}, 1e-15) {
		t.Fatalf("y axis moved to %v", q)
	}
	// A pure node rotation is a rotation about z by Ω.
	Ω := 1.1
	if p := MxV33(PerifocalToEcliptic(0, Ω, 0), []float64{1, 0, 0}); !vectorsEqual(p, []float64{math.Cos(Ω), math.Sin(Ω), 0}, 1e-15) {
		t.Fatalf("x axis moved to %v", p)
	}
	o := mustRecord(t, sampleNEA)
	if !mat.EqualApprox(o.Orientation(), PerifocalToEcliptic(o.Inclination(), o.AscendingNode(), o.ArgPerihelion()), 0) {
		t.Fatal("orientation mismatch")
	}
}
