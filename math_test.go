package deflect

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestAngles(t *testing.T) {
	for deg := -720.; deg <= 720; deg += 0.5 {
		rad := Deg2rad(deg)
		if !scalar.EqualWithinAbs(rad, deg*math.Pi/180, 1e-12) {
			t.Fatalf("Deg2rad(%f)=%f must not wrap", deg, rad)
		}
		back := Rad2deg(rad)
		if back < 0 || back >= 360 {
			t.Fatalf("Rad2deg(%f)=%f not in [0; 360)", rad, back)
		}
		exp := math.Mod(deg, 360)
		if exp < 0 {
			exp += 360
		}
		if !scalar.EqualWithinAbs(back, exp, 1e-9) && !scalar.EqualWithinAbs(math.Abs(back-exp), 360, 1e-9) {
			t.Fatalf("Rad2deg(Deg2rad(%f))=%f", deg, back)
		}
	}
}

func TestMisc(t *testing.T) {
	if vectorsEqual([]float64{1, 0}, []float64{1, 0, 0}, 0) {
		t.Fatal("vectors of different sizes should not be equal")
	}
	five0 := []float64{5, 6, 7}
	if norm(five0) != math.Sqrt(110) {
		t.Fatal("norm of [5, 6, 7] is invalid")
	}
	if d := sub(five0, []float64{1, 1, 1}); !vectorsEqual(d, []float64{4, 5, 6}, 0) {
		t.Fatalf("sub=%v", d)
	}
	if d := distance(five0, []float64{5, 6, 7}); d != 0 {
		t.Fatalf("distance=%f", d)
	}
	if !finite(1, 2, 3) || finite(1, math.NaN()) || finite(math.Inf(-1)) {
		t.Fatal("finite is wrong")
	}
}
