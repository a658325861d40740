package schemes_test

import (
	"math"
	"testing"

	"hestonmc/rng"
	"hestonmc/schemes"
)

func TestSimulateAndersenQEShapeAndNonNegative(t *testing.T) {
	params, state := testParams(t)
	g := rng.New(3)
	nSim, nt := 6, 12

	s, v, err := schemes.SimulateAndersenQE(g, state, params, 1.0, nt, nSim, schemes.DefaultQEOptions())
	if err != nil {
		t.Fatalf("SimulateAndersenQE: %v", err)
	}
	sRows, sCols := s.Dims()
	if sRows != 4*nSim || sCols != nt {
		t.Fatalf("S dims = (%d, %d), want (%d, %d)", sRows, sCols, 4*nSim, nt)
	}
	for i := 0; i < sRows; i++ {
		for j := 0; j < sCols; j++ {
			if x := s.At(i, j); x <= 0 {
				t.Fatalf("S[%d,%d] = %v, want strictly positive", i, j, x)
			}
		}
	}

	rows, cols := v.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			x := v.At(i, j)
			if x < 0 {
				t.Fatalf("V[%d,%d] = %v is negative", i, j, x)
			}
			if math.IsNaN(x) || math.IsInf(x, 0) {
				t.Fatalf("V[%d,%d] = %v is not finite", i, j, x)
			}
		}
	}
}

func TestSimulateAndersenQEDeterministicSameSeed(t *testing.T) {
	params, state := testParams(t)
	opts := schemes.DefaultQEOptions()

	s1, v1, err := schemes.SimulateAndersenQE(rng.New(11), state, params, 1.0, 16, 8, opts)
	if err != nil {
		t.Fatalf("SimulateAndersenQE: %v", err)
	}
	s2, v2, err := schemes.SimulateAndersenQE(rng.New(11), state, params, 1.0, 16, 8, opts)
	if err != nil {
		t.Fatalf("SimulateAndersenQE: %v", err)
	}

	rows, cols := s1.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if s1.At(i, j) != s2.At(i, j) || v1.At(i, j) != v2.At(i, j) {
				t.Fatalf("same-seed runs diverged at (%d,%d)", i, j)
			}
		}
	}
}

func TestSimulateAndersenQEOptionValidation(t *testing.T) {
	params, state := testParams(t)
	g := rng.New(1)

	_, _, err := schemes.SimulateAndersenQE(g, state, params, 1, 10, 5, schemes.QEOptions{PsiC: 3, Gamma1: 0})
	if err != schemes.ErrInvalidPsiC {
		t.Fatalf("PsiC=3: err = %v, want ErrInvalidPsiC", err)
	}

	_, _, err = schemes.SimulateAndersenQE(g, state, params, 1, 10, 5, schemes.QEOptions{PsiC: 1.5, Gamma1: 2})
	if err != schemes.ErrInvalidGamma1 {
		t.Fatalf("Gamma1=2: err = %v, want ErrInvalidGamma1", err)
	}
}
