// Package tg implements the Andersen Truncated-Gaussian scheme's
// moment-matching root solver and the precomputed lookup grids the scheme
// kernel consults on every simulation step.
package tg

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	defaultMaxIter = 2500
	defaultTol     = 1e-5
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

func stdNormalPDF(x float64) float64 {
	return stdNormal.Prob(x)
}

func stdNormalCDF(x float64) float64 {
	return stdNormal.CDF(x)
}

// foo is the moment-matching residual Andersen's truncated-Gaussian scheme
// solves for r given psi: a root r* makes the first two moments of the
// truncated normal approximation match the target mean/variance ratio psi.
func foo(x, psi float64) float64 {
	p := stdNormalPDF(x)
	c := stdNormalCDF(x)
	inner := p + x*c
	return x*p + c*(1+x*x) - (1+psi)*inner*inner
}

func fooPrime(x, psi float64) float64 {
	p := stdNormalPDF(x)
	c := stdNormalCDF(x)
	inner := p + x*c
	return p - x*x*p + p*(1+x*x) + 2*c*x -
		2*(1+psi)*inner*(-p*x+c+x*p)
}

func fooPrime2(x, psi float64) float64 {
	p := stdNormalPDF(x)
	c := stdNormalCDF(x)
	inner := p + x*c
	cross := -p*x + c + x*p
	return -x*p - 2*x*p + x*x*x*p - x*p*(1+x*x) +
		2*c*x + 2*p*x + 2*c +
		2*(1+psi)*cross*cross +
		2*(1+psi)*inner*(x*x*p+p+p-x*p)
}

// CalculateRForAndersenTG solves the truncated-Gaussian moment-matching
// equation for the given psi = Var/Mean^2 ratio, via Newton's method with
// a Halley second-order correction (mirroring scipy.optimize.newton's
// fprime2 branch), starting from x0 = 1/psi.
func CalculateRForAndersenTG(psi float64) (float64, error) {
	if psi <= 0 {
		return 0, ErrInvalidPsi
	}
	x := 1 / psi
	for i := 0; i < defaultMaxIter; i++ {
		fval := foo(x, psi)
		fder := fooPrime(x, psi)
		if fder == 0 {
			return 0, ErrNewtonNonConvergence
		}
		step := fval / fder
		fder2 := fooPrime2(x, psi)
		adj := step * fder2 / fder / 2
		if math.Abs(adj) < 1 {
			step = step / (1 - adj)
		}
		x1 := x - step
		if math.Abs(x1-x) < defaultTol {
			return x1, nil
		}
		x = x1
	}
	return 0, ErrNewtonNonConvergence
}

// Grids holds the precomputed moment-matching lookup tables the TG scheme
// kernel consults once per simulation step: for psi = s2/m^2 bucketed onto
// the grid, FNu[idx] and FSigma[idx] give the dimensionless multipliers
// such that nu = m*FNu[idx] and sigma = sqrt(s2)*FSigma[idx].
type Grids struct {
	X      []float64
	FNu    []float64
	FSigma []float64
	Dx     float64
}

// BuildGrids tabulates Grids over n uniformly spaced psi buckets covering
// (0, psiMax], each populated by solving CalculateRForAndersenTG once. This
// runs at startup, outside any simulation hot loop, so it evaluates the
// standard normal pdf/cdf through gonum/stat/distuv rather than the
// lighter math.Erf path the scheme kernels use on their hot loop.
func BuildGrids(psiMax float64, n int) (Grids, error) {
	if psiMax <= 0 {
		return Grids{}, ErrInvalidPsiMax
	}
	if n < 2 {
		return Grids{}, ErrInvalidGridSize
	}

	dx := psiMax / float64(n)
	x := make([]float64, n)
	fNu := make([]float64, n)
	fSigma := make([]float64, n)

	for k := 0; k < n; k++ {
		psi := dx * float64(k+1)
		r, err := CalculateRForAndersenTG(psi)
		if err != nil {
			return Grids{}, err
		}
		p := stdNormalPDF(r)
		c := stdNormalCDF(r)
		denom := p + r*c
		variance := (1+r*r)*c + r*p - denom*denom

		x[k] = psi
		fNu[k] = r / denom
		fSigma[k] = 1 / math.Sqrt(variance)
	}

	return Grids{X: x, FNu: fNu, FSigma: fSigma, Dx: dx}, nil
}

// Lookup returns the (fNu, fSigma) multipliers for the given psi. Bucket k
// was solved at psi = dx*(k+1) (its right, closed edge), so psi is
// bucketed by ceil(psi/dx)-1 rather than floor(psi/dx); psi beyond the
// grid's range clamps to the last bucket.
func (g Grids) Lookup(psi float64) (fNu, fSigma float64) {
	n := len(g.X)
	idx := int(math.Ceil(psi/g.Dx)) - 1
	if psi > g.X[n-1] || idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return g.FNu[idx], g.FSigma[idx]
}
