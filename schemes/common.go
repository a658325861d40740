// Package schemes implements the three Heston path-generation kernels:
// Euler full-truncation, Andersen Quadratic-Exponential (QE) and Andersen
// Truncated-Gaussian (TG). Each kernel is data-parallel over the base-path
// index and writes disjoint antithetic-quadruple row groups of a dense
// *mat.Dense path matrix.
package schemes

import (
	"errors"
	"math"
	"runtime"

	"hestonmc/tg"
)

// Sentinel validation errors. See package hestonmc's errors.go for the
// root-level re-exports callers are expected to use with errors.Is.
var (
	ErrInvalidTimeHorizon = errors.New("schemes: time horizon T must be positive")
	ErrInvalidSteps       = errors.New("schemes: N_T must be at least 2")
	ErrInvalidSimulations = errors.New("schemes: n_simulations must be at least 1")
	ErrInvalidPsiC        = errors.New("schemes: psi_c must be in [1, 2]")
	ErrInvalidGamma1      = errors.New("schemes: gamma_1 must be in [0, 1]")

	ErrInvalidKappa      = errors.New("schemes: kappa must be non-negative")
	ErrInvalidGamma      = errors.New("schemes: gamma must be non-negative")
	ErrInvalidRho        = errors.New("schemes: rho must be in [-1, 1]")
	ErrInvalidVbar       = errors.New("schemes: vbar must be positive")
	ErrInvalidV0         = errors.New("schemes: v0 must be non-negative")
	ErrInvalidStockPrice = errors.New("schemes: stock price must be positive")
)

// HestonParameters holds the immutable parameters of a Heston
// stochastic-volatility model (C1 in the design). Validated once at
// construction and read-only for the lifetime of any pricing call.
type HestonParameters struct {
	Kappa float64 // mean-reversion speed, >= 0 (0 removes mean reversion; with Gamma=0 too the variance stays at V0)
	Gamma float64 // vol-of-vol, >= 0 (0 degenerates the variance process to deterministic reversion)
	Rho   float64 // price/variance correlation, in [-1, 1]
	Vbar  float64 // long-run variance, > 0
	V0    float64 // initial variance, >= 0
}

// NewHestonParameters validates and constructs a HestonParameters record.
//
// Kappa and Gamma are only required to be non-negative rather than strictly
// positive: the degenerate kappa=gamma=0 case turns the variance process into
// the constant V0, which is a legitimate corner case for the Euler scheme
// (exercised by its antithetic-symmetry test) even though it makes the
// Andersen QE and TG schemes' constants divide by zero.
func NewHestonParameters(kappa, gamma, rho, vbar, v0 float64) (HestonParameters, error) {
	switch {
	case kappa < 0:
		return HestonParameters{}, ErrInvalidKappa
	case gamma < 0:
		return HestonParameters{}, ErrInvalidGamma
	case rho < -1 || rho > 1:
		return HestonParameters{}, ErrInvalidRho
	case vbar <= 0:
		return HestonParameters{}, ErrInvalidVbar
	case v0 < 0:
		return HestonParameters{}, ErrInvalidV0
	}
	return HestonParameters{Kappa: kappa, Gamma: gamma, Rho: rho, Vbar: vbar, V0: v0}, nil
}

// MarketState holds the immutable market inputs to a pricing call.
type MarketState struct {
	StockPrice   float64 // s0, > 0
	InterestRate float64 // r, real
}

// NewMarketState validates and constructs a MarketState record.
func NewMarketState(stockPrice, interestRate float64) (MarketState, error) {
	if stockPrice <= 0 {
		return MarketState{}, ErrInvalidStockPrice
	}
	return MarketState{StockPrice: stockPrice, InterestRate: interestRate}, nil
}

// QEOptions carries the Andersen QE scheme's tunables (spec.md §6 defaults).
type QEOptions struct {
	PsiC   float64 // critical psi, switches quadratic/exponential regime, in [1,2]
	Gamma1 float64 // integration weight between i and i+1, in [0,1]
}

// DefaultQEOptions returns the scheme's documented defaults: PsiC=1.5, Gamma1=0.
func DefaultQEOptions() QEOptions {
	return QEOptions{PsiC: 1.5, Gamma1: 0}
}

func (o QEOptions) validate() error {
	if o.PsiC < 1 || o.PsiC > 2 {
		return ErrInvalidPsiC
	}
	if o.Gamma1 < 0 || o.Gamma1 > 1 {
		return ErrInvalidGamma1
	}
	return nil
}

// TGOptions carries the Andersen TG scheme's tunables and its precomputed
// moment-matching grids (C4, built once at startup by package tg).
type TGOptions struct {
	Gamma1 float64
	Grids  tg.Grids
}

// DefaultTGOptions returns Gamma1=0 with the given grids.
func DefaultTGOptions(grids tg.Grids) TGOptions {
	return TGOptions{Gamma1: 0, Grids: grids}
}

func (o TGOptions) validate() error {
	if o.Gamma1 < 0 || o.Gamma1 > 1 {
		return ErrInvalidGamma1
	}
	return nil
}

// validateShape checks the invariants common to all three kernels.
func validateShape(t float64, nt, nSim int) error {
	if t <= 0 {
		return ErrInvalidTimeHorizon
	}
	if nt < 2 {
		return ErrInvalidSteps
	}
	if nSim < 1 {
		return ErrInvalidSimulations
	}
	return nil
}

// andersenConstants holds the per-call constants shared by the QE and TG
// schemes (spec.md §4.1.2), depending only on (kappa, gamma, rho, vbar, dt,
// gamma1, r).
type andersenConstants struct {
	e            float64
	p1, p2, p3   float64
	k0, k1, k2   float64
	k3, k4       float64
	rdtPlusK0    float64
}

func deriveAndersenConstants(params HestonParameters, r, dt, gamma1 float64) andersenConstants {
	kappa, gamma, rho, vbar := params.Kappa, params.Gamma, params.Rho, params.Vbar
	gamma2 := 1 - gamma1

	e := math.Exp(-kappa * dt)
	k0 := -(rho * kappa * vbar / gamma) * dt
	k1 := gamma1*dt*(rho*kappa/gamma-0.5) - rho/gamma
	k2 := gamma2*dt*(rho*kappa/gamma-0.5) + rho/gamma
	k3 := gamma1 * dt * (1 - rho*rho)
	k4 := gamma2 * dt * (1 - rho*rho)

	p1 := (1 - e) * gamma * gamma * e / kappa
	p2 := vbar * gamma * gamma / (2 * kappa) * (1 - e) * (1 - e)
	p3 := vbar * (1 - e)

	return andersenConstants{
		e: e, p1: p1, p2: p2, p3: p3,
		k0: k0, k1: k1, k2: k2, k3: k3, k4: k4,
		rdtPlusK0: r*dt + k0,
	}
}

// splitRange divides [0, n) into at most workers contiguous chunks,
// distributing the remainder across the earliest chunks so all chunks
// differ in size by at most one. Used to statically split the
// embarrassingly-parallel base-path loop across a worker pool, the same
// shape used throughout the retrieved Heston Monte Carlo reference's
// SimulatePricesBatch.
func splitRange(n, workers int) [][2]int {
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	chunks := make([][2]int, 0, workers)
	base := n / workers
	rem := n % workers
	start := 0
	for i := 0; i < workers; i++ {
		size := base
		if i < rem {
			size++
		}
		if size == 0 {
			continue
		}
		chunks = append(chunks, [2]int{start, start + size})
		start += size
	}
	return chunks
}

func numWorkers() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}
