// Package stats implements the pooled running mean/variance accumulator the
// Monte Carlo driver uses to decide when it has priced a contract to within
// its requested confidence interval.
package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Accumulator pools the mean and variance of a growing number of i.i.d.
// batches without re-touching earlier batches, using the same pooled
// running-variance recurrence as the reference pricer: each new batch's
// population variance is weighted by its path count and merged into the
// running pooled variance.
type Accumulator struct {
	n         int
	sum       float64
	pooledVar float64
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Update folds one batch of i.i.d. payoff samples into the running
// estimate.
func (a *Accumulator) Update(batch []float64) {
	m := len(batch)
	if m == 0 {
		return
	}
	_, batchVar := stat.PopMeanVariance(batch, nil)
	batchSum := floats.Sum(batch)

	priorN := a.n
	if total := priorN + m - 1; total > 0 {
		a.pooledVar = (a.pooledVar*float64(priorN-1) + batchVar*float64(m-1)) / float64(total)
	} else {
		a.pooledVar = 0
	}
	a.sum += batchSum
	a.n += m
}

// Mean returns the current pooled-sample mean, sum/n.
func (a *Accumulator) Mean() float64 {
	if a.n == 0 {
		return 0
	}
	return a.sum / float64(a.n)
}

// N returns the total number of paths folded in so far.
func (a *Accumulator) N() int {
	return a.n
}

// HalfWidth returns the half-width of the c-scaled confidence interval
// around the current mean, c*sqrt(pooledVar/n). Callers pass
// c = -2*Phi^-1(alpha/2) for a two-sided (1-alpha) interval.
func (a *Accumulator) HalfWidth(c float64) float64 {
	if a.n == 0 {
		return math.Inf(1)
	}
	return c * math.Sqrt(a.pooledVar/float64(a.n))
}
