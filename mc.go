package hestonmc

import (
	"context"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"hestonmc/rng"
	"hestonmc/stats"
)

// Result is the outcome of one McPrice call.
type Result struct {
	Price      float64 // pooled-sample mean payoff, discounted by the caller's Payoff if needed
	Iterations int     // number of batches simulated
	PathsUsed  int     // total antithetic-quadrupled paths folded into Price
	HalfWidth  float64 // half-width of the confidence interval Price achieved
}

// McPrice prices a derivative under the Heston model by adaptive Monte
// Carlo: it keeps drawing batches of paths through cfg.Simulate and folding
// cfg.Payoff's output into a pooled running mean/variance until either the
// resulting confidence interval's half-width drops to cfg.AbsoluteError or
// cfg.MaxIter batches have run, whichever comes first. When
// cfg.ControlVariatePayoff is set, every batch's payoff is first reduced by
// theta*(controlVariatePayoff - mu), with theta estimated from a pilot run
// of cfg.ControlVariateIter paths.
//
// ctx is checked before the control-variate pilot run and between batches;
// a canceled context stops early and McPrice returns ctx.Err() alongside
// whatever Result had accumulated so far.
func McPrice(ctx context.Context, cfg PricingConfig) (Result, error) {
	if cfg.Simulate == nil || cfg.Payoff == nil {
		return Result{}, fmt.Errorf("hestonmc: PricingConfig.Simulate and Payoff are required")
	}
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	var logger Logger
	if cfg.Verbose {
		out := cfg.LogOutput
		if out == nil {
			out = os.Stdout
		}
		logger = NewLogger(out)
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	c := -2 * normal.Quantile(cfg.ConfidenceLevel*0.5)

	var seed uint64
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	g := rng.New(seed)

	theta := 0.0
	if cfg.ControlVariatePayoff != nil {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		s, _, err := cfg.Simulate(g, cfg.State, cfg.Params, cfg.T, cfg.NT, cfg.ControlVariateIter)
		if err != nil {
			return Result{}, err
		}
		s1 := cfg.Payoff(s)
		s2 := cfg.ControlVariatePayoff(s)
		cov := stat.Covariance(s1, s2, nil)
		_, varS2 := stat.MeanVariance(s2, nil)
		if varS2 != 0 {
			theta = cov / varS2
		}
		if logger.Output != nil {
			logger.logControlVariate(cfg.ControlVariateIter, theta)
		}
	}

	acc := stats.NewAccumulator()
	halfWidth := math.Inf(1) // runs at least one batch regardless of AbsoluteError
	iter := 0

	for halfWidth > cfg.AbsoluteError && iter < cfg.MaxIter {
		select {
		case <-ctx.Done():
			return Result{Price: acc.Mean(), Iterations: iter, PathsUsed: acc.N(), HalfWidth: halfWidth}, ctx.Err()
		default:
		}

		s, _, err := cfg.Simulate(g, cfg.State, cfg.Params, cfg.T, cfg.NT, cfg.BatchSize)
		if err != nil {
			return Result{}, fmt.Errorf("hestonmc: batch %d: %w", iter, err)
		}
		batch := cfg.Payoff(s)
		if cfg.ControlVariatePayoff != nil {
			cv := cfg.ControlVariatePayoff(s)
			for i := range batch {
				batch[i] -= theta * (cv[i] - *cfg.Mu)
			}
		}

		acc.Update(batch)
		iter++
		halfWidth = acc.HalfWidth(c)
		if logger.Output != nil {
			logger.logBatch(iter, acc.N(), acc.Mean(), halfWidth)
		}
	}

	result := Result{
		Price:      acc.Mean(),
		Iterations: iter,
		PathsUsed:  acc.N(),
		HalfWidth:  halfWidth,
	}

	if logger.Output != nil {
		logger.logResult(result)
		logger.flush()
	}

	return result, nil
}
