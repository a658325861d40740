package schemes

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"hestonmc/rng"
	"hestonmc/tg"
)

// SimulateAndersenTG simulates the Heston model with Andersen's
// Truncated-Gaussian scheme, using the moment-matching grids built by
// package tg. See SimulateEuler for the shared output shape and
// antithetic-quadrupling convention.
//
// Unlike the reference implementation, every antithetic row recomputes its
// own (m, s2, psi) bucket from its own variance path rather than reusing
// the first row's bucket for all four quadrants: the four rows are driven
// by sign-flipped noise and diverge from the first step onward, so sharing
// one row's bucket across all four rows of a quadruple would source three
// of them from the wrong moment-matching regime whenever two rows straddle
// a psi bucket boundary.
func SimulateAndersenTG(g *rng.Generator, state MarketState, params HestonParameters, t float64, nt, nSim int, opts TGOptions) (s, v *mat.Dense, err error) {
	if err := validateShape(t, nt, nSim); err != nil {
		return nil, nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, nil, err
	}

	dt := t / float64(nt)
	r, s0 := state.InterestRate, state.StockPrice
	v0 := params.V0
	c := deriveAndersenConstants(params, r, dt, opts.Gamma1)
	grids := opts.Grids

	z1, z2 := g.Draw3D(nSim, nt-1)

	rows := 4 * nSim
	vMat := mat.NewDense(rows, nt, nil)
	logS := mat.NewDense(rows, nt, nil)
	logS0 := math.Log(s0)
	for row := 0; row < rows; row++ {
		vMat.Set(row, 0, v0)
		logS.Set(row, 0, logS0)
	}

	chunks := splitRange(nSim, numWorkers())
	var wg sync.WaitGroup
	wg.Add(len(chunks))
	for _, chunk := range chunks {
		go func(start, end int) {
			defer wg.Done()
			for n := start; n < end; n++ {
				vRows := [4][]float64{
					vMat.RawRowView(4 * n), vMat.RawRowView(4*n + 1),
					vMat.RawRowView(4*n + 2), vMat.RawRowView(4*n + 3),
				}
				sRows := [4][]float64{
					logS.RawRowView(4 * n), logS.RawRowView(4*n + 1),
					logS.RawRowView(4*n + 2), logS.RawRowView(4*n + 3),
				}
				z1Row := z1.RawRowView(n)
				z2Row := z2.RawRowView(n)

				for i := 0; i < nt-1; i++ {
					w1, w2 := z1Row[i], z2Row[i]

					stepTG(vRows[0], sRows[0], i, c, grids, w2, w1, 1)
					stepTG(vRows[1], sRows[1], i, c, grids, -w2, w1, -1)
					stepTG(vRows[2], sRows[2], i, c, grids, -w2, w1, 1)
					stepTG(vRows[3], sRows[3], i, c, grids, w2, w1, -1)
				}
			}
		}(chunk[0], chunk[1])
	}
	wg.Wait()

	for row := 0; row < rows; row++ {
		rowView := logS.RawRowView(row)
		for col, lv := range rowView {
			rowView[col] = math.Exp(lv)
		}
	}
	return logS, vMat, nil
}

func stepTG(vRow, sRow []float64, i int, c andersenConstants, grids tg.Grids, zV, zS, sgnS float64) {
	m := c.p3 + vRow[i]*c.e
	s2 := vRow[i]*c.p1 + c.p2
	psi := s2 / (m * m)

	fNu, fSigma := grids.Lookup(psi)
	nu := m * fNu
	sigma := math.Sqrt(s2) * fSigma

	vNext := math.Max(nu+sigma*zV, 0)
	vRow[i+1] = vNext

	diffusion := math.Sqrt(c.k3*vRow[i]+c.k4*vNext) * zS
	sRow[i+1] = sRow[i] + c.rdtPlusK0 + c.k1*vRow[i] + c.k2*vNext + sgnS*diffusion
}
