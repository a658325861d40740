package schemes

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"hestonmc/rng"
)

// SimulateEuler simulates the Heston model with the Euler full-truncation
// scheme. It returns the simulated stock-price and variance paths as dense
// (4*nSim, nt) matrices: every base path n in [0, nSim) is expanded into
// four antithetic-quadrupled rows 4n..4n+3, sharing the same driving noise
// with flipped signs, per the reference implementation.
func SimulateEuler(g *rng.Generator, state MarketState, params HestonParameters, t float64, nt, nSim int) (s, v *mat.Dense, err error) {
	if err := validateShape(t, nt, nSim); err != nil {
		return nil, nil, err
	}

	dt := t / float64(nt)
	r, s0 := state.InterestRate, state.StockPrice
	v0, rho, kappa, vbar, gamma := params.V0, params.Rho, params.Kappa, params.Vbar, params.Gamma
	sqrt1Rho2 := math.Sqrt(1 - rho*rho)

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
	for _, c := range chunks {
		go func(start, end int) {
			defer wg.Done()
			for n := start; n < end; n++ {
				sRow0 := logS.RawRowView(4 * n)
				sRow1 := logS.RawRowView(4*n + 1)
				sRow2 := logS.RawRowView(4*n + 2)
				sRow3 := logS.RawRowView(4*n + 3)
				vRow0 := vMat.RawRowView(4 * n)
				vRow1 := vMat.RawRowView(4*n + 1)
				vRow2 := vMat.RawRowView(4*n + 2)
				vRow3 := vMat.RawRowView(4*n + 3)
				z1Row := z1.RawRowView(n)
				z2Row := z2.RawRowView(n)

				for i := 0; i < nt-1; i++ {
					w1, w2 := z1Row[i], z2Row[i]

					vmax := math.Max(vRow0[i], 0)
					sqrtVdt := math.Sqrt(vmax * dt)
					sRow0[i+1] = sRow0[i] + (r-0.5*vmax)*dt + sqrtVdt*w1
					vRow0[i+1] = vRow0[i] + kappa*(vbar-vmax)*dt + gamma*sqrtVdt*(rho*w1+sqrt1Rho2*w2)

					vmax = math.Max(vRow1[i], 0)
					sqrtVdt = math.Sqrt(vmax * dt)
					sRow1[i+1] = sRow1[i] + (r-0.5*vmax)*dt - sqrtVdt*w1
					vRow1[i+1] = vRow1[i] + kappa*(vbar-vmax)*dt - gamma*sqrtVdt*(rho*w1+sqrt1Rho2*w2)

					vmax = math.Max(vRow2[i], 0)
					sqrtVdt = math.Sqrt(vmax * dt)
					sRow2[i+1] = sRow2[i] + (r-0.5*vmax)*dt + sqrtVdt*w1
					vRow2[i+1] = vRow2[i] + kappa*(vbar-vmax)*dt + gamma*sqrtVdt*(rho*w1-sqrt1Rho2*w2)

					vmax = math.Max(vRow3[i], 0)
					sqrtVdt = math.Sqrt(vmax * dt)
					sRow3[i+1] = sRow3[i] - sqrtVdt*w1 + (r-0.5*vmax)*dt
					vRow3[i+1] = vRow3[i] + kappa*(vbar-vmax)*dt + gamma*sqrtVdt*(-rho*w1+sqrt1Rho2*w2)
				}
			}
		}(c[0], c[1])
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
