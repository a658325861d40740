package hestonmc

import "hestonmc/schemes"

// HestonParameters and MarketState are re-exported from package schemes,
// the package that actually consumes and validates them, so that callers
// of the root package never need to import schemes directly for the
// common case of a single call to McPrice.
type HestonParameters = schemes.HestonParameters
type MarketState = schemes.MarketState

// NewHestonParameters validates and constructs a HestonParameters record.
func NewHestonParameters(kappa, gamma, rho, vbar, v0 float64) (HestonParameters, error) {
	return schemes.NewHestonParameters(kappa, gamma, rho, vbar, v0)
}

// NewMarketState validates and constructs a MarketState record.
func NewMarketState(stockPrice, interestRate float64) (MarketState, error) {
	return schemes.NewMarketState(stockPrice, interestRate)
}
