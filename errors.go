package hestonmc

import (
	"errors"

	"hestonmc/schemes"
	"hestonmc/tg"
)

// Sentinel errors returned by package-level validation. Callers should use
// errors.Is against these; no exported function panics on bad caller input.
// Most of these are re-exported from the package that actually performs the
// check (schemes, tg), so a caller who only ever imports the root package
// can still match on the exact sentinel a failing call returned.
var (
	ErrInvalidTimeHorizon = schemes.ErrInvalidTimeHorizon
	ErrInvalidSteps       = schemes.ErrInvalidSteps
	ErrInvalidSimulations = schemes.ErrInvalidSimulations
	ErrInvalidPsiC        = schemes.ErrInvalidPsiC
	ErrInvalidGamma1      = schemes.ErrInvalidGamma1

	ErrInvalidKappa      = schemes.ErrInvalidKappa
	ErrInvalidGamma      = schemes.ErrInvalidGamma
	ErrInvalidRho        = schemes.ErrInvalidRho
	ErrInvalidVbar       = schemes.ErrInvalidVbar
	ErrInvalidV0         = schemes.ErrInvalidV0
	ErrInvalidStockPrice = schemes.ErrInvalidStockPrice

	ErrNewtonNonConvergence = tg.ErrNewtonNonConvergence

	// ErrMissingControlVariateMean is returned when a control-variate payoff
	// is supplied without its analytic mean mu.
	ErrMissingControlVariateMean = errors.New("hestonmc: control variate payoff requires mu")

	// ErrInvalidBatchSize, ErrInvalidMaxIter, ErrInvalidAbsErr, ErrInvalidAlpha
	// guard PricingConfig construction; they are driver-only concerns with
	// no equivalent in package schemes.
	ErrInvalidBatchSize = errors.New("hestonmc: batch size must be at least 1")
	ErrInvalidMaxIter   = errors.New("hestonmc: max iterations must be at least 1")
	ErrInvalidAbsErr    = errors.New("hestonmc: absolute error must be positive")
	ErrInvalidAlpha     = errors.New("hestonmc: confidence level alpha must be in (0, 1)")
)
