package tg

import "errors"

var (
	// ErrNewtonNonConvergence is returned by CalculateRForAndersenTG when
	// the Newton-Halley iteration fails to converge within maxIter steps.
	ErrNewtonNonConvergence = errors.New("tg: root solver did not converge")

	// ErrInvalidPsiMax, ErrInvalidGridSize guard BuildGrids.
	ErrInvalidPsiMax  = errors.New("tg: psiMax must be positive")
	ErrInvalidGridSize = errors.New("tg: grid size must be at least 2")

	// ErrInvalidPsi is returned when CalculateRForAndersenTG is called
	// with a non-positive psi, which makes the moment-matching equation
	// degenerate.
	ErrInvalidPsi = errors.New("tg: psi must be positive")
)
