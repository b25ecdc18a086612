package pricing

import (
	"options-toolbox/internal/errors"
	"options-toolbox/internal/models"
)

// IVSolver recovers implied volatility from an observed premium by linear
// stepping. Option price is monotone increasing in volatility, so walking
// upward from the seed in fixed increments and stopping once the model price
// is within tolerance of the observed price is correct, and fast enough for
// the tens of strikes a symbol carries. Newton-Raphson would converge faster
// but needs a well-behaved vega everywhere; this search does not.
type IVSolver struct {
	SeedPct   float64 // starting volatility, percent
	StepPct   float64 // increment, percent
	MaxPct    float64 // upper bound, percent
	Tolerance float64 // absolute price tolerance
	Params    Params
}

// DefaultIVSolver returns a solver stepping 0.1 percentage points up to 100%.
func DefaultIVSolver(params Params) IVSolver {
	return IVSolver{
		SeedPct:   10,
		StepPct:   0.1,
		MaxPct:    100,
		Tolerance: 0.001,
		Params:    params,
	}
}

// Solve returns the volatility (percent) at which the model price reaches
// the observed premium, searching upward from seedPct. A seed of 0 falls
// back to the solver default. ErrImpliedVolNotFound is returned when the
// bound is hit; the caller decides the fallback.
func (s IVSolver) Solve(observed, spot, strike float64, days int, right models.OptionType, seedPct float64) (float64, error) {
	if seedPct <= 0 {
		seedPct = s.SeedPct
	}

	for sigma := seedPct; sigma < s.MaxPct; sigma += s.StepPct {
		model := Premium(spot, strike, days, sigma, right == models.OptionTypeCall, s.Params)
		if observed-model < s.Tolerance {
			return sigma, nil
		}
	}
	return 0, errors.Wrapf(errors.ErrImpliedVolNotFound,
		"premium %.2f strike %.2f right %s", observed, strike, right)
}
