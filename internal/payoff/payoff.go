// Package payoff computes worst/best case expiry payoff for a priced
// multi-leg strategy by sweeping the strike grid.
package payoff

import (
	"math"

	"options-toolbox/internal/errors"
	"options-toolbox/internal/models"
)

// Result is one strategy evaluation.
type Result struct {
	MaxProfit     float64
	MaxLoss       float64
	PremiumCredit float64 // day-one cash flow: positive = credit received
	Ranges        []models.PayoffRange
}

// LegPayoff returns the expiry profit or loss of a single priced leg at the
// given expiry price, scaled by lot size and the leg's lot multiplier.
func LegPayoff(leg models.OptionLeg, expiryPrice float64, lotSize int) float64 {
	var intrinsic float64
	if leg.Type == models.OptionTypeCall {
		intrinsic = math.Max(expiryPrice-leg.Strike, 0)
	} else {
		intrinsic = math.Max(leg.Strike-expiryPrice, 0)
	}

	var pl float64
	if leg.Tranx == models.TranxTypeBuy {
		pl = intrinsic - leg.Premium
	} else {
		pl = leg.Premium - intrinsic
	}
	return math.Round(pl * float64(lotSize) * float64(leg.Lots))
}

// At returns the whole strategy's expiry payoff at one candidate price.
func At(s *models.Strategy, expiryPrice float64, lotSize int) float64 {
	total := 0.0
	for _, leg := range s.Legs {
		total += LegPayoff(leg, expiryPrice, lotSize)
	}
	return total
}

// PremiumCredit returns the net cash received (positive) or paid (negative)
// to open the strategy, scaled by lot size.
func PremiumCredit(s *models.Strategy, lotSize int) float64 {
	credit := 0.0
	for _, leg := range s.Legs {
		if leg.Tranx == models.TranxTypeSell {
			credit += leg.Premium * float64(leg.Lots)
		} else {
			credit -= leg.Premium * float64(leg.Lots)
		}
	}
	return math.Round(credit * float64(lotSize))
}

// Evaluate sweeps every strike in the grid as a candidate expiry price and
// folds the strategy payoff into running max/min, seeded with the premium
// credit (the payoff at an expiry far beyond the traded strikes for a credit
// position). Sweeping the grid rather than analysing the payoff diagram
// shape stays correct for any number of legs. The per-strike series is
// run-length encoded, bucketed to the nearest 10 currency units, for
// compact reporting only.
func Evaluate(s *models.Strategy, lotSize int, strikes []float64) (*Result, error) {
	if len(s.Legs) == 0 {
		return nil, errors.ErrEmptyStrategy
	}
	if len(strikes) == 0 {
		return nil, errors.ErrEmptyStrikeGrid
	}

	credit := PremiumCredit(s, lotSize)
	res := &Result{
		MaxProfit:     credit,
		MaxLoss:       credit,
		PremiumCredit: credit,
	}

	perStrike := make([]float64, len(strikes))
	for i, expiryPrice := range strikes {
		pl := At(s, expiryPrice, lotSize)
		perStrike[i] = pl
		res.MaxProfit = math.Max(res.MaxProfit, pl)
		res.MaxLoss = math.Min(res.MaxLoss, pl)
	}

	res.Ranges = compress(perStrike, strikes)
	return res, nil
}

// compress run-length encodes the payoff series into contiguous ranges of
// equal bucketed payoff.
func compress(perStrike, strikes []float64) []models.PayoffRange {
	var ranges []models.PayoffRange
	started := false
	var current, rangeStart float64

	for i, pl := range perStrike {
		bucket := math.Round(pl/10) * 10
		if !started {
			started = true
			current = bucket
			rangeStart = strikes[i]
			continue
		}
		if bucket != current {
			ranges = append(ranges, models.PayoffRange{
				Payoff:     current,
				FromStrike: rangeStart,
				ToStrike:   strikes[i],
			})
			current = bucket
			rangeStart = strikes[i]
		}
	}
	if started {
		ranges = append(ranges, models.PayoffRange{
			Payoff:     current,
			FromStrike: rangeStart,
			ToStrike:   strikes[len(strikes)-1],
		})
	}
	return ranges
}
