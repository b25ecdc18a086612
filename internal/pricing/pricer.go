package pricing

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"options-toolbox/internal/errors"
	"options-toolbox/internal/models"
)

// IVHistory supplies a last-known implied volatility when the solver cannot
// converge. The store implements it; tests use a stub.
type IVHistory interface {
	LastKnownIV(symbol string, strike float64, right models.OptionType) (float64, bool)
}

// Pricer prices legs against a market snapshot and aggregates Greeks at the
// strategy level.
type Pricer struct {
	params  Params
	solver  IVSolver
	history IVHistory
	logger  zerolog.Logger
}

// NewPricer creates a pricer. history may be nil, in which case the IV
// fallback is zero.
func NewPricer(params Params, solver IVSolver, history IVHistory, logger zerolog.Logger) *Pricer {
	return &Pricer{
		params:  params,
		solver:  solver,
		history: history,
		logger:  logger,
	}
}

// PriceLeg fills in the leg's premium and IV from the chain. Selling fills at
// the bid, buying at the ask; that is the price a real order would get when
// the spread is wide, not the mid. A missing contract prices as a degenerate
// zero-premium leg rather than failing the whole strategy.
func (p *Pricer) PriceLeg(leg *models.OptionLeg, chain *models.OptionChain, now time.Time) {
	quote, ok := chain.Quote(leg.Strike, leg.Type)
	if !ok {
		p.logger.Warn().
			Str("symbol", chain.Symbol).
			Float64("strike", leg.Strike).
			Str("right", string(leg.Type)).
			Msg("No quote for strike, pricing leg at zero")
		leg.Premium, leg.IV = 0, 0
		return
	}

	switch leg.Tranx {
	case models.TranxTypeSell:
		leg.Premium = quote.Bid
	case models.TranxTypeBuy:
		leg.Premium = quote.Ask
	default:
		leg.Premium = quote.Last
	}

	leg.IV = quote.IV
	if leg.IV == 0 && leg.Premium > 0 {
		days := chain.DaysToExpiry(now)
		iv, err := p.solver.Solve(leg.Premium, chain.SpotPrice, leg.Strike, days, leg.Type, 0)
		if err != nil {
			leg.IV = p.fallbackIV(chain.Symbol, leg)
			p.logger.Debug().
				Str("symbol", chain.Symbol).
				Float64("strike", leg.Strike).
				Float64("fallback_iv", leg.IV).
				Err(err).
				Msg("IV solver did not converge, using last known value")
		} else {
			leg.IV = iv
		}
	}
}

func (p *Pricer) fallbackIV(symbol string, leg *models.OptionLeg) float64 {
	if p.history == nil {
		return 0
	}
	if iv, ok := p.history.LastKnownIV(symbol, leg.Strike, leg.Type); ok {
		return iv
	}
	return 0
}

// PriceStrategy prices every leg of the strategy in place.
func (p *Pricer) PriceStrategy(s *models.Strategy, chain *models.OptionChain, now time.Time) error {
	if len(s.Legs) == 0 {
		return errors.ErrEmptyStrategy
	}
	for i := range s.Legs {
		p.PriceLeg(&s.Legs[i], chain, now)
	}
	return nil
}

// StrategyGreeks holds per-unit and lot-scaled delta/theta for a strategy.
type StrategyGreeks struct {
	Delta      float64
	Theta      float64
	TotalDelta float64 // Delta x lot size, rounded
	TotalTheta float64 // Theta x lot size, rounded
}

// AggregateGreeks sums each leg's delta and theta, negating sold legs: a
// sold call contributes negative delta. Totals scale by lot size.
func (p *Pricer) AggregateGreeks(s *models.Strategy, lotSize int, spot float64, now time.Time) StrategyGreeks {
	var agg StrategyGreeks

	for _, leg := range s.Legs {
		days := int(leg.Expiry.Sub(now).Hours() / 24)
		g := BlackScholes(spot, leg.Strike, days, leg.IV, p.params)

		var delta, theta float64
		if leg.Type == models.OptionTypeCall {
			delta, theta = g.CallDelta, g.CallTheta
		} else {
			delta, theta = g.PutDelta, g.PutTheta
		}
		if leg.Tranx == models.TranxTypeSell {
			delta, theta = -delta, -theta
		}

		agg.Delta += delta
		agg.Theta += theta
	}

	agg.TotalDelta = math.Round(agg.Delta * float64(lotSize))
	agg.TotalTheta = math.Round(agg.Theta * float64(lotSize))
	return agg
}
