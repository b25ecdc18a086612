package models

import "time"

// OptionLeg is one contract within a multi-leg strategy. Offset is the
// relative strike position against the ATM index; Strike, Premium and IV are
// filled in when the leg is resolved and priced against a concrete chain.
// A priced leg is treated as immutable.
type OptionLeg struct {
	Type    OptionType
	Tranx   TranxType
	Offset  int
	Lots    int
	Strike  float64
	Premium float64
	IV      float64
	Expiry  time.Time
}

// Strategy is an ordered, non-empty set of legs sharing one underlying and
// one expiry.
type Strategy struct {
	Name   string
	Symbol string
	Expiry time.Time
	Legs   []OptionLeg
}

// NthLeg returns the n-th leg (1-based) matching the given type and
// direction. ok is false when fewer than n legs match; callers must handle
// absence explicitly instead of computing with a zero-valued leg.
func (s *Strategy) NthLeg(n int, typ OptionType, tranx TranxType) (OptionLeg, bool) {
	seen := 0
	for _, leg := range s.Legs {
		if leg.Type == typ && leg.Tranx == tranx {
			seen++
			if seen == n {
				return leg, true
			}
		}
	}
	return OptionLeg{}, false
}

// AvgIV returns the average implied volatility across legs with a nonzero
// IV, rounded to the nearest integer percent.
func (s *Strategy) AvgIV() float64 {
	sum, n := 0.0, 0
	for _, leg := range s.Legs {
		sum += leg.IV
		if leg.IV != 0 {
			n++
		}
	}
	if n == 0 {
		n = 1
	}
	return float64(int(sum/float64(n) + 0.5))
}

// PayoffRange is a run-length-encoded span of expiry prices sharing one
// bucketed payoff value.
type PayoffRange struct {
	Payoff     float64
	FromStrike float64
	ToStrike   float64
}

// LegQuote is a (price, strike) pair reported per leg side.
type LegQuote struct {
	Price  float64
	Strike float64
}

// StrategyReport is the evaluation output record handed to reporting and
// persistence collaborators.
type StrategyReport struct {
	Stock          string
	StrategyName   string
	PremiumCredit  float64 // total day-one cash flow, lot-size scaled
	PremiumPerLot  float64
	PercentPremium float64
	MaxProfit      float64
	MaxLoss        float64
	Spot           float64
	SellCalls      []LegQuote // up to 3 per side
	SellPuts       []LegQuote
	BuyCalls       []LegQuote
	BuyPuts        []LegQuote
	Delta          float64
	Theta          float64
	TotalDelta     float64
	TotalTheta     float64
	AvgIV          float64
	LotSize        int
	PayoffRanges   []PayoffRange
	Strikes        []float64
	EvaluatedAt    time.Time
}
