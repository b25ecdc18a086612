// Package pricing provides the option pricer: snapshot premium selection,
// Black-Scholes Greeks and the implied-volatility solver.
package pricing

import (
	"math"
)

// Params holds the model inputs shared by every evaluation. Rates and yield
// are in percent, matching the venue's quoting convention.
type Params struct {
	RiskFreeRate  float64 // continuously compounded, percent
	DividendYield float64 // continuous, percent
	DaysInYear    float64
}

// DefaultParams returns the model defaults used for NSE contracts.
func DefaultParams() Params {
	return Params{RiskFreeRate: 10, DividendYield: 0, DaysInYear: 365}
}

// Greeks holds one Black-Scholes evaluation. Both call and put sides come out
// of the single evaluation because strategy aggregation needs the counter
// side of each leg.
type Greeks struct {
	CallPremium float64
	PutPremium  float64
	CallDelta   float64
	PutDelta    float64
	CallTheta   float64
	PutTheta    float64
	CallRho     float64
	PutRho      float64
	Gamma       float64
	Vega        float64
}

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

// BlackScholes evaluates the model at the given spot, strike, days to expiry
// and volatility (percent). days == 0 is clamped to 1; the model divides by
// sqrt(t) and the last trading day would otherwise blow up.
func BlackScholes(spot, strike float64, days int, ivPct float64, p Params) Greeks {
	if days <= 0 {
		days = 1
	}
	td := p.DaysInYear
	if td == 0 {
		td = 365
	}

	sigma := ivPct / 100
	r := p.RiskFreeRate / 100
	q := p.DividendYield / 100
	t := float64(days) / td

	d1 := (math.Log(spot/strike) + (r-q+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
	d2 := d1 - sigma*math.Sqrt(t)

	theta := -((spot * sigma * math.Exp(-q*t)) / (2 * math.Sqrt(t))) * normPDF(d1)

	return Greeks{
		CallPremium: math.Exp(-q*t)*spot*normCDF(d1) - strike*math.Exp(-r*t)*normCDF(d2),
		PutPremium:  strike*math.Exp(-r*t)*normCDF(-d2) - math.Exp(-q*t)*spot*normCDF(-d1),
		CallDelta:   math.Exp(-q*t) * normCDF(d1),
		PutDelta:    math.Exp(-q*t) * (normCDF(d1) - 1),
		CallTheta:   (theta - r*strike*math.Exp(-r*t)*normCDF(d2) + q*math.Exp(-q*t)*spot*normCDF(d1)) / td,
		PutTheta:    (theta + r*strike*math.Exp(-r*t)*normCDF(-d2) - q*math.Exp(-q*t)*spot*normCDF(-d1)) / td,
		CallRho:     strike * t * math.Exp(-r*t) * normCDF(d2) / 100,
		PutRho:      -strike * t * math.Exp(-r*t) * normCDF(-d2) / 100,
		Gamma:       math.Exp(-r*t) / (spot * sigma * math.Sqrt(t)) * normPDF(d1),
		Vega:        spot * math.Exp(-r*t) * math.Sqrt(t) * normPDF(d1) / 100,
	}
}

// Premium returns the model price of a single side.
func Premium(spot, strike float64, days int, ivPct float64, call bool, p Params) float64 {
	g := BlackScholes(spot, strike, days, ivPct, p)
	if call {
		return g.CallPremium
	}
	return g.PutPremium
}
