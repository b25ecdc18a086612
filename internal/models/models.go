// Package models provides domain models for the options toolbox.
package models

import (
	"time"
)

// DateLayout is the broker-facing expiry date format (29-Feb-2024).
const DateLayout = "02-Jan-2006"

// OptionType represents the option right.
type OptionType string

const (
	OptionTypeCall OptionType = "CALL"
	OptionTypePut  OptionType = "PUT"
)

// TranxType represents the direction of an option transaction.
type TranxType string

const (
	TranxTypeBuy  TranxType = "BUY"
	TranxTypeSell TranxType = "SELL"
	// TranxTypeAny prices off the last traded price instead of bid/ask.
	TranxTypeAny TranxType = "ANY"
)

// OptionQuote represents market data for a single contract side.
type OptionQuote struct {
	Bid    float64
	Ask    float64
	Last   float64
	IV     float64 // percent, 0 when the venue does not report one
	OI     int64
	Volume int64
}

// StrikeQuote represents one strike row in an option chain.
type StrikeQuote struct {
	Strike float64
	Call   *OptionQuote
	Put    *OptionQuote
}

// OptionChain is a normalized market snapshot for one underlying+expiry.
// Strikes are strictly ascending and deduplicated.
type OptionChain struct {
	Symbol    string
	SpotPrice float64
	Expiry    time.Time
	LotSize   int
	Strikes   []StrikeQuote
	FetchedAt time.Time
}

// StrikeList returns the ascending strike prices of the chain.
func (c *OptionChain) StrikeList() []float64 {
	strikes := make([]float64, len(c.Strikes))
	for i, s := range c.Strikes {
		strikes[i] = s.Strike
	}
	return strikes
}

// ATMIndex returns the index of the strike closest to the spot price.
// Ties resolve to the lower strike because strikes ascend and the first
// minimum wins.
func (c *OptionChain) ATMIndex() int {
	best := -1
	bestDiff := 0.0
	for i, s := range c.Strikes {
		diff := c.SpotPrice - s.Strike
		if diff < 0 {
			diff = -diff
		}
		if best == -1 || diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	return best
}

// Quote returns the quote for the given strike and right, or ok=false when
// the chain has no such contract.
func (c *OptionChain) Quote(strike float64, right OptionType) (*OptionQuote, bool) {
	for i := range c.Strikes {
		if c.Strikes[i].Strike != strike {
			continue
		}
		var q *OptionQuote
		if right == OptionTypeCall {
			q = c.Strikes[i].Call
		} else {
			q = c.Strikes[i].Put
		}
		if q == nil {
			return nil, false
		}
		return q, true
	}
	return nil, false
}

// DaysToExpiry returns whole days from now until the chain expiry.
func (c *OptionChain) DaysToExpiry(now time.Time) int {
	return int(c.Expiry.Sub(now).Hours() / 24)
}
