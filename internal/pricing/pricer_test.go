package pricing

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"options-toolbox/internal/errors"
	"options-toolbox/internal/models"
)

type stubHistory struct {
	iv float64
	ok bool
}

func (s stubHistory) LastKnownIV(string, float64, models.OptionType) (float64, bool) {
	return s.iv, s.ok
}

func testChain(now time.Time) *models.OptionChain {
	return &models.OptionChain{
		Symbol:    "RELIANCE",
		SpotPrice: 100,
		Expiry:    now.Add(30 * 24 * time.Hour),
		LotSize:   250,
		Strikes: []models.StrikeQuote{
			{Strike: 95, Call: &models.OptionQuote{Bid: 7.0, Ask: 7.4, Last: 7.2, IV: 22}, Put: &models.OptionQuote{Bid: 1.8, Ask: 2.0, Last: 1.9, IV: 24}},
			{Strike: 100, Call: &models.OptionQuote{Bid: 4.0, Ask: 4.4, Last: 4.2, IV: 21}, Put: &models.OptionQuote{Bid: 3.6, Ask: 3.9, Last: 3.7, IV: 23}},
			{Strike: 105, Call: &models.OptionQuote{Bid: 2.0, Ask: 2.3, Last: 2.1}, Put: &models.OptionQuote{Bid: 6.9, Ask: 7.3, Last: 7.1, IV: 25}},
		},
		FetchedAt: now,
	}
}

func newTestPricer(history IVHistory) *Pricer {
	params := DefaultParams()
	return NewPricer(params, DefaultIVSolver(params), history, zerolog.Nop())
}

func TestPriceLegSideSelection(t *testing.T) {
	now := time.Now()
	chain := testChain(now)
	p := newTestPricer(nil)

	cases := []struct {
		tranx       models.TranxType
		wantPremium float64
	}{
		{models.TranxTypeSell, 4.0}, // sells fill at the bid
		{models.TranxTypeBuy, 4.4},  // buys fill at the ask
		{models.TranxTypeAny, 4.2},  // marks use the last trade
	}

	for _, tc := range cases {
		leg := models.OptionLeg{Type: models.OptionTypeCall, Tranx: tc.tranx, Strike: 100, Lots: 1}
		p.PriceLeg(&leg, chain, now)
		if leg.Premium != tc.wantPremium {
			t.Errorf("%s premium = %.2f, want %.2f", tc.tranx, leg.Premium, tc.wantPremium)
		}
		if leg.IV != 21 {
			t.Errorf("%s iv = %.2f, want the quoted 21", tc.tranx, leg.IV)
		}
	}
}

func TestPriceLegMissingContract(t *testing.T) {
	now := time.Now()
	chain := testChain(now)
	p := newTestPricer(nil)

	leg := models.OptionLeg{Type: models.OptionTypeCall, Tranx: models.TranxTypeSell, Strike: 999, Lots: 1}
	p.PriceLeg(&leg, chain, now)

	if leg.Premium != 0 || leg.IV != 0 {
		t.Errorf("missing contract must price as zero, got premium=%.2f iv=%.2f", leg.Premium, leg.IV)
	}
}

func TestPriceLegSolvesMissingIV(t *testing.T) {
	now := time.Now()
	chain := testChain(now)
	p := newTestPricer(nil)

	// The 105 call carries no venue IV; its premium must drive the solver.
	leg := models.OptionLeg{Type: models.OptionTypeCall, Tranx: models.TranxTypeSell, Strike: 105, Lots: 1}
	p.PriceLeg(&leg, chain, now)

	if leg.IV == 0 {
		t.Fatal("expected the solver to recover an implied volatility")
	}
	days := chain.DaysToExpiry(now)
	model := Premium(chain.SpotPrice, 105, days, leg.IV, true, DefaultParams())
	if model < leg.Premium-0.001 {
		t.Errorf("solved iv %.2f reprices to %.4f, below the observed %.4f", leg.IV, model, leg.Premium)
	}
}

func TestPriceLegFallsBackToHistory(t *testing.T) {
	now := time.Now()
	chain := testChain(now)

	// Make the 105 call premium unreachable so the solver hits the bound.
	chain.Strikes[2].Call = &models.OptionQuote{Bid: 500, Ask: 510, Last: 505}

	p := newTestPricer(stubHistory{iv: 42, ok: true})
	leg := models.OptionLeg{Type: models.OptionTypeCall, Tranx: models.TranxTypeSell, Strike: 105, Lots: 1}
	p.PriceLeg(&leg, chain, now)

	if leg.IV != 42 {
		t.Errorf("fallback iv = %.2f, want the stored 42", leg.IV)
	}

	p = newTestPricer(nil)
	leg = models.OptionLeg{Type: models.OptionTypeCall, Tranx: models.TranxTypeSell, Strike: 105, Lots: 1}
	p.PriceLeg(&leg, chain, now)
	if leg.IV != 0 {
		t.Errorf("without history the fallback is zero, got %.2f", leg.IV)
	}
}

func TestPriceStrategyEmpty(t *testing.T) {
	p := newTestPricer(nil)
	err := p.PriceStrategy(&models.Strategy{}, testChain(time.Now()), time.Now())
	if !errors.Is(err, errors.ErrEmptyStrategy) {
		t.Errorf("got %v, want ErrEmptyStrategy", err)
	}
}

func TestAggregateGreeksSellNegation(t *testing.T) {
	now := time.Now()
	chain := testChain(now)
	p := newTestPricer(nil)

	long := &models.Strategy{Legs: []models.OptionLeg{
		{Type: models.OptionTypeCall, Tranx: models.TranxTypeBuy, Strike: 100, IV: 21, Lots: 1, Expiry: chain.Expiry},
		{Type: models.OptionTypePut, Tranx: models.TranxTypeBuy, Strike: 100, IV: 23, Lots: 1, Expiry: chain.Expiry},
	}}
	short := &models.Strategy{Legs: []models.OptionLeg{
		{Type: models.OptionTypeCall, Tranx: models.TranxTypeSell, Strike: 100, IV: 21, Lots: 1, Expiry: chain.Expiry},
		{Type: models.OptionTypePut, Tranx: models.TranxTypeSell, Strike: 100, IV: 23, Lots: 1, Expiry: chain.Expiry},
	}}

	lg := p.AggregateGreeks(long, chain.LotSize, chain.SpotPrice, now)
	sg := p.AggregateGreeks(short, chain.LotSize, chain.SpotPrice, now)

	if math.Abs(lg.Delta+sg.Delta) > 1e-9 {
		t.Errorf("short greeks must mirror long: long delta %.4f, short delta %.4f", lg.Delta, sg.Delta)
	}
	if math.Abs(lg.Theta+sg.Theta) > 1e-9 {
		t.Errorf("short theta must mirror long: %.4f vs %.4f", lg.Theta, sg.Theta)
	}

	// Held options decay; a net short position collects that decay.
	if lg.Theta >= 0 {
		t.Errorf("long straddle theta must be negative, got %.4f", lg.Theta)
	}
	if sg.Theta <= 0 {
		t.Errorf("short straddle theta must be positive, got %.4f", sg.Theta)
	}

	if sg.TotalDelta != math.Round(sg.Delta*float64(chain.LotSize)) {
		t.Errorf("total delta not scaled by lot size")
	}
}
