package strategy

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-toolbox/internal/errors"
	"options-toolbox/internal/models"
)

// chainWithStrikes builds a chain whose ATM lands on the strike closest to
// spot. Quotes are irrelevant to resolution and stay nil.
func chainWithStrikes(spot float64, strikes ...float64) *models.OptionChain {
	chain := &models.OptionChain{
		Symbol:    "RELIANCE",
		SpotPrice: spot,
		Expiry:    time.Date(2026, 9, 24, 0, 0, 0, 0, time.UTC),
	}
	for _, s := range strikes {
		chain.Strikes = append(chain.Strikes, models.StrikeQuote{Strike: s})
	}
	return chain
}

func legStrikes(s *models.Strategy, typ models.OptionType, tranx models.TranxType) []float64 {
	var out []float64
	for _, leg := range s.Legs {
		if leg.Type == typ && leg.Tranx == tranx {
			out = append(out, leg.Strike)
		}
	}
	return out
}

func TestAllKindsHaveTemplates(t *testing.T) {
	kinds := All()
	if len(kinds) != 16 {
		t.Fatalf("catalog has %d kinds, want 16", len(kinds))
	}

	seen := make(map[Kind]bool)
	for _, kind := range kinds {
		if seen[kind] {
			t.Errorf("duplicate kind %s", kind)
		}
		seen[kind] = true

		legs, err := template(kind)
		if err != nil {
			t.Errorf("template(%s) failed: %v", kind, err)
		}
		if len(legs) < 2 || len(legs) > 4 {
			t.Errorf("template(%s) has %d legs", kind, len(legs))
		}
	}
}

func TestTemplateUnknownKind(t *testing.T) {
	_, err := template(Kind("CALENDAR_SPREAD"))
	if !errors.Is(err, errors.ErrUnknownStrategy) {
		t.Errorf("got %v, want ErrUnknownStrategy", err)
	}
}

func TestResolveShortStraddle(t *testing.T) {
	chain := chainWithStrikes(101, 90, 95, 100, 105, 110)

	s, err := Resolve(ShortStraddle, chain, 1)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(s.Legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(s.Legs))
	}
	for _, leg := range s.Legs {
		if leg.Strike != 100 {
			t.Errorf("straddle leg at %.0f, want the ATM 100", leg.Strike)
		}
		if leg.Tranx != models.TranxTypeSell {
			t.Errorf("short straddle leg is %s, want SELL", leg.Tranx)
		}
		if !leg.Expiry.Equal(chain.Expiry) {
			t.Errorf("leg expiry %v, want chain expiry", leg.Expiry)
		}
	}
}

func TestResolveShortGuts(t *testing.T) {
	chain := chainWithStrikes(101, 90, 95, 100, 105, 110)

	s, err := Resolve(ShortGuts, chain, 1)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// Guts sell in-the-money: the call below ATM, the put above.
	calls := legStrikes(s, models.OptionTypeCall, models.TranxTypeSell)
	puts := legStrikes(s, models.OptionTypePut, models.TranxTypeSell)
	if len(calls) != 1 || calls[0] != 95 {
		t.Errorf("guts call at %v, want [95]", calls)
	}
	if len(puts) != 1 || puts[0] != 105 {
		t.Errorf("guts put at %v, want [105]", puts)
	}
}

func TestResolveShortCallButterfly(t *testing.T) {
	chain := chainWithStrikes(101, 90, 95, 100, 105, 110)

	s, err := Resolve(ShortCallButterfly, chain, 1)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// Body bought double at ATM, wings sold one step out.
	for _, leg := range s.Legs {
		if leg.Strike == 100 {
			if leg.Tranx != models.TranxTypeBuy || leg.Lots != 2 {
				t.Errorf("body leg = %+v, want BUY x2", leg)
			}
		} else {
			if leg.Tranx != models.TranxTypeSell || leg.Lots != 1 {
				t.Errorf("wing leg = %+v, want SELL x1", leg)
			}
		}
	}
	wings := legStrikes(s, models.OptionTypeCall, models.TranxTypeSell)
	if len(wings) != 2 || wings[0] != 105 || wings[1] != 95 {
		t.Errorf("wings at %v, want [105 95]", wings)
	}
}

func TestResolveStrikeDiffWidensLegs(t *testing.T) {
	chain := chainWithStrikes(101, 90, 95, 100, 105, 110)

	s, err := Resolve(ShortStrangle, chain, 2)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	calls := legStrikes(s, models.OptionTypeCall, models.TranxTypeSell)
	puts := legStrikes(s, models.OptionTypePut, models.TranxTypeSell)
	if calls[0] != 110 || puts[0] != 90 {
		t.Errorf("strangle with diff 2 at call=%v put=%v, want 110/90", calls, puts)
	}
}

func TestResolveClampsNonPositiveStrikeDiff(t *testing.T) {
	chain := chainWithStrikes(101, 90, 95, 100, 105, 110)

	s, err := Resolve(ShortStrangle, chain, 0)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if calls := legStrikes(s, models.OptionTypeCall, models.TranxTypeSell); calls[0] != 105 {
		t.Errorf("clamped diff should behave as 1, call at %v", calls)
	}
}

func TestResolveStrikeRangeExceeded(t *testing.T) {
	// ATM sits on the edge, so any negative offset walks off the grid.
	chain := chainWithStrikes(90, 90, 95, 100)

	_, err := Resolve(ShortStrangle, chain, 1)
	if !errors.Is(err, errors.ErrStrikeRangeExceeded) {
		t.Errorf("got %v, want ErrStrikeRangeExceeded", err)
	}

	// A wide condor cannot fit a short grid even from the middle.
	chain = chainWithStrikes(100, 95, 100, 105)
	_, err = Resolve(LongCallCondor, chain, 1)
	if !errors.Is(err, errors.ErrStrikeRangeExceeded) {
		t.Errorf("condor on 3 strikes: got %v, want ErrStrikeRangeExceeded", err)
	}
}

func TestResolveEmptyChain(t *testing.T) {
	chain := chainWithStrikes(100)

	_, err := Resolve(ShortStraddle, chain, 1)
	if !errors.Is(err, errors.ErrEmptyStrikeGrid) {
		t.Errorf("got %v, want ErrEmptyStrikeGrid", err)
	}
}

func TestATMTieResolvesToLowerStrike(t *testing.T) {
	chain := chainWithStrikes(102.5, 100, 105)

	s, err := Resolve(ShortStraddle, chain, 1)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if s.Legs[0].Strike != 100 {
		t.Errorf("tie resolved to %.1f, want the lower strike 100", s.Legs[0].Strike)
	}
}

// Long and short variants of a kind must hold the same strikes with every
// direction flipped, and every resolved strike must exist on the grid.
func TestPropertyResolveWellFormed(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	pairs := [][2]Kind{
		{ShortStraddle, LongStraddle},
		{ShortStrangle, LongStrangle},
		{ShortGuts, LongGuts},
		{ShortCallButterfly, LongCallButterfly},
		{ShortPutButterfly, LongPutButterfly},
		{ShortCallCondor, LongCallCondor},
		{ShortPutCondor, LongPutCondor},
		{ShortIronButterfly, LongIronButterfly},
	}

	properties.Property("long mirrors short on the same strikes", prop.ForAll(
		func(base float64, pairIdx int) bool {
			// Nine strikes spaced 5 apart, spot pinned near the middle.
			strikes := make([]float64, 9)
			for i := range strikes {
				strikes[i] = base + float64(i)*5
			}
			chain := chainWithStrikes(base+21, strikes...)

			pair := pairs[pairIdx%len(pairs)]
			short, err := Resolve(pair[0], chain, 1)
			if err != nil {
				return false
			}
			long, err := Resolve(pair[1], chain, 1)
			if err != nil {
				return false
			}
			if len(short.Legs) != len(long.Legs) {
				return false
			}

			onGrid := make(map[float64]bool, len(strikes))
			for _, s := range strikes {
				onGrid[s] = true
			}

			for i := range short.Legs {
				sl, ll := short.Legs[i], long.Legs[i]
				if !onGrid[sl.Strike] || !onGrid[ll.Strike] {
					return false
				}
				if sl.Strike != ll.Strike || sl.Type != ll.Type || sl.Lots != ll.Lots {
					return false
				}
				if sl.Tranx == ll.Tranx {
					return false
				}
			}
			return true
		},
		gen.Float64Range(50, 5000),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
