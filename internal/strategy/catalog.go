// Package strategy provides the named-strategy catalog and leg resolution
// against a concrete option chain.
package strategy

import (
	"options-toolbox/internal/errors"
	"options-toolbox/internal/models"
)

// Kind is a closed enumeration of the named strategies in the catalog.
type Kind string

const (
	ShortStraddle      Kind = "SHORT_STRADDLE"
	LongStraddle       Kind = "LONG_STRADDLE"
	ShortStrangle      Kind = "SHORT_STRANGLE"
	LongStrangle       Kind = "LONG_STRANGLE"
	ShortGuts          Kind = "SHORT_GUTS"
	LongGuts           Kind = "LONG_GUTS"
	LongCallButterfly  Kind = "LONG_CALL_BUTTERFLY"
	ShortCallButterfly Kind = "SHORT_CALL_BUTTERFLY"
	LongPutButterfly   Kind = "LONG_PUT_BUTTERFLY"
	ShortPutButterfly  Kind = "SHORT_PUT_BUTTERFLY"
	LongCallCondor     Kind = "LONG_CALL_CONDOR"
	ShortCallCondor    Kind = "SHORT_CALL_CONDOR"
	LongPutCondor      Kind = "LONG_PUT_CONDOR"
	ShortPutCondor     Kind = "SHORT_PUT_CONDOR"
	LongIronButterfly  Kind = "LONG_IRON_BUTTERFLY"
	ShortIronButterfly Kind = "SHORT_IRON_BUTTERFLY"
)

// All returns every strategy kind in the catalog, in a stable order.
func All() []Kind {
	return []Kind{
		ShortStraddle, LongStraddle,
		ShortStrangle, LongStrangle,
		ShortGuts, LongGuts,
		LongCallButterfly, ShortCallButterfly,
		LongPutButterfly, ShortPutButterfly,
		LongCallCondor, ShortCallCondor,
		LongPutCondor, ShortPutCondor,
		LongIronButterfly, ShortIronButterfly,
	}
}

// templateLeg is one relative-strike leg of a strategy template. Offset is
// multiplied by the caller's strike-diff step at resolution time.
type templateLeg struct {
	typ    models.OptionType
	tranx  models.TranxType
	offset int
	lots   int
}

// template returns the fixed leg list for a kind. The switch is exhaustive
// over the catalog; an unknown kind resolves to ErrUnknownStrategy.
func template(kind Kind) ([]templateLeg, error) {
	call, put := models.OptionTypeCall, models.OptionTypePut
	buy, sell := models.TranxTypeBuy, models.TranxTypeSell

	switch kind {
	case ShortStraddle:
		return []templateLeg{
			{call, sell, 0, 1},
			{put, sell, 0, 1},
		}, nil
	case LongStraddle:
		return []templateLeg{
			{call, buy, 0, 1},
			{put, buy, 0, 1},
		}, nil
	case ShortStrangle:
		return []templateLeg{
			{call, sell, 1, 1},
			{put, sell, -1, 1},
		}, nil
	case LongStrangle:
		return []templateLeg{
			{call, buy, 1, 1},
			{put, buy, -1, 1},
		}, nil
	case ShortGuts:
		// Sell the ITM call below ATM and the ITM put above ATM.
		return []templateLeg{
			{call, sell, -1, 1},
			{put, sell, 1, 1},
		}, nil
	case LongGuts:
		return []templateLeg{
			{call, buy, -1, 1},
			{put, buy, 1, 1},
		}, nil
	case LongCallButterfly:
		return []templateLeg{
			{call, sell, 0, 2},
			{call, buy, 1, 1},
			{call, buy, -1, 1},
		}, nil
	case ShortCallButterfly:
		return []templateLeg{
			{call, buy, 0, 2},
			{call, sell, 1, 1},
			{call, sell, -1, 1},
		}, nil
	case LongPutButterfly:
		return []templateLeg{
			{put, sell, 0, 2},
			{put, buy, 1, 1},
			{put, buy, -1, 1},
		}, nil
	case ShortPutButterfly:
		return []templateLeg{
			{put, buy, 0, 2},
			{put, sell, 1, 1},
			{put, sell, -1, 1},
		}, nil
	case LongCallCondor:
		return []templateLeg{
			{call, sell, 0, 1},
			{call, sell, 1, 1},
			{call, buy, 2, 1},
			{call, buy, -1, 1},
		}, nil
	case ShortCallCondor:
		return []templateLeg{
			{call, buy, 0, 1},
			{call, buy, 1, 1},
			{call, sell, 2, 1},
			{call, sell, -1, 1},
		}, nil
	case LongPutCondor:
		return []templateLeg{
			{put, sell, 0, 1},
			{put, sell, 1, 1},
			{put, buy, 2, 1},
			{put, buy, -1, 1},
		}, nil
	case ShortPutCondor:
		return []templateLeg{
			{put, buy, 0, 1},
			{put, buy, 1, 1},
			{put, sell, 2, 1},
			{put, sell, -1, 1},
		}, nil
	case LongIronButterfly:
		return []templateLeg{
			{call, sell, 0, 1},
			{put, sell, 0, 1},
			{call, buy, 1, 1},
			{put, buy, -1, 1},
		}, nil
	case ShortIronButterfly:
		return []templateLeg{
			{call, buy, 0, 1},
			{put, buy, 0, 1},
			{call, sell, 1, 1},
			{put, sell, -1, 1},
		}, nil
	}
	return nil, errors.Wrapf(errors.ErrUnknownStrategy, "kind %q", kind)
}

// Resolve instantiates the named strategy against the chain. Each template
// offset k maps to the strike at atmIndex + k*strikeDiff; offsets landing
// outside the chain return ErrStrikeRangeExceeded so the caller can skip the
// symbol without failing the batch. Legs come back with strikes and expiry
// filled in but unpriced.
func Resolve(kind Kind, chain *models.OptionChain, strikeDiff int) (*models.Strategy, error) {
	if len(chain.Strikes) == 0 {
		return nil, errors.NewSnapshotError(chain.Symbol, "resolve", errors.ErrEmptyStrikeGrid)
	}
	if strikeDiff < 1 {
		strikeDiff = 1
	}

	legs, err := template(kind)
	if err != nil {
		return nil, err
	}

	atm := chain.ATMIndex()
	resolved := make([]models.OptionLeg, 0, len(legs))
	for _, tl := range legs {
		idx := atm + tl.offset*strikeDiff
		if idx < 0 || idx >= len(chain.Strikes) {
			return nil, errors.Wrapf(errors.ErrStrikeRangeExceeded,
				"%s %s: offset %d from ATM index %d", chain.Symbol, kind, tl.offset*strikeDiff, atm)
		}
		resolved = append(resolved, models.OptionLeg{
			Type:   tl.typ,
			Tranx:  tl.tranx,
			Offset: tl.offset * strikeDiff,
			Lots:   tl.lots,
			Strike: chain.Strikes[idx].Strike,
			Expiry: chain.Expiry,
		})
	}

	return &models.Strategy{
		Name:   string(kind),
		Symbol: chain.Symbol,
		Expiry: chain.Expiry,
		Legs:   resolved,
	}, nil
}
