// Package recon replays a chronological trade tape per contract and splits
// profit-and-loss into realized and unrealized.
package recon

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"options-toolbox/internal/errors"
	"options-toolbox/internal/models"
)

// Ledger accumulates booked profit per (stock, expiry). Entries only ever
// grow by appending realized events; nothing is rewritten.
type Ledger map[models.LedgerKey]float64

// Outcome is the result of one reconciliation run.
type Outcome struct {
	Realized Ledger
	Open     map[models.ContractKey]models.OpenPosition
}

// Engine replays trade fills. It keeps no state between runs; the open
// position map is local to one call, so runs for different tapes are
// independent and a caller may shard tapes by contract key across
// goroutines if it wants to.
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates a reconciliation engine.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger}
}

// ValidateFill rejects rows that must not enter the tape. The engine assumes
// validated input and does not recover from corrupt rows mid-stream.
func ValidateFill(f models.TradeFill) error {
	if f.Stock == "" {
		return errors.NewFillError(f.Stock, "stock", f.Stock, "empty stock code")
	}
	if f.Quantity == 0 {
		return errors.NewFillError(f.Stock, "quantity", f.Quantity, "zero quantity")
	}
	if math.IsNaN(f.Amount) || math.IsInf(f.Amount, 0) {
		return errors.NewFillError(f.Stock, "amount", f.Amount, "amount not a finite number")
	}
	if f.TradeTime.IsZero() {
		return errors.NewFillError(f.Stock, "trade_time", f.TradeTime, "missing trade timestamp")
	}
	return nil
}

// Reconcile consumes the tape in order and returns the realized ledger plus
// the positions still open at the end. Fills for one contract key must
// arrive in ascending trade-time order; the engine cannot detect a shuffled
// tape and will book a wrong ledger from one.
func (e *Engine) Reconcile(tape []models.TradeFill) (*Outcome, error) {
	out := &Outcome{
		Realized: make(Ledger),
		Open:     make(map[models.ContractKey]models.OpenPosition),
	}

	for i := range tape {
		fill := tape[i]
		if err := ValidateFill(fill); err != nil {
			return nil, err
		}
		e.apply(out, fill)
	}

	return out, nil
}

// apply advances the per-key state machine by one fill.
func (e *Engine) apply(out *Outcome, fill models.TradeFill) {
	key := fill.Key()
	pos, open := out.Open[key]

	if !open {
		out.Open[key] = models.OpenPosition{Key: key, Quantity: fill.Quantity, Amount: fill.Amount}
		return
	}

	switch {
	case pos.Quantity+fill.Quantity == 0:
		// Full square-off: everything paid and received for this contract
		// nets out as realized profit.
		e.book(out, fill.LedgerKey(), pos.Amount+fill.Amount)
		delete(out.Open, key)

	case sameSign(pos.Quantity, fill.Quantity):
		// Compounding the existing direction.
		pos.Quantity += fill.Quantity
		pos.Amount += fill.Amount
		out.Open[key] = pos

	default:
		e.partialClose(out, key, pos, fill)
	}
}

// partialClose books the overlapping quantity and leaves the larger side
// open. The surviving units keep their own side's per-unit cost basis: a
// reduced position keeps its original average price, a flipped position
// starts at the fill's price. (The weighted-average rule; booking the
// overlap at the other side's unit price would silently shift cost basis
// between realized and unrealized.)
func (e *Engine) partialClose(out *Outcome, key models.ContractKey, pos models.OpenPosition, fill models.TradeFill) {
	fillPos := models.OpenPosition{Quantity: fill.Quantity, Amount: fill.Amount}
	runUnit := pos.UnitPrice()
	fillUnit := fillPos.UnitPrice()

	minQty := absInt(pos.Quantity)
	if q := absInt(fill.Quantity); q < minQty {
		minQty = q
	}

	e.book(out, fill.LedgerKey(), (runUnit+fillUnit)*float64(minQty))

	leftoverQty := pos.Quantity + fill.Quantity
	unit := runUnit
	if absInt(fill.Quantity) > absInt(pos.Quantity) {
		unit = fillUnit
	}

	out.Open[key] = models.OpenPosition{
		Key:      key,
		Quantity: leftoverQty,
		Amount:   unit * float64(absInt(leftoverQty)),
	}
}

func (e *Engine) book(out *Outcome, key models.LedgerKey, amount float64) {
	out.Realized[key] += amount
	e.logger.Debug().
		Str("stock", key.Stock).
		Str("expiry", key.Expiry).
		Float64("booked", amount).
		Msg("Realized PnL event")
}

// Rows returns the ledger as sorted output rows, rounded to whole currency
// units.
func (o *Outcome) Rows() []models.RealizedRow {
	rows := make([]models.RealizedRow, 0, len(o.Realized))
	for key, pnl := range o.Realized {
		rows = append(rows, models.RealizedRow{
			Stock:    key.Stock,
			Expiry:   key.Expiry,
			Realized: math.Round(pnl),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Stock != rows[j].Stock {
			return rows[i].Stock < rows[j].Stock
		}
		return rows[i].Expiry < rows[j].Expiry
	})
	return rows
}

// Unrealized marks an open position against the given last traded price.
// For a long the cash out (negative amount) offsets the current value; for a
// short the premium received offsets the cost of buying back.
func Unrealized(pos models.OpenPosition, ltp float64) float64 {
	return pos.Amount + ltp*float64(pos.Quantity)
}

func sameSign(a, b int) bool {
	return (a > 0) == (b > 0)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
