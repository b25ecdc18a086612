package models

import "time"

// ContractKey identifies one option contract across brokers.
type ContractKey struct {
	Stock  string
	Expiry string // DateLayout, e.g. 29-Feb-2024
	Right  OptionType
	Strike float64
}

// LedgerKey identifies a realized-PnL bucket. Strike and right detail is
// discarded at the ledger level.
type LedgerKey struct {
	Stock  string
	Expiry string
}

// TradeFill is one executed trade from a broker trade book, normalized.
// Quantity is signed: positive long, negative short. Amount is the net cash
// flow of the fill (premium x quantity minus charges); negative means cash
// paid out. Fills for one key must be consumed in ascending TradeTime order.
type TradeFill struct {
	Stock     string
	Expiry    time.Time
	Right     OptionType
	Strike    float64
	Quantity  int
	Amount    float64
	TradeTime time.Time
}

// Key returns the contract key for the fill.
func (f *TradeFill) Key() ContractKey {
	return ContractKey{
		Stock:  f.Stock,
		Expiry: f.Expiry.Format(DateLayout),
		Right:  f.Right,
		Strike: f.Strike,
	}
}

// LedgerKey returns the realized-PnL bucket for the fill.
func (f *TradeFill) LedgerKey() LedgerKey {
	return LedgerKey{Stock: f.Stock, Expiry: f.Expiry.Format(DateLayout)}
}

// OpenPosition is the running state for one contract key during a
// reconciliation run. Quantity and Amount carry the same sign conventions as
// TradeFill.
type OpenPosition struct {
	Key      ContractKey
	Quantity int
	Amount   float64
}

// UnitPrice returns the per-unit cash amount of the position. The sign
// follows Amount: negative for a long (cash paid), positive for a short.
func (p *OpenPosition) UnitPrice() float64 {
	if p.Quantity == 0 {
		return 0
	}
	qty := p.Quantity
	if qty < 0 {
		qty = -qty
	}
	return p.Amount / float64(qty)
}

// RealizedRow is one reconciliation output row.
type RealizedRow struct {
	Stock    string
	Expiry   string
	Realized float64 // whole currency units
}
