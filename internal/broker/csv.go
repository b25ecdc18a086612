package broker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"options-toolbox/internal/errors"
	"options-toolbox/internal/models"
)

// CSVSource reads option chains and trade books from local CSV files. It
// backs offline runs and tests; live connectors satisfy the same interfaces.
type CSVSource struct {
	// Dir holds <SYMBOL>.csv chain files and trades.csv.
	Dir string
}

// NewCSVSource creates a CSV-backed source rooted at dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

// chainRow is one strike row of a chain CSV. Symbol-level fields (spot,
// expiry, lot size) repeat on every row.
type chainRow struct {
	Strike   float64 `csv:"strike"`
	CallBid  float64 `csv:"call_bid"`
	CallAsk  float64 `csv:"call_ask"`
	CallLast float64 `csv:"call_last"`
	CallIV   float64 `csv:"call_iv"`
	PutBid   float64 `csv:"put_bid"`
	PutAsk   float64 `csv:"put_ask"`
	PutLast  float64 `csv:"put_last"`
	PutIV    float64 `csv:"put_iv"`
	Spot     float64 `csv:"spot"`
	Expiry   string  `csv:"expiry"` // 29-Feb-2024
	LotSize  int     `csv:"lot_size"`
}

// GetOptionChain loads <symbol>.csv and normalizes it: strikes come back
// strictly ascending and deduplicated.
func (s *CSVSource) GetOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewSnapshotError(symbol, "fetch", errors.ErrSnapshotTimeout)
	}

	path := filepath.Join(s.Dir, symbol+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewSnapshotError(symbol, "open", err)
	}
	defer f.Close()

	var rows []chainRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, errors.NewSnapshotError(symbol, "parse", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewSnapshotError(symbol, "parse", errors.ErrEmptyStrikeGrid)
	}

	expiry, err := time.Parse(models.DateLayout, rows[0].Expiry)
	if err != nil {
		return nil, errors.NewSnapshotError(symbol, "parse",
			fmt.Errorf("bad expiry %q: %w", rows[0].Expiry, err))
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Strike < rows[j].Strike })

	chain := &models.OptionChain{
		Symbol:    symbol,
		SpotPrice: rows[0].Spot,
		Expiry:    expiry,
		LotSize:   rows[0].LotSize,
		FetchedAt: time.Now(),
	}
	for _, row := range rows {
		if n := len(chain.Strikes); n > 0 && chain.Strikes[n-1].Strike == row.Strike {
			continue
		}
		chain.Strikes = append(chain.Strikes, models.StrikeQuote{
			Strike: row.Strike,
			Call:   &models.OptionQuote{Bid: row.CallBid, Ask: row.CallAsk, Last: row.CallLast, IV: row.CallIV},
			Put:    &models.OptionQuote{Bid: row.PutBid, Ask: row.PutAsk, Last: row.PutLast, IV: row.PutIV},
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.NewSnapshotError(symbol, "fetch", errors.ErrSnapshotTimeout)
	}
	return chain, nil
}

// fillRow is one trade-book row.
type fillRow struct {
	Stock     string  `csv:"stock"`
	Expiry    string  `csv:"expiry"`
	Right     string  `csv:"right"` // Call / Put
	Strike    float64 `csv:"strike"`
	Quantity  int     `csv:"quantity"` // signed
	Amount    float64 `csv:"amount"`   // signed net cash
	TradeTime string  `csv:"trade_time"`
}

// GetTradeBook loads trades.csv, keeps fills inside [from, to] and returns
// them in ascending trade-time order.
func (s *CSVSource) GetTradeBook(ctx context.Context, from, to time.Time) ([]models.TradeFill, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrSnapshotTimeout, "trade book")
	}

	f, err := os.Open(filepath.Join(s.Dir, "trades.csv"))
	if err != nil {
		return nil, fmt.Errorf("opening trade book: %w", err)
	}
	defer f.Close()

	var rows []fillRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing trade book: %w", err)
	}

	fills := make([]models.TradeFill, 0, len(rows))
	for _, row := range rows {
		expiry, err := time.Parse(models.DateLayout, row.Expiry)
		if err != nil {
			return nil, errors.NewFillError(row.Stock, "expiry", row.Expiry, "unparsable date")
		}
		tradeTime, err := time.Parse(time.RFC3339, row.TradeTime)
		if err != nil {
			return nil, errors.NewFillError(row.Stock, "trade_time", row.TradeTime, "unparsable timestamp")
		}
		if !from.IsZero() && tradeTime.Before(from) {
			continue
		}
		if !to.IsZero() && tradeTime.After(to) {
			continue
		}

		right := models.OptionTypePut
		if row.Right == "Call" || row.Right == "CALL" || row.Right == "CE" {
			right = models.OptionTypeCall
		}
		fills = append(fills, models.TradeFill{
			Stock:     row.Stock,
			Expiry:    expiry,
			Right:     right,
			Strike:    row.Strike,
			Quantity:  row.Quantity,
			Amount:    row.Amount,
			TradeTime: tradeTime,
		})
	}

	sort.SliceStable(fills, func(i, j int) bool { return fills[i].TradeTime.Before(fills[j].TradeTime) })
	return fills, nil
}
