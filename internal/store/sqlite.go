// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"options-toolbox/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
	// last seen IV per contract, so the solver fallback does not hit the
	// database on every missing quote
	ivCache map[ivKey]float64
}

type ivKey struct {
	symbol string
	strike float64
	right  models.OptionType
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:      db,
		ivCache: make(map[ivKey]float64),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Strategy evaluation reports
	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		stock TEXT NOT NULL,
		strategy TEXT NOT NULL,
		premium_credit REAL NOT NULL,
		premium_per_lot REAL NOT NULL,
		percent_premium REAL NOT NULL,
		max_profit REAL NOT NULL,
		max_loss REAL NOT NULL,
		spot REAL NOT NULL,
		delta REAL NOT NULL,
		theta REAL NOT NULL,
		total_delta REAL NOT NULL,
		total_theta REAL NOT NULL,
		avg_iv REAL NOT NULL,
		lot_size INTEGER NOT NULL,
		legs TEXT NOT NULL,          -- JSON: sell/buy leg quote arrays
		payoff_ranges TEXT NOT NULL, -- JSON
		strikes TEXT NOT NULL,       -- JSON
		evaluated_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_reports_stock ON reports(stock, evaluated_at);

	-- Realized PnL ledger, one row per (stock, expiry) per run
	CREATE TABLE IF NOT EXISTS realized_pnl (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		stock TEXT NOT NULL,
		expiry TEXT NOT NULL,
		realized REAL NOT NULL,
		run_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(stock, expiry, run_at)
	);

	-- IV history per contract, backs the solver fallback
	CREATE TABLE IF NOT EXISTS iv_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		strike REAL NOT NULL,
		contract_right TEXT NOT NULL,
		iv REAL NOT NULL,
		observed_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_iv_history ON iv_history(symbol, strike, contract_right, observed_at);

	-- Lot sizes, refreshed from the exchange CSV
	CREATE TABLE IF NOT EXISTS lot_sizes (
		symbol TEXT PRIMARY KEY,
		lot_size INTEGER NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// legsJSON is the JSON shape of the per-side leg quotes in the reports table.
type legsJSON struct {
	SellCalls []models.LegQuote `json:"sell_calls,omitempty"`
	SellPuts  []models.LegQuote `json:"sell_puts,omitempty"`
	BuyCalls  []models.LegQuote `json:"buy_calls,omitempty"`
	BuyPuts   []models.LegQuote `json:"buy_puts,omitempty"`
}

// SaveReport persists one strategy evaluation.
func (s *SQLiteStore) SaveReport(ctx context.Context, report *models.StrategyReport) error {
	legs, err := json.Marshal(legsJSON{
		SellCalls: report.SellCalls,
		SellPuts:  report.SellPuts,
		BuyCalls:  report.BuyCalls,
		BuyPuts:   report.BuyPuts,
	})
	if err != nil {
		return fmt.Errorf("encoding legs: %w", err)
	}
	ranges, err := json.Marshal(report.PayoffRanges)
	if err != nil {
		return fmt.Errorf("encoding payoff ranges: %w", err)
	}
	strikes, err := json.Marshal(report.Strikes)
	if err != nil {
		return fmt.Errorf("encoding strikes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (
			stock, strategy, premium_credit, premium_per_lot, percent_premium,
			max_profit, max_loss, spot, delta, theta, total_delta, total_theta,
			avg_iv, lot_size, legs, payoff_ranges, strikes, evaluated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.Stock, report.StrategyName, report.PremiumCredit, report.PremiumPerLot,
		report.PercentPremium, report.MaxProfit, report.MaxLoss, report.Spot,
		report.Delta, report.Theta, report.TotalDelta, report.TotalTheta,
		report.AvgIV, report.LotSize, string(legs), string(ranges), string(strikes),
		report.EvaluatedAt)
	if err != nil {
		return fmt.Errorf("inserting report: %w", err)
	}
	return nil
}

// GetReports returns reports matching the filter, newest first.
func (s *SQLiteStore) GetReports(ctx context.Context, filter ReportFilter) ([]models.StrategyReport, error) {
	query := `
		SELECT stock, strategy, premium_credit, premium_per_lot, percent_premium,
			max_profit, max_loss, spot, delta, theta, total_delta, total_theta,
			avg_iv, lot_size, legs, payoff_ranges, strikes, evaluated_at
		FROM reports WHERE 1=1`
	var args []interface{}

	if filter.Stock != "" {
		query += " AND stock = ?"
		args = append(args, filter.Stock)
	}
	if filter.Strategy != "" {
		query += " AND strategy = ?"
		args = append(args, filter.Strategy)
	}
	if !filter.StartDate.IsZero() {
		query += " AND evaluated_at >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND evaluated_at <= ?"
		args = append(args, filter.EndDate)
	}
	query += " ORDER BY evaluated_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var reports []models.StrategyReport
	for rows.Next() {
		var r models.StrategyReport
		var legs, ranges, strikes string
		if err := rows.Scan(
			&r.Stock, &r.StrategyName, &r.PremiumCredit, &r.PremiumPerLot,
			&r.PercentPremium, &r.MaxProfit, &r.MaxLoss, &r.Spot,
			&r.Delta, &r.Theta, &r.TotalDelta, &r.TotalTheta,
			&r.AvgIV, &r.LotSize, &legs, &ranges, &strikes, &r.EvaluatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}

		var lj legsJSON
		if err := json.Unmarshal([]byte(legs), &lj); err == nil {
			r.SellCalls, r.SellPuts = lj.SellCalls, lj.SellPuts
			r.BuyCalls, r.BuyPuts = lj.BuyCalls, lj.BuyPuts
		}
		_ = json.Unmarshal([]byte(ranges), &r.PayoffRanges)
		_ = json.Unmarshal([]byte(strikes), &r.Strikes)

		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// SaveRealized persists one reconciliation run's ledger rows.
func (s *SQLiteStore) SaveRealized(ctx context.Context, rows []models.RealizedRow, runAt time.Time) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO realized_pnl (stock, expiry, realized, run_at)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.Stock, row.Expiry, row.Realized, runAt); err != nil {
			return fmt.Errorf("inserting realized row %s/%s: %w", row.Stock, row.Expiry, err)
		}
	}

	return tx.Commit()
}

// GetRealized returns the most recent run's ledger rows, optionally filtered
// by stock.
func (s *SQLiteStore) GetRealized(ctx context.Context, stock string) ([]models.RealizedRow, error) {
	query := `
		SELECT stock, expiry, realized FROM realized_pnl
		WHERE run_at = (SELECT MAX(run_at) FROM realized_pnl)`
	var args []interface{}
	if stock != "" {
		query += " AND stock = ?"
		args = append(args, stock)
	}
	query += " ORDER BY stock, expiry"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying realized pnl: %w", err)
	}
	defer rows.Close()

	var out []models.RealizedRow
	for rows.Next() {
		var r models.RealizedRow
		if err := rows.Scan(&r.Stock, &r.Expiry, &r.Realized); err != nil {
			return nil, fmt.Errorf("scanning realized row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveIV records one observed implied volatility.
func (s *SQLiteStore) SaveIV(ctx context.Context, symbol string, strike float64, right models.OptionType, iv float64, at time.Time) error {
	if iv == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO iv_history (symbol, strike, contract_right, iv, observed_at)
		VALUES (?, ?, ?, ?, ?)`,
		symbol, strike, strings.ToUpper(string(right)), iv, at)
	if err != nil {
		return fmt.Errorf("inserting iv: %w", err)
	}

	s.mu.Lock()
	s.ivCache[ivKey{symbol, strike, right}] = iv
	s.mu.Unlock()
	return nil
}

// LastKnownIV returns the most recently observed IV for a contract. It
// implements pricing.IVHistory.
func (s *SQLiteStore) LastKnownIV(symbol string, strike float64, right models.OptionType) (float64, bool) {
	s.mu.RLock()
	if iv, ok := s.ivCache[ivKey{symbol, strike, right}]; ok {
		s.mu.RUnlock()
		return iv, true
	}
	s.mu.RUnlock()

	var iv float64
	err := s.db.QueryRow(`
		SELECT iv FROM iv_history
		WHERE symbol = ? AND strike = ? AND contract_right = ?
		ORDER BY observed_at DESC LIMIT 1`,
		symbol, strike, strings.ToUpper(string(right))).Scan(&iv)
	if err != nil {
		return 0, false
	}

	s.mu.Lock()
	s.ivCache[ivKey{symbol, strike, right}] = iv
	s.mu.Unlock()
	return iv, true
}

// SaveLotSizes replaces the stored lot-size table.
func (s *SQLiteStore) SaveLotSizes(ctx context.Context, sizes map[string]int, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO lot_sizes (symbol, lot_size, updated_at)
		VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for symbol, size := range sizes {
		if _, err := stmt.ExecContext(ctx, symbol, size, at); err != nil {
			return fmt.Errorf("inserting lot size %s: %w", symbol, err)
		}
	}

	return tx.Commit()
}

// GetLotSizes returns the stored lot-size table and its oldest refresh time.
func (s *SQLiteStore) GetLotSizes(ctx context.Context) (map[string]int, time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, lot_size, updated_at FROM lot_sizes`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("querying lot sizes: %w", err)
	}
	defer rows.Close()

	sizes := make(map[string]int)
	var oldest time.Time
	for rows.Next() {
		var symbol string
		var size int
		var updated time.Time
		if err := rows.Scan(&symbol, &size, &updated); err != nil {
			return nil, time.Time{}, fmt.Errorf("scanning lot size: %w", err)
		}
		sizes[symbol] = size
		if oldest.IsZero() || updated.Before(oldest) {
			oldest = updated
		}
	}
	return sizes, oldest, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
