// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"options-toolbox/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Strategy evaluation reports
	SaveReport(ctx context.Context, report *models.StrategyReport) error
	GetReports(ctx context.Context, filter ReportFilter) ([]models.StrategyReport, error)

	// Realized PnL ledger
	SaveRealized(ctx context.Context, rows []models.RealizedRow, runAt time.Time) error
	GetRealized(ctx context.Context, stock string) ([]models.RealizedRow, error)

	// IV history, backs the solver fallback
	SaveIV(ctx context.Context, symbol string, strike float64, right models.OptionType, iv float64, at time.Time) error
	LastKnownIV(symbol string, strike float64, right models.OptionType) (float64, bool)

	// Lot sizes
	SaveLotSizes(ctx context.Context, sizes map[string]int, at time.Time) error
	GetLotSizes(ctx context.Context) (map[string]int, time.Time, error)

	// Lifecycle
	Close() error
}

// ReportFilter represents filters for querying strategy reports.
type ReportFilter struct {
	Stock     string
	Strategy  string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}
