package toolbox

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"options-toolbox/internal/broker"
	"options-toolbox/internal/config"
	"options-toolbox/internal/logging"
	"options-toolbox/internal/models"
	"options-toolbox/internal/notify"
	"options-toolbox/internal/recon"
	"options-toolbox/internal/store"
	"options-toolbox/pkg/utils"
)

// PnLRunner replays the broker trade book through the reconciliation engine,
// persists the ledger and raises threshold alerts.
type PnLRunner struct {
	trades   broker.TradeSource
	engine   *recon.Engine
	store    store.DataStore // may be nil
	notifier notify.Notifier
	cfg      *config.Config
	logger   zerolog.Logger
}

// NewPnLRunner creates a reconciliation runner.
func NewPnLRunner(trades broker.TradeSource, engine *recon.Engine, dataStore store.DataStore,
	notifier notify.Notifier, cfg *config.Config, logger zerolog.Logger) *PnLRunner {
	return &PnLRunner{
		trades:   trades,
		engine:   engine,
		store:    dataStore,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run fetches the trade tape for the window, reconciles it and returns the
// realized rows plus the still-open positions.
func (r *PnLRunner) Run(ctx context.Context, from, to time.Time) ([]models.RealizedRow, map[models.ContractKey]models.OpenPosition, error) {
	tape, err := r.trades.GetTradeBook(ctx, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching trade book: %w", err)
	}

	outcome, err := r.engine.Reconcile(tape)
	if err != nil {
		return nil, nil, fmt.Errorf("reconciling trade tape: %w", err)
	}

	rows := outcome.Rows()
	logging.LogReconRun(r.logger, len(tape), len(rows), len(outcome.Open))

	runAt := time.Now()
	if r.store != nil {
		if err := r.store.SaveRealized(ctx, rows, runAt); err != nil {
			r.logger.Error().Err(err).Msg("Failed to persist realized ledger")
		}
	}

	r.checkThresholds(ctx, rows)
	return rows, outcome.Open, nil
}

// checkThresholds raises one alert per stock whose realized PnL crosses its
// configured band.
func (r *PnLRunner) checkThresholds(ctx context.Context, rows []models.RealizedRow) {
	if r.notifier == nil {
		return
	}

	byStock := make(map[string]float64)
	for _, row := range rows {
		byStock[row.Stock] += row.Realized
	}

	for stock, pnl := range byStock {
		target, stop := r.band(stock)
		var title string
		switch {
		case pnl > target:
			title = fmt.Sprintf("%s profit target reached", stock)
		case pnl < stop:
			title = fmt.Sprintf("%s stop loss breached", stock)
		default:
			continue
		}

		n := notify.Notification{
			Type:    notify.NotificationAlert,
			Title:   title,
			Message: fmt.Sprintf("Realized PnL %s", utils.FormatIndianCurrency(pnl)),
		}
		if err := r.notifier.Send(ctx, n); err != nil {
			r.logger.Warn().Err(err).Str("stock", stock).Msg("Failed to send PnL alert")
		}
	}
}

func (r *PnLRunner) band(stock string) (target, stop float64) {
	target, stop = r.cfg.Alerts.ProfitTarget, r.cfg.Alerts.StopLoss
	if band, ok := r.cfg.Alerts.PerStock[stock]; ok {
		target, stop = band.ProfitTarget, band.StopLoss
	}
	return target, stop
}
