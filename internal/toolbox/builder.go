// Package toolbox wires the analytics engines into the per-symbol batch
// loop: fetch snapshot, resolve and price every catalog strategy, evaluate
// payoff, persist and notify. Per-symbol failures are isolated; the batch
// always finishes.
package toolbox

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"options-toolbox/internal/broker"
	"options-toolbox/internal/config"
	"options-toolbox/internal/errors"
	"options-toolbox/internal/logging"
	"options-toolbox/internal/lots"
	"options-toolbox/internal/models"
	"options-toolbox/internal/payoff"
	"options-toolbox/internal/pricing"
	"options-toolbox/internal/store"
	"options-toolbox/internal/strategy"
)

// maxLegsPerSide caps the per-side leg quotes carried in a report.
const maxLegsPerSide = 3

// snapshotTimeout bounds one chain fetch; a slow symbol is skipped for the
// round, never retried.
const snapshotTimeout = 15 * time.Second

// Builder runs the strategy-building batch.
type Builder struct {
	source   broker.SnapshotSource
	pricer   *pricing.Pricer
	lotTable *lots.Table
	store    store.DataStore // may be nil
	cfg      *config.Config
	logger   zerolog.Logger
}

// NewBuilder creates a batch builder. store may be nil for dry runs.
func NewBuilder(source broker.SnapshotSource, pricer *pricing.Pricer, lotTable *lots.Table,
	dataStore store.DataStore, cfg *config.Config, logger zerolog.Logger) *Builder {
	return &Builder{
		source:   source,
		pricer:   pricer,
		lotTable: lotTable,
		store:    dataStore,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run builds every catalog strategy for every symbol. Symbols fan out over
// a bounded number of goroutines when scan.concurrency allows; the engines
// themselves stay synchronous.
func (b *Builder) Run(ctx context.Context, symbols []string) []models.StrategyReport {
	workers := b.cfg.Scan.Concurrency
	if workers <= 1 {
		var all []models.StrategyReport
		for _, symbol := range symbols {
			all = append(all, b.buildSymbol(ctx, symbol)...)
		}
		return all
	}

	var (
		mu  sync.Mutex
		all []models.StrategyReport
		wg  sync.WaitGroup
	)
	sem := make(chan struct{}, workers)
	for _, symbol := range symbols {
		symbol := symbol
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			reports := b.buildSymbol(ctx, symbol)
			mu.Lock()
			all = append(all, reports...)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return all
}

// buildSymbol fetches one snapshot and evaluates the whole catalog against
// it. A fetch failure skips the symbol; a strike-range failure skips just
// that strategy.
func (b *Builder) buildSymbol(ctx context.Context, symbol string) []models.StrategyReport {
	log := logging.WithSymbol(b.logger, symbol)

	fetchCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	chain, err := b.source.GetOptionChain(fetchCtx, symbol)
	if err != nil {
		logging.LogSymbolSkipped(log, symbol, "snapshot", err)
		return nil
	}

	lotSize := chain.LotSize
	if lotSize == 0 {
		size, ok := b.lotTable.Lookup(symbol)
		if !ok {
			logging.LogSymbolSkipped(log, symbol, "lot_size", errors.ErrDataNotFound)
			return nil
		}
		lotSize = size
	}

	now := time.Now()
	var reports []models.StrategyReport
	for _, kind := range strategy.All() {
		report, err := b.evaluate(ctx, kind, chain, lotSize, now)
		if err != nil {
			if errors.Is(err, errors.ErrStrikeRangeExceeded) {
				log.Debug().Str("strategy", string(kind)).Msg("Strikes out of range, skipping")
			} else {
				logging.LogSymbolSkipped(log, symbol, string(kind), err)
			}
			continue
		}
		reports = append(reports, *report)
		logging.LogStrategyEval(log, symbol, string(kind), report.PremiumCredit, report.MaxProfit, report.MaxLoss)
	}
	return reports
}

// evaluate resolves, prices and sweeps one strategy, then persists the
// report and the observed IVs.
func (b *Builder) evaluate(ctx context.Context, kind strategy.Kind, chain *models.OptionChain,
	lotSize int, now time.Time) (*models.StrategyReport, error) {

	strat, err := strategy.Resolve(kind, chain, b.cfg.Scan.StrikeDiff)
	if err != nil {
		return nil, err
	}

	if err := b.pricer.PriceStrategy(strat, chain, now); err != nil {
		return nil, err
	}
	b.persistIVs(ctx, strat, chain.Symbol, now)

	result, err := payoff.Evaluate(strat, lotSize, chain.StrikeList())
	if err != nil {
		return nil, err
	}

	greeks := b.pricer.AggregateGreeks(strat, lotSize, chain.SpotPrice, now)
	report := buildReport(strat, chain, result, greeks, lotSize, now)

	if b.store != nil {
		if err := b.store.SaveReport(ctx, report); err != nil {
			b.logger.Error().Err(err).Str("symbol", chain.Symbol).Msg("Failed to persist report")
		}
	}
	return report, nil
}

// persistIVs records each priced leg's IV so a later run can fall back to it
// when the solver fails.
func (b *Builder) persistIVs(ctx context.Context, strat *models.Strategy, symbol string, now time.Time) {
	if b.store == nil {
		return
	}
	for _, leg := range strat.Legs {
		if err := b.store.SaveIV(ctx, symbol, leg.Strike, leg.Type, leg.IV, now); err != nil {
			b.logger.Debug().Err(err).Msg("Failed to persist IV observation")
		}
	}
}

// buildReport assembles the evaluation output record.
func buildReport(strat *models.Strategy, chain *models.OptionChain, result *payoff.Result,
	greeks pricing.StrategyGreeks, lotSize int, now time.Time) *models.StrategyReport {

	report := &models.StrategyReport{
		Stock:         chain.Symbol,
		StrategyName:  strat.Name,
		PremiumCredit: result.PremiumCredit,
		MaxProfit:     result.MaxProfit,
		MaxLoss:       result.MaxLoss,
		Spot:          chain.SpotPrice,
		Delta:         greeks.Delta,
		Theta:         greeks.Theta,
		TotalDelta:    greeks.TotalDelta,
		TotalTheta:    greeks.TotalTheta,
		AvgIV:         strat.AvgIV(),
		LotSize:       lotSize,
		PayoffRanges:  result.Ranges,
		Strikes:       chain.StrikeList(),
		EvaluatedAt:   now,
	}

	if lotSize > 0 {
		report.PremiumPerLot = math.Round(result.PremiumCredit / float64(lotSize))
	}
	if chain.SpotPrice > 0 {
		report.PercentPremium = math.Round(report.PremiumPerLot/chain.SpotPrice*10000) / 10000
	}

	for n := 1; n <= maxLegsPerSide; n++ {
		if leg, ok := strat.NthLeg(n, models.OptionTypeCall, models.TranxTypeSell); ok {
			report.SellCalls = append(report.SellCalls, models.LegQuote{Price: leg.Premium, Strike: leg.Strike})
		}
		if leg, ok := strat.NthLeg(n, models.OptionTypePut, models.TranxTypeSell); ok {
			report.SellPuts = append(report.SellPuts, models.LegQuote{Price: leg.Premium, Strike: leg.Strike})
		}
		if leg, ok := strat.NthLeg(n, models.OptionTypeCall, models.TranxTypeBuy); ok {
			report.BuyCalls = append(report.BuyCalls, models.LegQuote{Price: leg.Premium, Strike: leg.Strike})
		}
		if leg, ok := strat.NthLeg(n, models.OptionTypePut, models.TranxTypeBuy); ok {
			report.BuyPuts = append(report.BuyPuts, models.LegQuote{Price: leg.Premium, Strike: leg.Strike})
		}
	}

	return report
}
