package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"options-toolbox/internal/models"
)

// reportCSVRow is one strategy report flattened for CSV export.
type reportCSVRow struct {
	Stock         string  `csv:"stock"`
	Strategy      string  `csv:"strategy"`
	Spot          float64 `csv:"spot"`
	LotSize       int     `csv:"lot_size"`
	PremiumCredit float64 `csv:"premium_credit"`
	PremiumPerLot float64 `csv:"premium_per_lot"`
	MaxProfit     float64 `csv:"max_profit"`
	MaxLoss       float64 `csv:"max_loss"`
	Delta         float64 `csv:"delta"`
	Theta         float64 `csv:"theta"`
	AvgIV         float64 `csv:"avg_iv"`
	EvaluatedAt   string  `csv:"evaluated_at"`
}

func exportReportsCSV(path string, reports []models.StrategyReport) error {
	rows := make([]reportCSVRow, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, reportCSVRow{
			Stock:         r.Stock,
			Strategy:      r.StrategyName,
			Spot:          r.Spot,
			LotSize:       r.LotSize,
			PremiumCredit: r.PremiumCredit,
			PremiumPerLot: r.PremiumPerLot,
			MaxProfit:     r.MaxProfit,
			MaxLoss:       r.MaxLoss,
			Delta:         r.Delta,
			Theta:         r.Theta,
			AvgIV:         r.AvgIV,
			EvaluatedAt:   r.EvaluatedAt.Format(time.RFC3339),
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("writing export csv: %w", err)
	}
	return nil
}
