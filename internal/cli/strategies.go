package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"options-toolbox/internal/models"
	"options-toolbox/internal/toolbox"
)

func newStrategiesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategies [symbols...]",
		Short: "Build and rank every catalog strategy",
		Long: `Build every catalog strategy for the given symbols.

For each symbol the option chain snapshot is loaded, every strategy in the
catalog is resolved around the ATM strike, priced, and swept across the
strike grid. Results are ranked by premium credit.

Without arguments the configured watchlist is used.`,
		Example: `  toolbox strategies RELIANCE
  toolbox strategies NIFTY BANKNIFTY --strike-diff 2
  toolbox strategies --top 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			symbols := resolveSymbols(app, args)
			if len(symbols) == 0 {
				output.Error("No symbols given and the watchlist is empty.")
				return fmt.Errorf("no symbols to scan")
			}

			if diff, _ := cmd.Flags().GetInt("strike-diff"); diff > 0 {
				app.Config.Scan.StrikeDiff = diff
			}
			top, _ := cmd.Flags().GetInt("top")

			reports := newBuilder(app).Run(ctx, symbols)

			if output.IsJSON() {
				return output.JSON(reports)
			}
			if len(reports) == 0 {
				output.Warning("No strategies could be built. Check snapshot data for the symbols.")
				return nil
			}

			sort.SliceStable(reports, func(i, j int) bool {
				return reports[i].PremiumCredit > reports[j].PremiumCredit
			})
			if top > 0 && len(reports) > top {
				reports = reports[:top]
			}

			if export, _ := cmd.Flags().GetString("export"); export != "" {
				if err := exportReportsCSV(export, reports); err != nil {
					return err
				}
				output.Success("Exported %d strategies to %s", len(reports), export)
			}

			color.Cyan("📊 Strategy Scan - %d symbols, %d strategies", len(symbols), len(reports))
			output.Println()
			displayReports(output, reports)

			detail, _ := cmd.Flags().GetString("detail")
			if detail != "" {
				return displayReportDetail(output, reports, detail)
			}
			return nil
		},
	}

	cmd.Flags().Int("strike-diff", 0, "Strike offset step between adjacent legs")
	cmd.Flags().Int("top", 0, "Show only the top N strategies by premium credit")
	cmd.Flags().String("detail", "", "Show full detail for one strategy name")
	cmd.Flags().String("export", "", "Write the ranked strategies to a CSV file")

	return cmd
}

func newBuilder(app *App) *toolbox.Builder {
	return toolbox.NewBuilder(app.Source, app.Pricer, app.LotTable, app.Store, app.Config, app.Logger)
}

func resolveSymbols(app *App, args []string) []string {
	if len(args) > 0 {
		symbols := make([]string, len(args))
		for i, a := range args {
			symbols[i] = strings.ToUpper(a)
		}
		return symbols
	}
	return app.Config.Scan.Watchlist
}

func displayReports(output *Output, reports []models.StrategyReport) {
	table := NewTable(output, "Stock", "Strategy", "Credit", "Per Lot", "Max Profit", "Max Loss", "Δ", "Θ", "IV")
	for _, r := range reports {
		table.AddRow(
			r.Stock,
			r.StrategyName,
			output.FormatPnL(r.PremiumCredit),
			formatPrice(r.PremiumPerLot),
			output.Green(formatCurrency(r.MaxProfit)),
			output.Red(formatCurrency(r.MaxLoss)),
			fmt.Sprintf("%.2f", r.Delta),
			fmt.Sprintf("%.2f", r.Theta),
			fmt.Sprintf("%.0f%%", r.AvgIV),
		)
	}
	table.Render()
}

func displayReportDetail(output *Output, reports []models.StrategyReport, name string) error {
	for _, r := range reports {
		if !strings.EqualFold(r.StrategyName, name) {
			continue
		}

		output.Println()
		output.Bold("%s - %s", r.Stock, r.StrategyName)
		output.Printf("  Spot: %s  Lot Size: %d  Evaluated: %s\n\n",
			formatPrice(r.Spot), r.LotSize, r.EvaluatedAt.Format(time.RFC3339))

		output.Bold("Legs")
		output.Printf("  Sell Calls: %s\n", formatLegQuotes(r.SellCalls))
		output.Printf("  Sell Puts:  %s\n", formatLegQuotes(r.SellPuts))
		output.Printf("  Buy Calls:  %s\n", formatLegQuotes(r.BuyCalls))
		output.Printf("  Buy Puts:   %s\n", formatLegQuotes(r.BuyPuts))
		output.Println()

		output.Bold("Risk")
		output.Printf("  Premium Credit:  %s\n", output.FormatPnL(r.PremiumCredit))
		output.Printf("  Premium Per Lot: %s\n", formatPrice(r.PremiumPerLot))
		output.Printf("  %% of Spot:       %.2f%%\n", r.PercentPremium*100)
		output.Printf("  Max Profit:      %s\n", output.Green(formatCurrency(r.MaxProfit)))
		output.Printf("  Max Loss:        %s\n", output.Red(formatCurrency(r.MaxLoss)))
		output.Printf("  Total Delta:     %.0f\n", r.TotalDelta)
		output.Printf("  Total Theta:     %.0f\n", r.TotalTheta)
		output.Println()

		output.Bold("Payoff at Expiry")
		for _, pr := range r.PayoffRanges {
			span := formatStrike(pr.FromStrike)
			if pr.ToStrike != pr.FromStrike {
				span += " .. " + formatStrike(pr.ToStrike)
			}
			output.Printf("  %-20s %s\n", span, output.FormatPnL(pr.Payoff))
		}
		return nil
	}

	output.Warning("No strategy named %q in the results", name)
	return nil
}
