package cli

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"options-toolbox/internal/models"
	"options-toolbox/internal/recon"
	"options-toolbox/internal/toolbox"
)

func newPnLCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pnl",
		Short: "Reconcile the trade book into realized and unrealized PnL",
		Long: `Replay the trade book in chronological order and split PnL.

Fills for one contract are netted as they arrive: a full square-off books the
whole position, a partial square-off books the overlapping quantity at both
sides' average prices, and a direction flip books the old position and opens
the remainder at the flip price. Positions still open at the end are marked
against the latest snapshot when one is available.`,
		Example: `  toolbox pnl
  toolbox pnl --from 01-Apr-2026 --to 30-Apr-2026
  toolbox pnl --open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			from, to, err := parseWindow(cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			engine := recon.NewEngine(app.Logger)
			runner := toolbox.NewPnLRunner(app.Source, engine, app.Store, app.Notifier, app.Config, app.Logger)

			rows, open, err := runner.Run(ctx, from, to)
			if err != nil {
				output.Error("Reconciliation failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"realized": rows,
					"open":     open,
				})
			}

			color.Cyan("💰 Realized PnL - %d rows", len(rows))
			output.Println()
			displayRealized(output, rows)

			showOpen, _ := cmd.Flags().GetBool("open")
			if showOpen && len(open) > 0 {
				output.Println()
				color.Cyan("📂 Open Positions - %d contracts", len(open))
				output.Println()
				displayOpen(ctx, app, output, open)
			}
			return nil
		},
	}

	cmd.Flags().String("from", "", "Window start (02-Jan-2006)")
	cmd.Flags().String("to", "", "Window end (02-Jan-2006)")
	cmd.Flags().Bool("open", false, "Also show open positions with unrealized PnL")

	return cmd
}

func parseWindow(cmd *cobra.Command) (from, to time.Time, err error) {
	if s, _ := cmd.Flags().GetString("from"); s != "" {
		from, err = time.Parse(models.DateLayout, s)
		if err != nil {
			return from, to, fmt.Errorf("invalid --from date %q, use %s", s, models.DateLayout)
		}
	}
	if s, _ := cmd.Flags().GetString("to"); s != "" {
		to, err = time.Parse(models.DateLayout, s)
		if err != nil {
			return from, to, fmt.Errorf("invalid --to date %q, use %s", s, models.DateLayout)
		}
	}
	return from, to, nil
}

func displayRealized(output *Output, rows []models.RealizedRow) {
	if len(rows) == 0 {
		output.Dim("Nothing realized in the window.")
		return
	}

	table := NewTable(output, "Stock", "Expiry", "Realized")
	total := 0.0
	for _, row := range rows {
		table.AddRow(row.Stock, row.Expiry, output.FormatPnL(row.Realized))
		total += row.Realized
	}
	table.Render()

	output.Println()
	output.Printf("  Total: %s\n", output.FormatPnL(total))
}

// displayOpen lists open positions, marking each against the last traded
// price from the symbol's snapshot when one loads.
func displayOpen(ctx context.Context, app *App, output *Output, open map[models.ContractKey]models.OpenPosition) {
	keys := make([]models.ContractKey, 0, len(open))
	for key := range open {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Stock != keys[j].Stock {
			return keys[i].Stock < keys[j].Stock
		}
		return keys[i].Strike < keys[j].Strike
	})

	chains := make(map[string]*models.OptionChain)
	table := NewTable(output, "Stock", "Expiry", "Right", "Strike", "Qty", "Avg Price", "LTP", "Unrealized")
	for _, key := range keys {
		pos := open[key]

		ltpStr, unrealStr := "-", "-"
		chain, ok := chains[key.Stock]
		if !ok {
			chain, _ = app.Source.GetOptionChain(ctx, key.Stock)
			chains[key.Stock] = chain
		}
		if chain != nil {
			if quote, ok := chain.Quote(key.Strike, key.Right); ok {
				ltpStr = formatPrice(quote.Last)
				unrealStr = output.FormatPnL(recon.Unrealized(pos, quote.Last))
			}
		}

		table.AddRow(
			key.Stock,
			key.Expiry,
			string(key.Right),
			formatStrike(key.Strike),
			fmt.Sprintf("%d", pos.Quantity),
			formatPrice(math.Abs(pos.UnitPrice())),
			ltpStr,
			unrealStr,
		)
	}
	table.Render()
}
