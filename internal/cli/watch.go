package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [symbols...]",
		Short: "Re-scan the watchlist on an interval",
		Long: `Run the strategy scan in a loop, refreshing on the configured interval.

Each round rebuilds every catalog strategy from a fresh snapshot and prints
the top results. Stop with Ctrl-C.`,
		Example: `  toolbox watch
  toolbox watch NIFTY --interval 60`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			symbols := resolveSymbols(app, args)
			if len(symbols) == 0 {
				output.Error("No symbols given and the watchlist is empty.")
				return fmt.Errorf("no symbols to watch")
			}

			interval := time.Duration(app.Config.Scan.RefreshSeconds) * time.Second
			if secs, _ := cmd.Flags().GetInt("interval"); secs > 0 {
				interval = time.Duration(secs) * time.Second
			}
			top, _ := cmd.Flags().GetInt("top")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			output.Info("Watching %d symbols, refreshing every %s. Ctrl-C to stop.", len(symbols), interval)
			runWatchRound(ctx, app, output, symbols, top)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					output.Println()
					output.Dim("Watch stopped.")
					return nil
				case <-ticker.C:
					runWatchRound(ctx, app, output, symbols, top)
				}
			}
		},
	}

	cmd.Flags().Int("interval", 0, "Refresh interval in seconds (default: scan.refresh_seconds)")
	cmd.Flags().Int("top", 5, "Strategies to show per round")

	return cmd
}

func runWatchRound(ctx context.Context, app *App, output *Output, symbols []string, top int) {
	builder := newBuilder(app)
	reports := builder.Run(ctx, symbols)
	if len(reports) == 0 {
		output.Warning("[%s] no strategies built", time.Now().Format("15:04:05"))
		return
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].PremiumCredit > reports[j].PremiumCredit
	})
	if top > 0 && len(reports) > top {
		reports = reports[:top]
	}

	output.Println()
	output.Bold("[%s] top strategies", time.Now().Format("15:04:05"))
	displayReports(output, reports)
}
