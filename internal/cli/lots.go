package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"options-toolbox/internal/lots"
)

func newLotsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lots",
		Short: "Lot-size table management",
		Long:  "Inspect and refresh the contract lot-size table.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show [symbol]",
		Short: "Show lot sizes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if len(args) == 1 {
				size, ok := app.LotTable.Lookup(args[0])
				if !ok {
					output.Warning("No lot size for %s", args[0])
					return nil
				}
				if output.IsJSON() {
					return output.JSON(map[string]int{args[0]: size})
				}
				output.Printf("%s: %d\n", args[0], size)
				return nil
			}

			sizes := app.LotTable.Snapshot()
			if output.IsJSON() {
				return output.JSON(sizes)
			}

			symbols := make([]string, 0, len(sizes))
			for s := range sizes {
				symbols = append(symbols, s)
			}
			sort.Strings(symbols)

			table := NewTable(output, "Symbol", "Lot Size")
			for _, s := range symbols {
				table.AddRow(s, fmt.Sprintf("%d", sizes[s]))
			}
			table.Render()
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Reload lot sizes from the exchange CSV and persist them",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			path := app.Config.Data.LotSizeCSV
			table, err := lots.LoadCSV(path)
			if err != nil {
				output.Error("Failed to load %s: %v", path, err)
				return err
			}

			now := time.Now()
			app.LotTable.Refresh(table.Snapshot(), now)
			if app.Store != nil {
				if err := app.Store.SaveLotSizes(ctx, table.Snapshot(), now); err != nil {
					output.Warning("Loaded %d symbols but persisting failed: %v", table.Len(), err)
					return nil
				}
			}
			output.Success("✓ Loaded %d lot sizes", table.Len())
			return nil
		},
	})

	return cmd
}
