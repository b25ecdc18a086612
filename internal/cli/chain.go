package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"options-toolbox/internal/models"
)

func newChainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain <symbol>",
		Short: "Display an option chain snapshot",
		Long: `Display the option chain snapshot for a symbol.

Shows calls and puts with bid/ask, last price and implied volatility, with
the ATM strike highlighted.`,
		Example: `  toolbox chain RELIANCE
  toolbox chain NIFTY --strikes 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			window, _ := cmd.Flags().GetInt("strikes")

			chain, err := app.Source.GetOptionChain(ctx, symbol)
			if err != nil {
				output.Error("Failed to load option chain: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(chain)
			}
			return displayChain(output, chain, window)
		},
	}

	cmd.Flags().Int("strikes", 10, "Number of strikes to show on each side of ATM")

	return cmd
}

func displayChain(output *Output, chain *models.OptionChain, window int) error {
	output.Bold("Option Chain - %s", chain.Symbol)
	output.Printf("  Spot: %s  Expiry: %s  Lot Size: %d\n\n",
		formatPrice(chain.SpotPrice), formatDate(chain.Expiry), chain.LotSize)

	atm := chain.ATMIndex()
	if atm < 0 {
		output.Warning("Chain has no strikes")
		return nil
	}

	lo, hi := atm-window, atm+window
	if lo < 0 {
		lo = 0
	}
	if hi > len(chain.Strikes)-1 {
		hi = len(chain.Strikes) - 1
	}

	table := NewTable(output, "Call Bid", "Call Ask", "Call IV", "Strike", "Put Bid", "Put Ask", "Put IV")
	for i := lo; i <= hi; i++ {
		s := chain.Strikes[i]

		strikeStr := formatStrike(s.Strike)
		if i == atm {
			strikeStr = output.BoldText(strikeStr + " *")
		}

		callBid, callAsk, callIV := "-", "-", "-"
		if s.Call != nil {
			callBid = formatPrice(s.Call.Bid)
			callAsk = formatPrice(s.Call.Ask)
			callIV = fmt.Sprintf("%.1f%%", s.Call.IV)
		}
		putBid, putAsk, putIV := "-", "-", "-"
		if s.Put != nil {
			putBid = formatPrice(s.Put.Bid)
			putAsk = formatPrice(s.Put.Ask)
			putIV = fmt.Sprintf("%.1f%%", s.Put.IV)
		}

		table.AddRow(callBid, callAsk, callIV, strikeStr, putBid, putAsk, putIV)
	}
	table.Render()

	output.Println()
	output.Dim("* ATM strike (closest to spot, ties resolve to the lower strike)")
	return nil
}
