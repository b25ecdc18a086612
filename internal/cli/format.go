package cli

import (
	"fmt"
	"time"

	"options-toolbox/internal/models"
	"options-toolbox/pkg/utils"
)

// formatCurrency formats a value in Indian currency notation.
func formatCurrency(v float64) string {
	return utils.FormatIndianCurrency(v)
}

// formatPrice formats a raw price without the currency symbol.
func formatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// formatStrike formats a strike price. Strikes on the Indian F&O segment are
// whole numbers, so drop the decimals when they carry nothing.
func formatStrike(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

// formatDate formats a date in exchange notation (25-Jan-2024).
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(models.DateLayout)
}

// formatLegQuotes renders a leg-quote slice as "strike@price" pairs.
func formatLegQuotes(legs []models.LegQuote) string {
	if len(legs) == 0 {
		return "-"
	}
	out := ""
	for i, leg := range legs {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s@%s", formatStrike(leg.Strike), formatPrice(leg.Price))
	}
	return out
}
