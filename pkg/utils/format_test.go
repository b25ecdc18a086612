package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFormatIndianCurrency(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{0, "₹0.00"},
		{999, "₹999.00"},
		{1000, "₹1,000.00"},
		{100000, "₹1,00,000.00"},
		{10000000, "₹1,00,00,000.00"},
		{1234567.89, "₹12,34,567.89"},
		{-54321.5, "-₹54,321.50"},
	}

	for _, tc := range cases {
		if got := FormatIndianCurrency(tc.amount); got != tc.want {
			t.Errorf("FormatIndianCurrency(%v) = %s, want %s", tc.amount, got, tc.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(2.5); got != "+2.50%" {
		t.Errorf("FormatPercent(2.5) = %s", got)
	}
	if got := FormatPercent(-1.25); got != "-1.25%" {
		t.Errorf("FormatPercent(-1.25) = %s", got)
	}
	if got := FormatPercent(0); got != "0.00%" {
		t.Errorf("FormatPercent(0) = %s", got)
	}
}

func TestRoundTo10(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{4.9, 0},
		{5, 10},
		{14.9, 10},
		{-4.9, 0},
		{-5, -10},
		{123, 120},
		{128, 130},
	}
	for _, tc := range cases {
		if got := RoundTo10(tc.in); got != tc.want {
			t.Errorf("RoundTo10(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

// Indian numbering groups the last three digits, then pairs. The formatted
// string must follow that shape and parse back to the original value.
func TestPropertyIndianCurrencyFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	indianPattern := regexp.MustCompile(`^(\d{1,2},)*\d{1,3}$`)

	properties.Property("format is valid and round-trips", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatIndianCurrency(amount)

			if amount < 0 && !strings.HasPrefix(formatted, "-₹") {
				return false
			}
			if amount >= 0 && !strings.HasPrefix(formatted, "₹") {
				return false
			}

			parts := strings.Split(formatted, ".")
			if len(parts) != 2 || len(parts[1]) != 2 {
				return false
			}

			numPart := strings.TrimPrefix(parts[0], "-")
			numPart = strings.TrimPrefix(numPart, "₹")
			if !indianPattern.MatchString(numPart) {
				return false
			}

			parsed, err := strconv.ParseFloat(strings.ReplaceAll(numPart, ",", "")+"."+parts[1], 64)
			if err != nil {
				return false
			}
			return math.Abs(parsed-math.Abs(amount)) < 0.005+math.Abs(amount)*1e-12
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.TestingRun(t)
}
