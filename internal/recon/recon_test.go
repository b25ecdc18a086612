package recon

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"options-toolbox/internal/errors"
	"options-toolbox/internal/models"
)

var testExpiry = time.Date(2026, 9, 24, 0, 0, 0, 0, time.UTC)

func fill(stock string, qty int, amount float64, seq int) models.TradeFill {
	return models.TradeFill{
		Stock:     stock,
		Expiry:    testExpiry,
		Right:     models.OptionTypeCall,
		Strike:    100,
		Quantity:  qty,
		Amount:    amount,
		TradeTime: time.Date(2026, 9, 1, 9, 15, seq, 0, time.UTC),
	}
}

func newTestEngine() *Engine {
	return NewEngine(zerolog.Nop())
}

func TestReconcileOpensPosition(t *testing.T) {
	out, err := newTestEngine().Reconcile([]models.TradeFill{
		fill("RELIANCE", 200, -1000, 0),
	})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if len(out.Realized) != 0 {
		t.Errorf("expected nothing realized, got %v", out.Realized)
	}
	if len(out.Open) != 1 {
		t.Fatalf("expected 1 open position, got %d", len(out.Open))
	}
	for _, pos := range out.Open {
		if pos.Quantity != 200 || pos.Amount != -1000 {
			t.Errorf("open position = (%d, %.2f), want (200, -1000)", pos.Quantity, pos.Amount)
		}
	}
}

func TestReconcileFullSquareOff(t *testing.T) {
	out, err := newTestEngine().Reconcile([]models.TradeFill{
		fill("RELIANCE", 200, -1000, 0),
		fill("RELIANCE", -200, 1300, 1),
	})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if len(out.Open) != 0 {
		t.Errorf("expected no open positions, got %v", out.Open)
	}
	rows := out.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 realized row, got %d", len(rows))
	}
	if rows[0].Realized != 300 {
		t.Errorf("realized = %.2f, want 300", rows[0].Realized)
	}
}

func TestReconcilePartialSquareOff(t *testing.T) {
	// Buy 200 for 1000, sell 120 for 700. The overlap of 120 units books
	// (700/120 - 1000/200) * 120 = 100; the surviving 80 units keep the
	// original 5.00 average, so the open amount is -400.
	out, err := newTestEngine().Reconcile([]models.TradeFill{
		fill("RELIANCE", 200, -1000, 0),
		fill("RELIANCE", -120, 700, 1),
	})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	rows := out.Rows()
	if len(rows) != 1 || rows[0].Realized != 100 {
		t.Fatalf("realized rows = %v, want one row of 100", rows)
	}

	if len(out.Open) != 1 {
		t.Fatalf("expected 1 open position, got %d", len(out.Open))
	}
	for _, pos := range out.Open {
		if pos.Quantity != 80 {
			t.Errorf("leftover quantity = %d, want 80", pos.Quantity)
		}
		if math.Abs(pos.Amount-(-400)) > 1e-9 {
			t.Errorf("leftover amount = %.4f, want -400", pos.Amount)
		}
	}
}

func TestReconcileDirectionFlip(t *testing.T) {
	// Buy 100 for 500, sell 150 for 900. The first 100 close at the fill's
	// 6.00 unit price, booking (6.00 - 5.00) * 100 = 100. The leftover 50
	// short units open at 6.00, so the open amount is +300.
	out, err := newTestEngine().Reconcile([]models.TradeFill{
		fill("RELIANCE", 100, -500, 0),
		fill("RELIANCE", -150, 900, 1),
	})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	rows := out.Rows()
	if len(rows) != 1 || rows[0].Realized != 100 {
		t.Fatalf("realized rows = %v, want one row of 100", rows)
	}

	for _, pos := range out.Open {
		if pos.Quantity != -50 {
			t.Errorf("leftover quantity = %d, want -50", pos.Quantity)
		}
		if math.Abs(pos.Amount-300) > 1e-9 {
			t.Errorf("leftover amount = %.4f, want 300", pos.Amount)
		}
	}
}

func TestReconcileCompounding(t *testing.T) {
	out, err := newTestEngine().Reconcile([]models.TradeFill{
		fill("RELIANCE", 100, -500, 0),
		fill("RELIANCE", 50, -300, 1),
	})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if len(out.Realized) != 0 {
		t.Errorf("compounding must not realize anything, got %v", out.Realized)
	}
	for _, pos := range out.Open {
		if pos.Quantity != 150 || pos.Amount != -800 {
			t.Errorf("compounded position = (%d, %.2f), want (150, -800)", pos.Quantity, pos.Amount)
		}
	}
}

func TestReconcileKeysSeparateContracts(t *testing.T) {
	putFill := fill("RELIANCE", -200, 1000, 1)
	putFill.Right = models.OptionTypePut

	out, err := newTestEngine().Reconcile([]models.TradeFill{
		fill("RELIANCE", 200, -1000, 0),
		putFill,
	})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	// Same stock, expiry and strike but a different right must not net.
	if len(out.Open) != 2 {
		t.Errorf("expected 2 open positions, got %d", len(out.Open))
	}
	if len(out.Realized) != 0 {
		t.Errorf("expected nothing realized, got %v", out.Realized)
	}
}

func TestReconcileRejectsBadFills(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.TradeFill)
	}{
		{"empty stock", func(f *models.TradeFill) { f.Stock = "" }},
		{"zero quantity", func(f *models.TradeFill) { f.Quantity = 0 }},
		{"nan amount", func(f *models.TradeFill) { f.Amount = math.NaN() }},
		{"inf amount", func(f *models.TradeFill) { f.Amount = math.Inf(1) }},
		{"zero time", func(f *models.TradeFill) { f.TradeTime = time.Time{} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := fill("RELIANCE", 100, -500, 0)
			tc.mutate(&f)

			_, err := newTestEngine().Reconcile([]models.TradeFill{f})
			if err == nil {
				t.Fatal("expected an error")
			}
			var fe *errors.FillError
			if !errors.As(err, &fe) {
				t.Errorf("expected FillError, got %T: %v", err, err)
			}
		})
	}
}

func TestRowsSortedAndRounded(t *testing.T) {
	out := &Outcome{Realized: Ledger{
		{Stock: "TCS", Expiry: "24-Sep-2026"}:  100.4,
		{Stock: "INFY", Expiry: "24-Sep-2026"}: -55.5,
		{Stock: "INFY", Expiry: "29-Oct-2026"}: 20.0,
	}}

	rows := out.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Stock != "INFY" || rows[2].Stock != "TCS" {
		t.Errorf("rows not sorted by stock: %v", rows)
	}
	if rows[0].Realized != -56 {
		t.Errorf("realized = %.2f, want -56 (rounded half away from zero)", rows[0].Realized)
	}
	if rows[2].Realized != 100 {
		t.Errorf("realized = %.2f, want 100", rows[2].Realized)
	}
}

func TestUnrealized(t *testing.T) {
	long := models.OpenPosition{Quantity: 100, Amount: -500}
	if got := Unrealized(long, 7); got != 200 {
		t.Errorf("long unrealized = %.2f, want 200", got)
	}

	short := models.OpenPosition{Quantity: -100, Amount: 900}
	if got := Unrealized(short, 6); got != 300 {
		t.Errorf("short unrealized = %.2f, want 300", got)
	}
}

// For any sequence of round trips, everything closes and the realized total
// equals the net cash flow of the tape.
func TestPropertyFullClosureConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	type roundTrip struct {
		Qty       int
		OpenUnit  float64
		CloseUnit float64
		Short     bool
	}

	genTrip := gopter.CombineGens(
		gen.IntRange(1, 500),
		gen.Float64Range(0.05, 500),
		gen.Float64Range(0.05, 500),
		gen.Bool(),
	).Map(func(vals []interface{}) roundTrip {
		return roundTrip{
			Qty:       vals[0].(int),
			OpenUnit:  vals[1].(float64),
			CloseUnit: vals[2].(float64),
			Short:     vals[3].(bool),
		}
	})

	properties.Property("full closure conserves cash", prop.ForAll(
		func(trips []roundTrip) bool {
			var tape []models.TradeFill
			seq := 0
			for _, trip := range trips {
				qty := trip.Qty
				if trip.Short {
					qty = -qty
				}
				// Opening cash flow has the opposite sign of quantity.
				tape = append(tape,
					fill("RELIANCE", qty, -float64(qty)*trip.OpenUnit, seq),
					fill("RELIANCE", -qty, float64(qty)*trip.CloseUnit, seq+1),
				)
				seq += 2
			}

			out, err := newTestEngine().Reconcile(tape)
			if err != nil {
				return false
			}
			if len(out.Open) != 0 {
				return false
			}

			var netCash, realized float64
			for _, f := range tape {
				netCash += f.Amount
			}
			for _, pnl := range out.Realized {
				realized += pnl
			}
			return math.Abs(netCash-realized) < 1e-6
		},
		gen.SliceOf(genTrip),
	))

	properties.TestingRun(t)
}

func BenchmarkReconcile(b *testing.B) {
	tape := make([]models.TradeFill, 0, 2000)
	for i := 0; i < 1000; i++ {
		tape = append(tape,
			fill("RELIANCE", 100, -500, i*2),
			fill("RELIANCE", -100, 600, i*2+1),
		)
	}
	engine := newTestEngine()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Reconcile(tape); err != nil {
			b.Fatal(err)
		}
	}
}
