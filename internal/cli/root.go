// Package cli provides the command-line interface for the options toolbox.
package cli

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-toolbox/internal/broker"
	"options-toolbox/internal/config"
	"options-toolbox/internal/logging"
	"options-toolbox/internal/lots"
	"options-toolbox/internal/notify"
	"options-toolbox/internal/pricing"
	"options-toolbox/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-08-01"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Source   *broker.CSVSource
	Store    store.DataStore
	LotTable *lots.Table
	Pricer   *pricing.Pricer
	Notifier notify.Notifier
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	app.Source = broker.NewCSVSource(cfg.Data.SnapshotDir)

	dataStore, err := store.NewSQLiteStore(cfg.Data.DBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, some features may be unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Msg("SQLite store initialized")
	}

	app.LotTable = loadLotTable(app)
	app.Pricer = buildPricer(app)
	app.Notifier = notify.NewFromConfig(&cfg.Notifications)

	rootCmd := &cobra.Command{
		Use:   "toolbox",
		Short: "Options Toolbox - multi-leg strategy analytics and PnL reconciliation",
		Long: `Options Toolbox analyzes multi-leg option strategies on the Indian F&O market.

It builds every catalog strategy (straddles, strangles, guts, butterflies,
condors) against a market snapshot, prices the legs with Black-Scholes,
sweeps the payoff over the strike grid, and reconciles the trade book into
realized and unrealized PnL.

Use 'toolbox help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/options-toolbox)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newStrategiesCmd(app))
	rootCmd.AddCommand(newChainCmd(app))
	rootCmd.AddCommand(newPnLCmd(app))
	rootCmd.AddCommand(newWatchCmd(app))
	rootCmd.AddCommand(newLotsCmd(app))

	return rootCmd
}

// loadLotTable prefers the exchange CSV on disk and falls back to the last
// persisted snapshot.
func loadLotTable(app *App) *lots.Table {
	if path := app.Config.Data.LotSizeCSV; path != "" {
		if _, err := os.Stat(path); err == nil {
			table, err := lots.LoadCSV(path)
			if err == nil {
				app.Logger.Debug().Int("symbols", table.Len()).Msg("Lot sizes loaded from CSV")
				return table
			}
			app.Logger.Warn().Err(err).Msg("Failed to load lot size CSV")
		}
	}
	if app.Store != nil {
		sizes, at, err := app.Store.GetLotSizes(context.Background())
		if err == nil && len(sizes) > 0 {
			return lots.New(sizes, at)
		}
	}
	return lots.New(nil, time.Time{})
}

func buildPricer(app *App) *pricing.Pricer {
	params := pricing.Params{
		RiskFreeRate:  app.Config.Pricing.RiskFreeRate,
		DividendYield: app.Config.Pricing.DividendYield,
		DaysInYear:    365,
	}
	solver := pricing.IVSolver{
		SeedPct:   app.Config.Pricing.IVSeed,
		StepPct:   app.Config.Pricing.IVStep,
		MaxPct:    app.Config.Pricing.IVMax,
		Tolerance: app.Config.Pricing.IVTolerance,
		Params:    params,
	}

	var history pricing.IVHistory
	if app.Store != nil {
		history = app.Store
	}
	return pricing.NewPricer(params, solver, history, app.Logger)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Options Toolbox v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Pricing Configuration")
	output.Printf("  Risk-Free Rate:  %.2f%%\n", cfg.Pricing.RiskFreeRate)
	output.Printf("  Dividend Yield:  %.2f%%\n", cfg.Pricing.DividendYield)
	output.Printf("  IV Seed/Step:    %.1f%% / %.2f%%\n", cfg.Pricing.IVSeed, cfg.Pricing.IVStep)
	output.Printf("  IV Bound:        %.0f%%\n", cfg.Pricing.IVMax)
	output.Println()

	output.Bold("Scan Configuration")
	output.Printf("  Watchlist:       %d symbols\n", len(cfg.Scan.Watchlist))
	output.Printf("  Strike Diff:     %d\n", cfg.Scan.StrikeDiff)
	output.Printf("  Refresh:         %ds\n", cfg.Scan.RefreshSeconds)
	output.Printf("  Concurrency:     %d\n", cfg.Scan.Concurrency)
	output.Println()

	output.Bold("Alerts")
	output.Printf("  Profit Target:   %s\n", formatCurrency(cfg.Alerts.ProfitTarget))
	output.Printf("  Stop Loss:       %s\n", formatCurrency(cfg.Alerts.StopLoss))
	output.Printf("  Per-Stock Bands: %d\n", len(cfg.Alerts.PerStock))
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Enabled:         %v\n", cfg.Notifications.Enabled)
	output.Printf("  Webhook:         %v\n", cfg.Notifications.Webhook.Enabled)

	return nil
}
