// Package config provides configuration management for the options toolbox.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Pricing       PricingConfig      `mapstructure:"pricing"`
	Scan          ScanConfig         `mapstructure:"scan"`
	Alerts        AlertConfig        `mapstructure:"alerts"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Data          DataConfig         `mapstructure:"data"`
}

// PricingConfig holds model parameters for the pricer and IV solver.
type PricingConfig struct {
	RiskFreeRate  float64 `mapstructure:"risk_free_rate"` // percent
	DividendYield float64 `mapstructure:"dividend_yield"` // percent
	IVSeed        float64 `mapstructure:"iv_seed"`        // percent, solver start
	IVStep        float64 `mapstructure:"iv_step"`        // percent per step
	IVMax         float64 `mapstructure:"iv_max"`         // percent, search bound
	IVTolerance   float64 `mapstructure:"iv_tolerance"`   // absolute price units
}

// ScanConfig holds the strategy-building batch parameters.
type ScanConfig struct {
	Watchlist      []string `mapstructure:"watchlist"`
	StrikeDiff     int      `mapstructure:"strike_diff"`
	RefreshSeconds int      `mapstructure:"refresh_seconds"`
	Concurrency    int      `mapstructure:"concurrency"`
}

// AlertConfig holds the PnL alert thresholds, keyed by stock with a global
// default.
type AlertConfig struct {
	ProfitTarget float64            `mapstructure:"profit_target"`
	StopLoss     float64            `mapstructure:"stop_loss"`
	PerStock     map[string]PnLBand `mapstructure:"per_stock"`
}

// PnLBand is a per-stock profit/loss band.
type PnLBand struct {
	ProfitTarget float64 `mapstructure:"profit_target"`
	StopLoss     float64 `mapstructure:"stop_loss"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// WebhookConfig holds webhook notification configuration. The payload is
// Slack-incoming-webhook compatible.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// DataConfig holds local data paths.
type DataConfig struct {
	DBPath      string `mapstructure:"db_path"`
	LotSizeCSV  string `mapstructure:"lot_size_csv"`
	SnapshotDir string `mapstructure:"snapshot_dir"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-toolbox"
	}
	return filepath.Join(home, ".config", "options-toolbox")
}

// Load loads configuration from the specified directory. If configDir is
// empty, uses the default config directory. A missing config file is not an
// error; a template is written and defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := createTemplateConfig(configDir); err != nil {
				return nil, fmt.Errorf("writing config template: %w", err)
			}
		} else {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	// Empty paths in a user-edited file fall back to the config directory.
	if cfg.Data.DBPath == "" {
		cfg.Data.DBPath = filepath.Join(configDir, "toolbox.db")
	}
	if cfg.Data.LotSizeCSV == "" {
		cfg.Data.LotSizeCSV = filepath.Join(configDir, "lot_sizes.csv")
	}
	if cfg.Data.SnapshotDir == "" {
		cfg.Data.SnapshotDir = filepath.Join(configDir, "snapshots")
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("pricing.risk_free_rate", 10.0)
	v.SetDefault("pricing.dividend_yield", 0.0)
	v.SetDefault("pricing.iv_seed", 10.0)
	v.SetDefault("pricing.iv_step", 0.1)
	v.SetDefault("pricing.iv_max", 100.0)
	v.SetDefault("pricing.iv_tolerance", 0.001)

	v.SetDefault("scan.strike_diff", 1)
	v.SetDefault("scan.refresh_seconds", 300)
	v.SetDefault("scan.concurrency", 1)

	v.SetDefault("alerts.profit_target", 5000.0)
	v.SetDefault("alerts.stop_loss", -5000.0)

	v.SetDefault("data.db_path", filepath.Join(configDir, "toolbox.db"))
	v.SetDefault("data.lot_size_csv", filepath.Join(configDir, "lot_sizes.csv"))
	v.SetDefault("data.snapshot_dir", filepath.Join(configDir, "snapshots"))
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPTIONS_TOOLBOX_WEBHOOK_URL"); v != "" {
		cfg.Notifications.Webhook.URL = v
		cfg.Notifications.Webhook.Enabled = true
		cfg.Notifications.Enabled = true
	}
	if v := os.Getenv("OPTIONS_TOOLBOX_DB"); v != "" {
		cfg.Data.DBPath = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Pricing.RiskFreeRate < 0 || c.Pricing.RiskFreeRate > 100 {
		return fmt.Errorf("risk_free_rate must be between 0 and 100")
	}
	if c.Pricing.IVStep <= 0 {
		return fmt.Errorf("iv_step must be positive")
	}
	if c.Pricing.IVMax <= c.Pricing.IVSeed {
		return fmt.Errorf("iv_max must exceed iv_seed")
	}
	if c.Pricing.IVTolerance <= 0 {
		return fmt.Errorf("iv_tolerance must be positive")
	}
	if c.Scan.StrikeDiff < 1 {
		return fmt.Errorf("strike_diff must be at least 1")
	}
	if c.Scan.Concurrency < 0 {
		return fmt.Errorf("concurrency must be non-negative")
	}
	if c.Alerts.StopLoss > 0 {
		return fmt.Errorf("stop_loss must be zero or negative")
	}
	return nil
}
