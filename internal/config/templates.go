package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Options Toolbox Configuration

[pricing]
# Continuously compounded risk-free rate, percent
risk_free_rate = 10.0
# Continuous dividend yield, percent
dividend_yield = 0.0
# Implied-volatility solver: search seed, step and bound (percent)
iv_seed = 10.0
iv_step = 0.1
iv_max = 100.0
# Absolute price tolerance for the solver
iv_tolerance = 0.001

[scan]
# Symbols to build strategies for
watchlist = ["RELIANCE", "DLF", "HAVELLS"]
# Strike steps away from ATM used by the strategy templates
strike_diff = 1
# Seconds between scan rounds when watching
refresh_seconds = 300
# Symbols priced in parallel; 1 disables fan-out
concurrency = 1

[alerts]
# Global profit/loss bands in INR; override per stock below
profit_target = 5000.0
stop_loss = -5000.0

# [alerts.per_stock.RELIANCE]
# profit_target = 10000.0
# stop_loss = -4000.0

[notifications]
enabled = false

[notifications.webhook]
enabled = false
# Slack-compatible incoming webhook
url = ""

[data]
# Paths default to the config directory when empty
db_path = ""
lot_size_csv = ""
snapshot_dir = ""
`

// createTemplateConfig writes a starter config.toml so the user has
// something to edit.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(configTemplate), 0644)
}
