package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfall/quantbot/internal/domain"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, domain.SymbolBTCUSDT, cfg.Symbol())
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Trading.Symbol = "DOGEUSDT"
	cfg.Trading.StrategyName = "martingale"
	cfg.Strategy.LookbackPeriod = 1
	cfg.Risk.MaxOrderSize = 0
	cfg.LogLevel = "verbose"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown symbol")
	assert.Contains(t, err.Error(), "unknown strategy_name")
	assert.Contains(t, err.Error(), "lookback_period")
	assert.Contains(t, err.Error(), "max_order_size")
	assert.Contains(t, err.Error(), "log_level")
}

func TestValidateAutoExecuteRequiresCredentials(t *testing.T) {
	cfg := Defaults()
	cfg.Trading.AutoExecute = true

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")

	cfg.Binance.ApiKey = "k"
	cfg.Binance.ApiSecret = "s"
	assert.NoError(t, cfg.Validate())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[trading]
symbol = "ETHUSDT"
strategy_name = "rsi"

[strategy]
rsi_period = 7
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "ETHUSDT", cfg.Trading.Symbol)
	assert.Equal(t, "rsi", cfg.Trading.StrategyName)
	assert.Equal(t, 7, cfg.Strategy.RSIPeriod)

	// Untouched sections keep their defaults.
	assert.Equal(t, 20, cfg.Strategy.LookbackPeriod)
	assert.Equal(t, "https://api.binance.com", cfg.Binance.RestHost)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("QUANTBOT_TRADING_SYMBOL", "BTCETH")
	t.Setenv("QUANTBOT_RISK_MAX_ORDER_SIZE", "2.5")
	t.Setenv("QUANTBOT_REDIS_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "BTCETH", cfg.Trading.Symbol)
	assert.Equal(t, 2.5, cfg.Risk.MaxOrderSize)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
