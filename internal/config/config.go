// Package config defines the top-level configuration for the trading bot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"

	"github.com/quantfall/quantbot/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by QUANTBOT_* environment
// variables.
type Config struct {
	Trading  TradingConfig         `toml:"trading"`
	Binance  BinanceConfig         `toml:"binance"`
	Strategy domain.StrategyParams `toml:"strategy"`
	Risk     domain.RiskLimits     `toml:"risk"`
	Redis    RedisConfig           `toml:"redis"`
	Postgres PostgresConfig        `toml:"postgres"`
	LogLevel string                `toml:"log_level"`
}

// TradingConfig selects what to trade and how.
type TradingConfig struct {
	Symbol       string `toml:"symbol"`
	StrategyName string `toml:"strategy_name"`
	AutoExecute  bool   `toml:"auto_execute"`
}

// BinanceConfig holds exchange endpoints and credentials.
type BinanceConfig struct {
	RestHost  string `toml:"rest_host"`
	WsHost    string `toml:"ws_host"`
	ApiKey    string `toml:"api_key"`
	ApiSecret string `toml:"api_secret"`
}

// RedisConfig holds Redis connection parameters. An empty addr disables the
// snapshot mirror.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters for the signal audit
// trail. An empty DSN with an empty host disables persistence.
type PostgresConfig struct {
	Enabled      bool   `toml:"enabled"`
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Database     string `toml:"database"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"ssl_mode"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Trading: TradingConfig{
			Symbol:       "BTCUSDT",
			StrategyName: "mean_reversion",
			AutoExecute:  false,
		},
		Binance: BinanceConfig{
			RestHost: "https://api.binance.com",
			WsHost:   "wss://stream.binance.com:9443",
		},
		Strategy: domain.DefaultStrategyParams(),
		Risk:     domain.DefaultRiskLimits(),
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		Postgres: PostgresConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         5432,
			Database:     "quantbot",
			User:         "postgres",
			SSLMode:      "disable",
			PoolMaxConns: 10,
			PoolMinConns: 2,
		},
		LogLevel: "info",
	}
}

// validStrategies enumerates the accepted values for trading.strategy_name.
var validStrategies = map[string]bool{
	"mean_reversion": true,
	"momentum":       true,
	"rsi":            true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if _, ok := domain.ParseSymbol(c.Trading.Symbol); !ok {
		errs = append(errs, fmt.Sprintf("trading: unknown symbol %q", c.Trading.Symbol))
	}
	if !validStrategies[strings.ToLower(c.Trading.StrategyName)] {
		errs = append(errs, fmt.Sprintf("trading: unknown strategy_name %q (valid: mean_reversion, momentum, rsi)", c.Trading.StrategyName))
	}
	if c.Trading.AutoExecute && (c.Binance.ApiKey == "" || c.Binance.ApiSecret == "") {
		errs = append(errs, "binance: api_key and api_secret are required when trading.auto_execute is enabled")
	}

	if c.Binance.RestHost == "" {
		errs = append(errs, "binance: rest_host must not be empty")
	}
	if c.Binance.WsHost == "" {
		errs = append(errs, "binance: ws_host must not be empty")
	}

	if c.Strategy.LookbackPeriod < 2 {
		errs = append(errs, fmt.Sprintf("strategy: lookback_period must be >= 2, got %d", c.Strategy.LookbackPeriod))
	}
	if c.Strategy.ShortPeriod < 1 || c.Strategy.LongPeriod <= c.Strategy.ShortPeriod {
		errs = append(errs, fmt.Sprintf("strategy: need 1 <= short_period < long_period, got %d/%d", c.Strategy.ShortPeriod, c.Strategy.LongPeriod))
	}
	if c.Strategy.RSIPeriod < 1 {
		errs = append(errs, fmt.Sprintf("strategy: rsi_period must be >= 1, got %d", c.Strategy.RSIPeriod))
	}
	if c.Strategy.RSIOversold >= c.Strategy.RSIOverbought {
		errs = append(errs, fmt.Sprintf("strategy: rsi_oversold must be below rsi_overbought, got %.1f/%.1f", c.Strategy.RSIOversold, c.Strategy.RSIOverbought))
	}
	if c.Strategy.OrderQuantity <= 0 {
		errs = append(errs, "strategy: order_quantity must be positive")
	}

	if c.Risk.MaxOrderSize <= 0 {
		errs = append(errs, "risk: max_order_size must be positive")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty when enabled")
	}
	if c.Postgres.Enabled && strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Symbol resolves the configured trading pair.
func (c *Config) Symbol() domain.Symbol {
	sym, _ := domain.ParseSymbol(c.Trading.Symbol)
	return sym
}
