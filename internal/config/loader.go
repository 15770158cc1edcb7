package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies QUANTBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load. An empty path skips the
// file and uses defaults plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known QUANTBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Trading.Symbol, "QUANTBOT_TRADING_SYMBOL")
	setStr(&cfg.Trading.StrategyName, "QUANTBOT_TRADING_STRATEGY_NAME")
	setBool(&cfg.Trading.AutoExecute, "QUANTBOT_TRADING_AUTO_EXECUTE")

	setStr(&cfg.Binance.RestHost, "QUANTBOT_BINANCE_REST_HOST")
	setStr(&cfg.Binance.WsHost, "QUANTBOT_BINANCE_WS_HOST")
	setStr(&cfg.Binance.ApiKey, "QUANTBOT_BINANCE_API_KEY")
	setStr(&cfg.Binance.ApiSecret, "QUANTBOT_BINANCE_API_SECRET")

	setInt(&cfg.Strategy.LookbackPeriod, "QUANTBOT_STRATEGY_LOOKBACK_PERIOD")
	setFloat64(&cfg.Strategy.ZScoreThreshold, "QUANTBOT_STRATEGY_Z_SCORE_THRESHOLD")
	setInt(&cfg.Strategy.ShortPeriod, "QUANTBOT_STRATEGY_SHORT_PERIOD")
	setInt(&cfg.Strategy.LongPeriod, "QUANTBOT_STRATEGY_LONG_PERIOD")
	setFloat64(&cfg.Strategy.MomentumThreshold, "QUANTBOT_STRATEGY_MOMENTUM_THRESHOLD")
	setInt(&cfg.Strategy.RSIPeriod, "QUANTBOT_STRATEGY_RSI_PERIOD")
	setFloat64(&cfg.Strategy.RSIOversold, "QUANTBOT_STRATEGY_RSI_OVERSOLD")
	setFloat64(&cfg.Strategy.RSIOverbought, "QUANTBOT_STRATEGY_RSI_OVERBOUGHT")
	setFloat64(&cfg.Strategy.OrderQuantity, "QUANTBOT_STRATEGY_ORDER_QUANTITY")

	setFloat64(&cfg.Risk.MaxPositionSize, "QUANTBOT_RISK_MAX_POSITION_SIZE")
	setFloat64(&cfg.Risk.MaxDailyLoss, "QUANTBOT_RISK_MAX_DAILY_LOSS")
	setFloat64(&cfg.Risk.MaxOrderSize, "QUANTBOT_RISK_MAX_ORDER_SIZE")
	setInt(&cfg.Risk.MaxOrdersPerMinute, "QUANTBOT_RISK_MAX_ORDERS_PER_MINUTE")

	setBool(&cfg.Redis.Enabled, "QUANTBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "QUANTBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "QUANTBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "QUANTBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "QUANTBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "QUANTBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "QUANTBOT_REDIS_TLS_ENABLED")

	setBool(&cfg.Postgres.Enabled, "QUANTBOT_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "QUANTBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "QUANTBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "QUANTBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "QUANTBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "QUANTBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "QUANTBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "QUANTBOT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "QUANTBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "QUANTBOT_POSTGRES_POOL_MIN_CONNS")

	setStr(&cfg.LogLevel, "QUANTBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
