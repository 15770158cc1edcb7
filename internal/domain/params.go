package domain

// StrategyParams carries the numeric knobs for every strategy kind in one
// struct; each strategy reads only the fields relevant to it.
type StrategyParams struct {
	LookbackPeriod    int     `toml:"lookback_period"`
	ZScoreThreshold   float64 `toml:"z_score_threshold"`
	ShortPeriod       int     `toml:"short_period"`
	LongPeriod        int     `toml:"long_period"`
	MomentumThreshold float64 `toml:"momentum_threshold"`
	RSIPeriod         int     `toml:"rsi_period"`
	RSIOversold       float64 `toml:"rsi_oversold"`
	RSIOverbought     float64 `toml:"rsi_overbought"`
	OrderQuantity     float64 `toml:"order_quantity"`
}

// DefaultStrategyParams returns the stock parameter set.
func DefaultStrategyParams() StrategyParams {
	return StrategyParams{
		LookbackPeriod:    20,
		ZScoreThreshold:   2.0,
		ShortPeriod:       12,
		LongPeriod:        26,
		MomentumThreshold: 0.01,
		RSIPeriod:         14,
		RSIOversold:       30.0,
		RSIOverbought:     70.0,
		OrderQuantity:     0.001,
	}
}

// RiskLimits holds the pre-trade risk configuration. Only MaxOrderSize is
// enforced by the gateway; the remaining limits are carried and logged but
// not consulted pending a product decision on their semantics.
type RiskLimits struct {
	MaxPositionSize    float64 `toml:"max_position_size"`
	MaxDailyLoss       float64 `toml:"max_daily_loss"`
	MaxOrderSize       float64 `toml:"max_order_size"`
	MaxOrdersPerMinute int     `toml:"max_orders_per_minute"`
}

// DefaultRiskLimits returns the stock risk configuration.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxPositionSize:    10000.0,
		MaxDailyLoss:       1000.0,
		MaxOrderSize:       1000.0,
		MaxOrdersPerMinute: 60,
	}
}
