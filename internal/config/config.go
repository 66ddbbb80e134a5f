// Package config defines the top-level configuration for the updown bot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by UPDOWNBOT_* environment variables.
type Config struct {
	Feed       FeedConfig       `toml:"feed"`
	Exchange   ExchangeConfig   `toml:"exchange"`
	Indicators IndicatorConfig  `toml:"indicators"`
	Prediction PredictionConfig `toml:"prediction"`
	Risk       RiskConfig       `toml:"risk"`
	Execution  ExecutionConfig  `toml:"execution"`
	Trading    TradingConfig    `toml:"trading"`
	LogLevel   string           `toml:"log_level"`
}

// FeedConfig holds the underlying-asset price stream parameters.
type FeedConfig struct {
	WsHost     string   `toml:"ws_host"`
	ApiHost    string   `toml:"api_host"`
	Symbol     string   `toml:"symbol"`
	Interval   string   `toml:"interval"`
	BufferSize int      `toml:"buffer_size"`
	MaxAge     duration `toml:"max_age"`
	DepthLimit int      `toml:"depth_limit"`
}

// ExchangeConfig holds the prediction-exchange API endpoint and credentials.
// The API secret may be given raw (api_secret) or as an encrypted file plus
// password (encrypted_secret_path, secret_password).
type ExchangeConfig struct {
	BaseURL             string  `toml:"base_url"`
	ApiKey              string  `toml:"api_key"`
	ApiSecret           string  `toml:"api_secret"`
	ApiPassphrase       string  `toml:"api_passphrase"`
	EncryptedSecretPath string  `toml:"encrypted_secret_path"`
	SecretPassword      string  `toml:"secret_password"`
	RateLimitPerSec     float64 `toml:"rate_limit_per_sec"`
	RateBurst           int     `toml:"rate_burst"`
}

// IndicatorConfig holds the technical indicator periods.
type IndicatorConfig struct {
	RSIPeriod  int `toml:"rsi_period"`
	MACDFast   int `toml:"macd_fast"`
	MACDSlow   int `toml:"macd_slow"`
	MACDSignal int `toml:"macd_signal"`
}

// PredictionConfig holds the decision-rule thresholds.
type PredictionConfig struct {
	RSIOversold       float64 `toml:"rsi_oversold"`
	RSIOverbought     float64 `toml:"rsi_overbought"`
	BullishImbalance  float64 `toml:"bullish_imbalance"`
	BearishImbalance  float64 `toml:"bearish_imbalance"`
	Confidence        float64 `toml:"confidence"`
	FailOnMissingBook bool    `toml:"fail_on_missing_book"`
}

// RiskConfig holds the circuit-breaker limits.
type RiskConfig struct {
	MaxDrawdownPct   float64 `toml:"max_drawdown_pct"`
	MaxVolatilityPct float64 `toml:"max_volatility_pct"`
	VolatilityWindow int     `toml:"volatility_window"`
	RiskPerTrade     float64 `toml:"risk_per_trade"`
	MaxPositionSize  float64 `toml:"max_position_size"`
	MaxTotalExposure float64 `toml:"max_total_exposure"`
	WarningRatio     float64 `toml:"warning_ratio"`
}

// ExecutionConfig holds retry and settlement-polling parameters.
type ExecutionConfig struct {
	MaxAttempts       int      `toml:"max_attempts"`
	BaseDelay         duration `toml:"base_delay"`
	MaxDelay          duration `toml:"max_delay"`
	BackoffBase       float64  `toml:"backoff_base"`
	SettlementTimeout duration `toml:"settlement_timeout"`
	PollInterval      duration `toml:"poll_interval"`
}

// TradingConfig holds the session parameters.
type TradingConfig struct {
	MarketID        string   `toml:"market_id"`
	OrderType       string   `toml:"order_type"`
	StartingCapital float64  `toml:"starting_capital"`
	CycleInterval   duration `toml:"cycle_interval"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Feed: FeedConfig{
			WsHost:     "wss://stream.binance.com:9443/ws",
			ApiHost:    "https://api.binance.com",
			Symbol:     "BTCUSDT",
			Interval:   "1m",
			BufferSize: 500,
			MaxAge:     duration{60 * time.Second},
			DepthLimit: 20,
		},
		Exchange: ExchangeConfig{
			RateLimitPerSec: 5,
			RateBurst:       10,
		},
		Indicators: IndicatorConfig{
			RSIPeriod:  14,
			MACDFast:   12,
			MACDSlow:   26,
			MACDSignal: 9,
		},
		Prediction: PredictionConfig{
			RSIOversold:      30,
			RSIOverbought:    70,
			BullishImbalance: 1.2,
			BearishImbalance: 0.8,
			Confidence:       0.65,
		},
		Risk: RiskConfig{
			MaxDrawdownPct:   30.0,
			MaxVolatilityPct: 3.0,
			VolatilityWindow: 5,
			RiskPerTrade:     10.0,
			MaxPositionSize:  50.0,
			MaxTotalExposure: 100.0,
			WarningRatio:     0.8,
		},
		Execution: ExecutionConfig{
			MaxAttempts:       3,
			BaseDelay:         duration{500 * time.Millisecond},
			MaxDelay:          duration{10 * time.Second},
			BackoffBase:       2.0,
			SettlementTimeout: duration{5 * time.Minute},
			PollInterval:      duration{5 * time.Second},
		},
		Trading: TradingConfig{
			OrderType:       "MARKET",
			StartingCapital: 1000.0,
			CycleInterval:   duration{60 * time.Second},
		},
		LogLevel: "info",
	}
}

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

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Feed
	if c.Feed.WsHost == "" {
		errs = append(errs, "feed: ws_host must not be empty")
	}
	if c.Feed.Symbol == "" {
		errs = append(errs, "feed: symbol must not be empty")
	}
	if c.Feed.BufferSize < 2 {
		errs = append(errs, "feed: buffer_size must be >= 2")
	}
	if c.Feed.MaxAge.Duration <= 0 {
		errs = append(errs, "feed: max_age must be positive")
	}

	// Exchange: credentials must resolve to a usable secret.
	if c.Exchange.BaseURL == "" {
		errs = append(errs, "exchange: base_url must not be empty")
	}
	if c.Exchange.ApiKey == "" {
		errs = append(errs, "exchange: api_key must not be empty")
	}
	if c.Exchange.ApiSecret == "" && c.Exchange.EncryptedSecretPath == "" {
		errs = append(errs, "exchange: either api_secret or encrypted_secret_path must be set")
	}
	if c.Exchange.EncryptedSecretPath != "" && c.Exchange.SecretPassword == "" {
		errs = append(errs, "exchange: secret_password is required when encrypted_secret_path is set")
	}
	if c.Exchange.RateLimitPerSec <= 0 {
		errs = append(errs, "exchange: rate_limit_per_sec must be > 0")
	}

	// Indicators
	if c.Indicators.RSIPeriod < 2 {
		errs = append(errs, "indicators: rsi_period must be >= 2")
	}
	if c.Indicators.MACDFast <= 0 || c.Indicators.MACDSlow <= 0 || c.Indicators.MACDSignal <= 0 {
		errs = append(errs, "indicators: macd periods must be positive")
	}
	if c.Indicators.MACDFast >= c.Indicators.MACDSlow {
		errs = append(errs, fmt.Sprintf("indicators: macd_fast (%d) must be less than macd_slow (%d)", c.Indicators.MACDFast, c.Indicators.MACDSlow))
	}

	// Prediction
	if c.Prediction.RSIOversold >= c.Prediction.RSIOverbought {
		errs = append(errs, "prediction: rsi_oversold must be less than rsi_overbought")
	}
	if c.Prediction.Confidence < 0 || c.Prediction.Confidence > 1 {
		errs = append(errs, "prediction: confidence must be in [0, 1]")
	}

	// Risk
	if c.Risk.MaxDrawdownPct <= 0 {
		errs = append(errs, "risk: max_drawdown_pct must be > 0")
	}
	if c.Risk.MaxVolatilityPct <= 0 {
		errs = append(errs, "risk: max_volatility_pct must be > 0")
	}
	if c.Risk.VolatilityWindow < 2 {
		errs = append(errs, "risk: volatility_window must be >= 2")
	}
	if c.Risk.MaxTotalExposure <= 0 {
		errs = append(errs, "risk: max_total_exposure must be > 0")
	}
	if c.Risk.WarningRatio <= 0 || c.Risk.WarningRatio >= 1 {
		errs = append(errs, "risk: warning_ratio must be in (0, 1)")
	}

	// Execution
	if c.Execution.MaxAttempts < 1 {
		errs = append(errs, "execution: max_attempts must be >= 1")
	}
	if c.Execution.BaseDelay.Duration <= 0 {
		errs = append(errs, "execution: base_delay must be positive")
	}
	if c.Execution.BackoffBase < 1 {
		errs = append(errs, "execution: backoff_base must be >= 1")
	}
	if c.Execution.SettlementTimeout.Duration <= 0 {
		errs = append(errs, "execution: settlement_timeout must be positive")
	}
	if c.Execution.PollInterval.Duration <= 0 {
		errs = append(errs, "execution: poll_interval must be positive")
	}

	// Trading
	if c.Trading.MarketID == "" {
		errs = append(errs, "trading: market_id must not be empty")
	}
	if c.Trading.OrderType != "MARKET" && c.Trading.OrderType != "LIMIT" {
		errs = append(errs, fmt.Sprintf("trading: order_type must be MARKET or LIMIT, got %q", c.Trading.OrderType))
	}
	if c.Trading.StartingCapital <= 0 {
		errs = append(errs, "trading: starting_capital must be > 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
