package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies UPDOWNBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known UPDOWNBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Feed ──
	setStr(&cfg.Feed.WsHost, "UPDOWNBOT_FEED_WS_HOST")
	setStr(&cfg.Feed.ApiHost, "UPDOWNBOT_FEED_API_HOST")
	setStr(&cfg.Feed.Symbol, "UPDOWNBOT_FEED_SYMBOL")
	setStr(&cfg.Feed.Interval, "UPDOWNBOT_FEED_INTERVAL")
	setInt(&cfg.Feed.BufferSize, "UPDOWNBOT_FEED_BUFFER_SIZE")
	setDuration(&cfg.Feed.MaxAge, "UPDOWNBOT_FEED_MAX_AGE")
	setInt(&cfg.Feed.DepthLimit, "UPDOWNBOT_FEED_DEPTH_LIMIT")

	// ── Exchange ──
	setStr(&cfg.Exchange.BaseURL, "UPDOWNBOT_EXCHANGE_BASE_URL")
	setStr(&cfg.Exchange.ApiKey, "UPDOWNBOT_EXCHANGE_API_KEY")
	setStr(&cfg.Exchange.ApiSecret, "UPDOWNBOT_EXCHANGE_API_SECRET")
	setStr(&cfg.Exchange.ApiPassphrase, "UPDOWNBOT_EXCHANGE_API_PASSPHRASE")
	setStr(&cfg.Exchange.EncryptedSecretPath, "UPDOWNBOT_EXCHANGE_ENCRYPTED_SECRET_PATH")
	setStr(&cfg.Exchange.SecretPassword, "UPDOWNBOT_EXCHANGE_SECRET_PASSWORD")
	setFloat64(&cfg.Exchange.RateLimitPerSec, "UPDOWNBOT_EXCHANGE_RATE_LIMIT_PER_SEC")
	setInt(&cfg.Exchange.RateBurst, "UPDOWNBOT_EXCHANGE_RATE_BURST")

	// ── Indicators ──
	setInt(&cfg.Indicators.RSIPeriod, "UPDOWNBOT_INDICATORS_RSI_PERIOD")
	setInt(&cfg.Indicators.MACDFast, "UPDOWNBOT_INDICATORS_MACD_FAST")
	setInt(&cfg.Indicators.MACDSlow, "UPDOWNBOT_INDICATORS_MACD_SLOW")
	setInt(&cfg.Indicators.MACDSignal, "UPDOWNBOT_INDICATORS_MACD_SIGNAL")

	// ── Prediction ──
	setFloat64(&cfg.Prediction.RSIOversold, "UPDOWNBOT_PREDICTION_RSI_OVERSOLD")
	setFloat64(&cfg.Prediction.RSIOverbought, "UPDOWNBOT_PREDICTION_RSI_OVERBOUGHT")
	setFloat64(&cfg.Prediction.BullishImbalance, "UPDOWNBOT_PREDICTION_BULLISH_IMBALANCE")
	setFloat64(&cfg.Prediction.BearishImbalance, "UPDOWNBOT_PREDICTION_BEARISH_IMBALANCE")
	setFloat64(&cfg.Prediction.Confidence, "UPDOWNBOT_PREDICTION_CONFIDENCE")
	setBool(&cfg.Prediction.FailOnMissingBook, "UPDOWNBOT_PREDICTION_FAIL_ON_MISSING_BOOK")

	// ── Risk ──
	setFloat64(&cfg.Risk.MaxDrawdownPct, "UPDOWNBOT_RISK_MAX_DRAWDOWN_PCT")
	setFloat64(&cfg.Risk.MaxVolatilityPct, "UPDOWNBOT_RISK_MAX_VOLATILITY_PCT")
	setInt(&cfg.Risk.VolatilityWindow, "UPDOWNBOT_RISK_VOLATILITY_WINDOW")
	setFloat64(&cfg.Risk.RiskPerTrade, "UPDOWNBOT_RISK_RISK_PER_TRADE")
	setFloat64(&cfg.Risk.MaxPositionSize, "UPDOWNBOT_RISK_MAX_POSITION_SIZE")
	setFloat64(&cfg.Risk.MaxTotalExposure, "UPDOWNBOT_RISK_MAX_TOTAL_EXPOSURE")
	setFloat64(&cfg.Risk.WarningRatio, "UPDOWNBOT_RISK_WARNING_RATIO")

	// ── Execution ──
	setInt(&cfg.Execution.MaxAttempts, "UPDOWNBOT_EXECUTION_MAX_ATTEMPTS")
	setDuration(&cfg.Execution.BaseDelay, "UPDOWNBOT_EXECUTION_BASE_DELAY")
	setDuration(&cfg.Execution.MaxDelay, "UPDOWNBOT_EXECUTION_MAX_DELAY")
	setFloat64(&cfg.Execution.BackoffBase, "UPDOWNBOT_EXECUTION_BACKOFF_BASE")
	setDuration(&cfg.Execution.SettlementTimeout, "UPDOWNBOT_EXECUTION_SETTLEMENT_TIMEOUT")
	setDuration(&cfg.Execution.PollInterval, "UPDOWNBOT_EXECUTION_POLL_INTERVAL")

	// ── Trading ──
	setStr(&cfg.Trading.MarketID, "UPDOWNBOT_TRADING_MARKET_ID")
	setStr(&cfg.Trading.OrderType, "UPDOWNBOT_TRADING_ORDER_TYPE")
	setFloat64(&cfg.Trading.StartingCapital, "UPDOWNBOT_TRADING_STARTING_CAPITAL")
	setDuration(&cfg.Trading.CycleInterval, "UPDOWNBOT_TRADING_CYCLE_INTERVAL")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "UPDOWNBOT_LOG_LEVEL")
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

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
