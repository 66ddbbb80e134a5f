package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alanyoungcy/updownbot/internal/config"
	"github.com/alanyoungcy/updownbot/internal/crypto"
	"github.com/alanyoungcy/updownbot/internal/executor"
	"github.com/alanyoungcy/updownbot/internal/feed"
	"github.com/alanyoungcy/updownbot/internal/indicator"
	"github.com/alanyoungcy/updownbot/internal/notify"
	"github.com/alanyoungcy/updownbot/internal/platform/binance"
	"github.com/alanyoungcy/updownbot/internal/platform/exchange"
	"github.com/alanyoungcy/updownbot/internal/predict"
	"github.com/alanyoungcy/updownbot/internal/risk"
)

// Dependencies bundles every component the decision loop needs. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Feed      *feed.PriceFeed
	Exchange  *exchange.Client
	Predictor *predict.Engine
	Risk      *risk.Manager
	Executor  *executor.Engine
	Notifier  *notify.Console
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Exchange API credentials; the secret may live in an encrypted file.
	secret, err := crypto.LoadSecret(crypto.SecretConfig{
		RawSecret:           cfg.Exchange.ApiSecret,
		EncryptedSecretPath: cfg.Exchange.EncryptedSecretPath,
		Password:            cfg.Exchange.SecretPassword,
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("app: resolve API secret: %w", err)
	}
	auth := &crypto.HMACAuth{
		Key:        cfg.Exchange.ApiKey,
		Secret:     secret,
		Passphrase: cfg.Exchange.ApiPassphrase,
	}

	exchangeClient := exchange.NewClient(
		cfg.Exchange.BaseURL,
		auth,
		cfg.Exchange.RateLimitPerSec,
		cfg.Exchange.RateBurst,
	)

	priceFeed := feed.NewPriceFeed(
		cfg.Feed.WsHost,
		cfg.Feed.Symbol,
		cfg.Feed.Interval,
		cfg.Feed.BufferSize,
		logger,
	)
	closers = append(closers, priceFeed.Close)

	depthClient := binance.NewDepthClient(cfg.Feed.ApiHost)
	bookImbalance := indicator.NewBookImbalance(depthClient, cfg.Feed.DepthLimit, logger)

	predictor := predict.NewEngine(predict.Config{
		RSIPeriod:         cfg.Indicators.RSIPeriod,
		MACDFast:          cfg.Indicators.MACDFast,
		MACDSlow:          cfg.Indicators.MACDSlow,
		MACDSignal:        cfg.Indicators.MACDSignal,
		RSIOversold:       cfg.Prediction.RSIOversold,
		RSIOverbought:     cfg.Prediction.RSIOverbought,
		BullishImbalance:  cfg.Prediction.BullishImbalance,
		BearishImbalance:  cfg.Prediction.BearishImbalance,
		Confidence:        cfg.Prediction.Confidence,
		FailOnMissingBook: cfg.Prediction.FailOnMissingBook,
	}, bookImbalance, logger)

	riskManager := risk.NewManager(risk.Config{
		MaxDrawdownPct:   cfg.Risk.MaxDrawdownPct,
		MaxVolatilityPct: cfg.Risk.MaxVolatilityPct,
		VolatilityWindow: cfg.Risk.VolatilityWindow,
		RiskPerTrade:     cfg.Risk.RiskPerTrade,
		MaxPositionSize:  cfg.Risk.MaxPositionSize,
		MaxTotalExposure: cfg.Risk.MaxTotalExposure,
		WarningRatio:     cfg.Risk.WarningRatio,
	}, logger)

	execEngine := executor.NewEngine(exchangeClient, executor.Config{
		Retry: executor.RetryPolicy{
			MaxAttempts: cfg.Execution.MaxAttempts,
			BaseDelay:   cfg.Execution.BaseDelay.Duration,
			MaxDelay:    cfg.Execution.MaxDelay.Duration,
			BackoffBase: cfg.Execution.BackoffBase,
		},
		SettlementTimeout: cfg.Execution.SettlementTimeout.Duration,
		PollInterval:      cfg.Execution.PollInterval.Duration,
	}, logger)

	return &Dependencies{
		Feed:      priceFeed,
		Exchange:  exchangeClient,
		Predictor: predictor,
		Risk:      riskManager,
		Executor:  execEngine,
		Notifier:  notify.NewConsole(os.Stdout),
	}, cleanup, nil
}
