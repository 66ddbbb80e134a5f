// Package predict maps indicator readings to a directional trading signal.
// The rule is a fixed, auditable conjunction over thresholds, not a learned
// model; confidence is a configured constant when the rule fires.
package predict

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/updownbot/internal/domain"
	"github.com/alanyoungcy/updownbot/internal/indicator"
)

// Config holds the decision-rule thresholds.
type Config struct {
	RSIPeriod  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int

	RSIOversold      float64
	RSIOverbought    float64
	BullishImbalance float64
	BearishImbalance float64

	// Confidence is assigned to every UP/DOWN signal. SKIP is always 0.
	Confidence float64

	// FailOnMissingBook aborts the cycle when the depth snapshot cannot be
	// fetched; otherwise the imbalance is treated as neutral.
	FailOnMissingBook bool
}

// ImbalanceReader supplies the current order-book imbalance for a symbol.
type ImbalanceReader interface {
	Get(ctx context.Context, symbol string) (float64, error)
}

// Engine derives a PredictionSignal from a price series and the order book.
// Any indicator failure propagates; the engine never produces a signal from
// partial data.
type Engine struct {
	cfg       Config
	imbalance ImbalanceReader
	logger    *slog.Logger
}

// NewEngine creates a prediction engine.
func NewEngine(cfg Config, imbalance ImbalanceReader, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		imbalance: imbalance,
		logger:    logger.With(slog.String("component", "prediction_engine")),
	}
}

// Predict evaluates the decision rule over the latest indicator values:
//
//	UP   iff RSI < oversold   AND macd > signal AND imbalance > bullish
//	DOWN iff RSI > overbought AND macd < signal AND imbalance < bearish
//	SKIP otherwise
func (e *Engine) Predict(ctx context.Context, symbol string, prices []float64) (domain.PredictionSignal, error) {
	rsi, err := indicator.RSI(prices, e.cfg.RSIPeriod)
	if err != nil {
		return domain.PredictionSignal{}, fmt.Errorf("predict: %w: %w", domain.ErrPrediction, err)
	}

	macdLine, signalLine, err := indicator.MACD(prices, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
	if err != nil {
		return domain.PredictionSignal{}, fmt.Errorf("predict: %w: %w", domain.ErrPrediction, err)
	}

	imb, err := e.imbalance.Get(ctx, symbol)
	if err != nil {
		if e.cfg.FailOnMissingBook {
			return domain.PredictionSignal{}, fmt.Errorf("predict: %w: %w", domain.ErrPrediction, err)
		}
		e.logger.Warn("order book unavailable, treating imbalance as neutral",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		imb = indicator.NeutralImbalance
	}

	sig := e.evaluate(rsi, macdLine, signalLine, imb)

	e.logger.Info("prediction",
		slog.String("direction", string(sig.Direction)),
		slog.Float64("rsi", rsi),
		slog.Float64("macd", macdLine),
		slog.Float64("macd_signal", signalLine),
		slog.Float64("imbalance", imb),
	)

	return sig, nil
}

// evaluate applies the threshold rule to already-computed indicator values.
func (e *Engine) evaluate(rsi, macdLine, signalLine, imb float64) domain.PredictionSignal {
	values := domain.IndicatorValues{
		RSI:        rsi,
		MACDLine:   macdLine,
		MACDSignal: signalLine,
		Imbalance:  imb,
	}
	now := time.Now().UTC()

	if rsi < e.cfg.RSIOversold && macdLine > signalLine && imb > e.cfg.BullishImbalance {
		return domain.PredictionSignal{
			Direction:  domain.SignalUp,
			Confidence: e.cfg.Confidence,
			Indicators: values,
			Reasoning: fmt.Sprintf("oversold reversal: rsi=%.2f < %.2f, macd=%.4f > signal=%.4f, imbalance=%.2f > %.2f",
				rsi, e.cfg.RSIOversold, macdLine, signalLine, imb, e.cfg.BullishImbalance),
			CreatedAt: now,
		}
	}

	if rsi > e.cfg.RSIOverbought && macdLine < signalLine && imb < e.cfg.BearishImbalance {
		return domain.PredictionSignal{
			Direction:  domain.SignalDown,
			Confidence: e.cfg.Confidence,
			Indicators: values,
			Reasoning: fmt.Sprintf("overbought reversal: rsi=%.2f > %.2f, macd=%.4f < signal=%.4f, imbalance=%.2f < %.2f",
				rsi, e.cfg.RSIOverbought, macdLine, signalLine, imb, e.cfg.BearishImbalance),
			CreatedAt: now,
		}
	}

	return domain.PredictionSignal{
		Direction:  domain.SignalSkip,
		Confidence: 0,
		Indicators: values,
		Reasoning: fmt.Sprintf("no edge: rsi=%.2f, macd=%.4f, signal=%.4f, imbalance=%.2f",
			rsi, macdLine, signalLine, imb),
		CreatedAt: now,
	}
}
