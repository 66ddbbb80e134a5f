package domain

import "time"

// SignalDirection is the directional call produced by the prediction engine.
type SignalDirection string

const (
	SignalUp   SignalDirection = "UP"
	SignalDown SignalDirection = "DOWN"
	SignalSkip SignalDirection = "SKIP"
)

// IndicatorValues carries the raw indicator readings a signal was derived
// from, kept for reproducibility and audit.
type IndicatorValues struct {
	RSI        float64
	MACDLine   float64
	MACDSignal float64
	Imbalance  float64
}

// PredictionSignal is the output of one decision cycle. A SKIP signal is
// never actionable and always carries zero confidence.
type PredictionSignal struct {
	Direction  SignalDirection
	Confidence float64 // in [0, 1]; 0 for SKIP
	Indicators IndicatorValues
	Reasoning  string
	CreatedAt  time.Time
}

// Actionable reports whether the signal requests a trade.
func (s PredictionSignal) Actionable() bool {
	return s.Direction == SignalUp || s.Direction == SignalDown
}

// Outcome maps the signal direction to the market outcome to buy:
// UP buys YES, DOWN buys NO. SKIP has no outcome.
func (s PredictionSignal) Outcome() Outcome {
	switch s.Direction {
	case SignalUp:
		return OutcomeYes
	case SignalDown:
		return OutcomeNo
	default:
		return ""
	}
}
