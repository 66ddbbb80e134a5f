// Package risk gates prospective trades through capital circuit breakers.
// The manager is pure decision logic: it performs no I/O and returns
// structured results, never errors, so identical inputs always produce
// identical outputs.
package risk

import (
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/updownbot/internal/domain"
)

// Config holds the circuit-breaker limits.
type Config struct {
	MaxDrawdownPct   float64
	MaxVolatilityPct float64
	VolatilityWindow int
	RiskPerTrade     float64
	MaxPositionSize  float64
	MaxTotalExposure float64

	// WarningRatio is the fraction of a limit at which a non-fatal warning
	// is emitted even though the check still passes (e.g. 0.8).
	WarningRatio float64
}

// CheckResult is the outcome of a single circuit-breaker check. A failed
// validation is a rejection with a reason, not an error.
type CheckResult struct {
	Approved bool
	Value    float64 // the measured metric, in percent
	Reason   string  // populated when not approved
}

// ApprovalResult aggregates every violated check for a prospective trade.
// Warnings are non-fatal: the trade is still approved but a metric sits
// close to its limit.
type ApprovalResult struct {
	Approved         bool
	RejectionReasons []string
	Warnings         []string
}

// Manager evaluates circuit breakers against the session state.
type Manager struct {
	cfg    Config
	logger *slog.Logger
}

// NewManager creates a risk manager with the given limits.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "risk_manager")),
	}
}

// CheckDrawdown measures the percentage decline of current capital from the
// reference capital and approves iff it does not exceed the limit; the
// boundary value passes. A non-positive reference or negative current
// capital is a validation rejection.
func (m *Manager) CheckDrawdown(current, reference float64) CheckResult {
	if reference <= 0 {
		return CheckResult{Reason: fmt.Sprintf("Drawdown check invalid: reference capital %.2f must be positive", reference)}
	}
	if current < 0 {
		return CheckResult{Reason: fmt.Sprintf("Drawdown check invalid: current capital %.2f must not be negative", current)}
	}

	drawdown := (reference - current) / reference * 100
	if drawdown > m.cfg.MaxDrawdownPct {
		return CheckResult{
			Value:  drawdown,
			Reason: fmt.Sprintf("Drawdown %.2f%% exceeds limit %.2f%%", drawdown, m.cfg.MaxDrawdownPct),
		}
	}
	return CheckResult{Approved: true, Value: drawdown}
}

// CheckVolatility measures (max-min)/min over the last VolatilityWindow
// prices (or all available if fewer) and approves iff it does not exceed
// the limit; the boundary value passes. An empty or non-positive price list
// is a validation rejection; a single price approves by default since there
// is not enough signal to reject.
func (m *Manager) CheckVolatility(prices []float64) CheckResult {
	if len(prices) == 0 {
		return CheckResult{Reason: "Volatility check invalid: empty price list"}
	}

	window := prices
	if m.cfg.VolatilityWindow > 0 && len(prices) > m.cfg.VolatilityWindow {
		window = prices[len(prices)-m.cfg.VolatilityWindow:]
	}

	lo, hi := window[0], window[0]
	for _, p := range window {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if lo <= 0 {
		return CheckResult{Reason: fmt.Sprintf("Volatility check invalid: non-positive price %.2f", lo)}
	}
	if len(window) < 2 {
		return CheckResult{Approved: true}
	}

	volatility := (hi - lo) / lo * 100
	if volatility > m.cfg.MaxVolatilityPct {
		return CheckResult{
			Value:  volatility,
			Reason: fmt.Sprintf("Volatility %.2f%% exceeds limit %.2f%%", volatility, m.cfg.MaxVolatilityPct),
		}
	}
	return CheckResult{Approved: true, Value: volatility}
}

// ApproveTrade evaluates every circuit breaker for a prospective trade and
// aggregates ALL violated checks, not just the first. A SKIP signal always
// approves: there is nothing to execute.
func (m *Manager) ApproveTrade(
	sig domain.PredictionSignal,
	market domain.MarketData,
	state domain.BotState,
	priceHistory []float64,
) ApprovalResult {
	if sig.Direction == domain.SignalSkip {
		return ApprovalResult{Approved: true}
	}

	var reasons, warnings []string

	// Signal validity.
	if sig.Direction != domain.SignalUp && sig.Direction != domain.SignalDown {
		reasons = append(reasons, fmt.Sprintf("Invalid signal direction %q", sig.Direction))
	}
	if sig.Confidence < 0 || sig.Confidence > 1 {
		reasons = append(reasons, fmt.Sprintf("Invalid signal confidence %.2f", sig.Confidence))
	}

	// Bot must be running.
	if state.Status != domain.BotStatusRunning {
		reasons = append(reasons, fmt.Sprintf("Bot status is %s, not RUNNING", state.Status))
	}

	// Drawdown against the peak-capital high-water mark.
	dd := m.CheckDrawdown(state.CurrentCapital(), state.PeakCapital)
	if !dd.Approved {
		reasons = append(reasons, dd.Reason)
	} else if m.nearLimit(dd.Value, m.cfg.MaxDrawdownPct) {
		warnings = append(warnings, fmt.Sprintf("Drawdown %.2f%% is near limit %.2f%%", dd.Value, m.cfg.MaxDrawdownPct))
	}

	// Underlying price volatility.
	vol := m.CheckVolatility(priceHistory)
	if !vol.Approved {
		reasons = append(reasons, vol.Reason)
	} else if m.nearLimit(vol.Value, m.cfg.MaxVolatilityPct) {
		warnings = append(warnings, fmt.Sprintf("Volatility %.2f%% is near limit %.2f%%", vol.Value, m.cfg.MaxVolatilityPct))
	}

	// Market must be tradable.
	if !market.Tradable() {
		reasons = append(reasons, fmt.Sprintf("Market %s is not tradable (active=%t closed=%t)", market.MarketID, market.IsActive, market.IsClosed))
	}
	if market.Liquidity <= 0 {
		reasons = append(reasons, fmt.Sprintf("Market %s has no liquidity", market.MarketID))
	}

	// Exposure headroom.
	if state.CurrentExposure >= m.cfg.MaxTotalExposure {
		reasons = append(reasons, fmt.Sprintf("Exposure %.2f has no headroom under limit %.2f", state.CurrentExposure, m.cfg.MaxTotalExposure))
	} else if m.nearLimit(state.CurrentExposure, m.cfg.MaxTotalExposure) {
		warnings = append(warnings, fmt.Sprintf("Exposure %.2f is near limit %.2f", state.CurrentExposure, m.cfg.MaxTotalExposure))
	}

	result := ApprovalResult{
		Approved:         len(reasons) == 0,
		RejectionReasons: reasons,
		Warnings:         warnings,
	}

	if !result.Approved {
		m.logger.Warn("trade rejected",
			slog.String("direction", string(sig.Direction)),
			slog.Any("reasons", reasons),
		)
	} else if len(warnings) > 0 {
		m.logger.Warn("trade approved with warnings", slog.Any("warnings", warnings))
	}

	return result
}

// MaxTradeSize returns the largest notional a new trade may commit:
// min(risk per trade, max position size, remaining exposure headroom),
// floored at zero.
func (m *Manager) MaxTradeSize(state domain.BotState) float64 {
	size := m.cfg.RiskPerTrade
	if m.cfg.MaxPositionSize < size {
		size = m.cfg.MaxPositionSize
	}
	if headroom := m.cfg.MaxTotalExposure - state.CurrentExposure; headroom < size {
		size = headroom
	}
	if size < 0 {
		return 0
	}
	return size
}

// nearLimit reports whether value sits within the warning band
// [limit*WarningRatio, limit].
func (m *Manager) nearLimit(value, limit float64) bool {
	if limit <= 0 {
		return false
	}
	return value >= limit*m.cfg.WarningRatio && value <= limit
}
