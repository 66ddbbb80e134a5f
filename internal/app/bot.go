package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/updownbot/internal/domain"
	"github.com/alanyoungcy/updownbot/internal/executor"
)

// runDecisionLoop evaluates one trading decision per cycle interval:
// reconcile any indeterminate trade, read prices, predict, pass risk
// checks, then execute and settle.
func (a *App) runDecisionLoop(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.Trading.CycleInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.runCycle(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Error("cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (a *App) runCycle(ctx context.Context) error {
	if a.pending != nil {
		a.reconcilePending(ctx)
		if a.pending != nil {
			// Capital is still committed to the unresolved trade; do not
			// stack another position on top of it.
			return nil
		}
	}

	if !a.deps.Feed.Healthy(a.cfg.Feed.MaxAge.Duration) {
		a.logger.Warn("price feed unhealthy, skipping cycle")
		return nil
	}

	prices := a.deps.Feed.History(0)
	minPoints := a.cfg.Indicators.MACDSlow + a.cfg.Indicators.MACDSignal
	if len(prices) < minPoints {
		a.logger.Info("warming up",
			slog.Int("points", len(prices)),
			slog.Int("required", minPoints),
		)
		return nil
	}

	market, err := a.deps.Exchange.GetMarket(ctx, a.cfg.Trading.MarketID)
	if err != nil {
		return fmt.Errorf("fetch market %s: %w", a.cfg.Trading.MarketID, err)
	}

	sig, err := a.deps.Predictor.Predict(ctx, a.cfg.Feed.Symbol, prices)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}
	if !sig.Actionable() {
		a.summary.Skips++
		a.logger.Info("signal skipped", slog.String("reasoning", sig.Reasoning))
		return nil
	}

	approval := a.deps.Risk.ApproveTrade(sig, market, *a.state, prices)
	for _, w := range approval.Warnings {
		a.logger.Warn("risk warning", slog.String("warning", w))
	}
	if !approval.Approved {
		a.summary.Rejections++
		a.logger.Info("trade rejected",
			slog.String("direction", string(sig.Direction)),
			slog.Any("reasons", approval.RejectionReasons),
		)
		return nil
	}

	return a.executeSignal(ctx, sig, market)
}

func (a *App) executeSignal(ctx context.Context, sig domain.PredictionSignal, market domain.MarketData) error {
	entryPrice := market.YesPrice
	if sig.Direction == domain.SignalDown {
		entryPrice = market.NoPrice
	}
	if entryPrice <= 0 {
		return fmt.Errorf("market %s has no usable entry price for %s", market.MarketID, sig.Direction)
	}

	size := a.deps.Risk.MaxTradeSize(*a.state)
	if size <= 0 {
		a.summary.Rejections++
		a.logger.Info("no capital headroom for trade")
		return nil
	}
	quantity := size / entryPrice

	req := domain.OrderRequest{
		MarketID:  a.cfg.Trading.MarketID,
		Side:      domain.OrderSideBuy,
		Outcome:   sig.Outcome(),
		Quantity:  quantity,
		OrderType: domain.OrderType(a.cfg.Trading.OrderType),
	}
	if req.OrderType == domain.OrderTypeLimit {
		req.Price = entryPrice
	}

	a.logger.Info("executing signal",
		slog.String("direction", string(sig.Direction)),
		slog.Float64("confidence", sig.Confidence),
		slog.Float64("entry_price", entryPrice),
		slog.Float64("quantity", quantity),
	)

	result, err := a.deps.Executor.TrackOrderLifecycle(ctx, req, entryPrice, func(trade domain.Trade) {
		a.state.CurrentExposure += size
		a.summary.TradesSubmitted++
	})
	if err != nil {
		if result.Trade.ID == "" {
			// Submission failed; nothing was committed.
			return fmt.Errorf("order lifecycle: %w", err)
		}
		if result.Outcome == domain.SettlementPush {
			// Terminal failure after submission: release the commitment.
			a.state.CurrentExposure -= size
			a.finishTrade(result)
			return fmt.Errorf("order lifecycle: %w", err)
		}
		// Indeterminate: settlement timed out, the outcome could not be
		// determined, or the poll was interrupted. Keep the exposure
		// committed and re-check the order next cycle.
		a.pending = &pendingTrade{
			Trade:    result.Trade,
			Position: *result.Position,
			Exposure: size,
		}
		a.logger.Warn("settlement unresolved, trade held for reconciliation",
			slog.String("order_id", result.Trade.OrderID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	a.state.CurrentExposure -= size
	a.finishTrade(result)
	return nil
}

// reconcilePending re-checks a trade whose settlement came back
// indeterminate. Exposure stays committed until the order reaches a
// terminal state with a known outcome.
func (a *App) reconcilePending(ctx context.Context) {
	result, done, err := a.deps.Executor.Reconcile(ctx, a.pending.Trade, a.pending.Position)
	if err != nil {
		a.logger.Error("reconciliation error",
			slog.String("order_id", a.pending.Trade.OrderID),
			slog.String("error", err.Error()),
		)
	}
	if !done {
		return
	}

	a.state.CurrentExposure -= a.pending.Exposure
	a.pending = nil
	a.finishTrade(result)
}

// finishTrade records a settled lifecycle result into bot state and the
// session summary.
func (a *App) finishTrade(result executor.LifecycleResult) {
	a.trades = append(a.trades, result.Trade)

	switch result.Outcome {
	case domain.SettlementWin:
		a.summary.Wins++
	case domain.SettlementLoss:
		a.summary.Losses++
	case domain.SettlementPush:
		a.summary.Pushes++
	}

	if result.Position != nil && result.Position.RealizedPnL != nil {
		a.state.ApplyPnL(*result.Position.RealizedPnL)
	}

	a.logger.Info("trade settled",
		slog.String("trade_id", result.Trade.ID),
		slog.String("outcome", string(result.Outcome)),
		slog.Float64("capital", a.state.CurrentCapital()),
	)
}
