// Package executor submits orders to the exchange with bounded retries,
// polls for settlement under a wall-clock timeout, classifies the outcome,
// and applies the resulting Trade and Position transitions.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/updownbot/internal/domain"
)

// OrderAPI is the exchange surface the engine depends on. It is implemented
// by the exchange REST client.
type OrderAPI interface {
	PostOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error)
	GetOrderStatus(ctx context.Context, orderID string) (domain.OrderState, error)
}

// Config holds the engine's retry and polling parameters.
type Config struct {
	Retry             RetryPolicy
	SettlementTimeout time.Duration
	PollInterval      time.Duration
}

// Engine drives one order at a time through submission and settlement. It
// owns the Trade and Position it creates until a terminal settlement result
// is produced; capital state is folded in by the caller afterwards.
type Engine struct {
	api    OrderAPI
	cfg    Config
	logger *slog.Logger

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine creates an execution engine talking to the given order API.
func NewEngine(api OrderAPI, cfg Config, logger *slog.Logger) *Engine {
	return &Engine{
		api:    api,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "execution_engine")),
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// SubmitOrder validates the request, submits it under the retry policy, and
// returns a PENDING Trade on success. A response without an order ID is an
// execution failure even when the HTTP call succeeded.
func (e *Engine) SubmitOrder(ctx context.Context, req domain.OrderRequest) (domain.Trade, error) {
	if err := req.Validate(); err != nil {
		return domain.Trade{}, fmt.Errorf("executor: submit order: %w", err)
	}

	var result domain.OrderResult
	err := e.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		var callErr error
		result, callErr = e.api.PostOrder(ctx, req)
		if callErr != nil {
			e.logger.Warn("order submission attempt failed",
				slog.String("market", req.MarketID),
				slog.String("error", callErr.Error()),
			)
		}
		return callErr
	})
	if err != nil {
		return domain.Trade{}, fmt.Errorf("executor: submit order: %w: %w", domain.ErrOrderExecution, err)
	}

	if result.OrderID == "" {
		return domain.Trade{}, fmt.Errorf("executor: submit order: response missing order_id: %w", domain.ErrOrderExecution)
	}

	trade := domain.Trade{
		ID:             uuid.New().String(),
		MarketID:       req.MarketID,
		OrderID:        result.OrderID,
		Side:           req.Side,
		OrderType:      req.OrderType,
		Outcome:        req.Outcome,
		Price:          req.Price,
		Quantity:       req.Quantity,
		FilledQuantity: result.FilledAmount,
		Status:         domain.TradeStatusPending,
		Fee:            result.Fee,
		CreatedAt:      e.now().UTC(),
	}

	e.logger.Info("order submitted",
		slog.String("trade_id", trade.ID),
		slog.String("order_id", trade.OrderID),
		slog.String("side", string(trade.Side)),
		slog.String("outcome", string(trade.Outcome)),
		slog.Float64("quantity", trade.Quantity),
	)

	return trade, nil
}

// PollSettlement repeatedly queries the order status until it reaches a
// terminal state or the wall-clock timeout elapses. Transient fetch errors
// are swallowed and polling continues; a FAILED order or an expired timeout
// surface as settlement errors.
func (e *Engine) PollSettlement(ctx context.Context, orderID string) (domain.OrderState, error) {
	deadline := e.now().Add(e.cfg.SettlementTimeout)

	for {
		state, err := e.api.GetOrderStatus(ctx, orderID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return domain.OrderState{}, ctx.Err()
			}
			e.logger.Warn("settlement poll failed, will retry",
				slog.String("order_id", orderID),
				slog.String("error", err.Error()),
			)

		case state.Status == domain.OrderStatusSettled:
			return state, nil

		case state.Status == domain.OrderStatusCancelled:
			return state, nil

		case state.Status == domain.OrderStatusFailed:
			return state, fmt.Errorf("executor: order %s failed: %w", orderID, domain.ErrSettlement)
		}

		if !e.now().Before(deadline) {
			return domain.OrderState{}, fmt.Errorf("executor: order %s: timeout after %s: %w",
				orderID, e.cfg.SettlementTimeout, domain.ErrSettlementTimeout)
		}

		if err := e.sleep(ctx, e.cfg.PollInterval); err != nil {
			return domain.OrderState{}, err
		}
	}
}

// DetermineOutcome classifies a settled order. An explicit settlement
// outcome from the exchange wins; otherwise the market resolution is
// compared against the side we bought. When neither is determinable the
// outcome is UNKNOWN, which callers must handle explicitly; it is never
// treated as a win.
func (e *Engine) DetermineOutcome(trade domain.Trade, state domain.OrderState) domain.SettlementOutcome {
	switch state.SettlementOutcome {
	case string(domain.SettlementWin):
		return domain.SettlementWin
	case string(domain.SettlementLoss):
		return domain.SettlementLoss
	case string(domain.SettlementPush):
		return domain.SettlementPush
	}

	if state.MarketResolution != "" {
		if state.MarketResolution == string(trade.Outcome) {
			return domain.SettlementWin
		}
		return domain.SettlementLoss
	}

	return domain.SettlementUnknown
}

// LifecycleResult is the outcome of one complete order lifecycle.
type LifecycleResult struct {
	Trade    domain.Trade
	Position *domain.Position
	Outcome  domain.SettlementOutcome
}

// TrackOrderLifecycle composes submit, poll, classify, and update as one
// unit of work. The onCommit callback runs after submission succeeds and
// before settlement is awaited, so the caller can record the pending
// exposure commitment while the order is in flight.
func (e *Engine) TrackOrderLifecycle(
	ctx context.Context,
	req domain.OrderRequest,
	entryPrice float64,
	onCommit func(trade domain.Trade),
) (LifecycleResult, error) {
	trade, err := e.SubmitOrder(ctx, req)
	if err != nil {
		return LifecycleResult{}, err
	}

	if onCommit != nil {
		onCommit(trade)
	}

	position := &domain.Position{
		ID:         uuid.New().String(),
		MarketID:   req.MarketID,
		Outcome:    req.Outcome,
		Quantity:   req.Quantity,
		EntryPrice: entryPrice,
		Status:     domain.PositionStatusOpen,
		OpenedAt:   e.now().UTC(),
	}

	state, err := e.PollSettlement(ctx, trade.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrSettlement) && state.Status == domain.OrderStatusFailed {
			// The order failed terminally: nothing filled, nothing owed.
			trade.Status = domain.TradeStatusCancelled
			return LifecycleResult{Trade: trade, Position: position, Outcome: domain.SettlementPush}, err
		}
		// The trade stays in a known indeterminate state for the caller to
		// reconcile; it is never assumed lost.
		return LifecycleResult{Trade: trade, Position: position, Outcome: domain.SettlementUnknown}, err
	}

	var outcome domain.SettlementOutcome
	if state.Status == domain.OrderStatusCancelled {
		// A cancelled order never filled: flat result, no PnL.
		outcome = domain.SettlementPush
	} else {
		outcome = e.DetermineOutcome(trade, state)
	}

	if outcome == domain.SettlementUnknown {
		return LifecycleResult{Trade: trade, Position: position, Outcome: outcome},
			fmt.Errorf("executor: order %s settled with undeterminable outcome: %w", trade.OrderID, domain.ErrSettlement)
	}

	updatedTrade := UpdateTradeWithSettlement(trade, state, outcome, e.now().UTC())
	updatedPosition := UpdatePositionWithSettlement(*position, trade.Side, outcome, e.now().UTC())

	e.logger.Info("order lifecycle complete",
		slog.String("trade_id", updatedTrade.ID),
		slog.String("order_id", updatedTrade.OrderID),
		slog.String("outcome", string(outcome)),
		slog.String("trade_status", string(updatedTrade.Status)),
	)

	return LifecycleResult{
		Trade:    updatedTrade,
		Position: &updatedPosition,
		Outcome:  outcome,
	}, nil
}

// Reconcile performs a single status check for a trade left indeterminate
// by an earlier settlement timeout. When the order has reached a terminal
// state with a known outcome it classifies and applies the settlement,
// returning done=true; a still-pending order, a transient fetch error, or a
// settled order whose outcome cannot be determined returns done=false so
// the caller retries next cycle.
func (e *Engine) Reconcile(ctx context.Context, trade domain.Trade, position domain.Position) (LifecycleResult, bool, error) {
	state, err := e.api.GetOrderStatus(ctx, trade.OrderID)
	if err != nil {
		e.logger.Warn("reconcile status fetch failed",
			slog.String("order_id", trade.OrderID),
			slog.String("error", err.Error()),
		)
		return LifecycleResult{}, false, nil
	}

	switch state.Status {
	case domain.OrderStatusFailed:
		trade.Status = domain.TradeStatusCancelled
		return LifecycleResult{Trade: trade, Position: &position, Outcome: domain.SettlementPush}, true, nil

	case domain.OrderStatusCancelled:
		updatedTrade := UpdateTradeWithSettlement(trade, state, domain.SettlementPush, e.now().UTC())
		updatedPosition := UpdatePositionWithSettlement(position, trade.Side, domain.SettlementPush, e.now().UTC())
		return LifecycleResult{Trade: updatedTrade, Position: &updatedPosition, Outcome: domain.SettlementPush}, true, nil

	case domain.OrderStatusSettled:
		outcome := e.DetermineOutcome(trade, state)
		if outcome == domain.SettlementUnknown {
			// Never guess a settled order's outcome. Report the problem and
			// leave the trade open for the next cycle.
			return LifecycleResult{Trade: trade, Position: &position, Outcome: outcome}, false,
				fmt.Errorf("executor: order %s settled with undeterminable outcome: %w", trade.OrderID, domain.ErrSettlement)
		}
		updatedTrade := UpdateTradeWithSettlement(trade, state, outcome, e.now().UTC())
		updatedPosition := UpdatePositionWithSettlement(position, trade.Side, outcome, e.now().UTC())
		return LifecycleResult{Trade: updatedTrade, Position: &updatedPosition, Outcome: outcome}, true, nil
	}

	return LifecycleResult{}, false, nil
}

// IsSettlementTimeout reports whether err is the polling timeout, which
// leaves the order in an indeterminate rather than failed state.
func IsSettlementTimeout(err error) bool {
	return errors.Is(err, domain.ErrSettlementTimeout)
}

// sleepCtx sleeps for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
