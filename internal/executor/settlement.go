package executor

import (
	"time"

	"github.com/alanyoungcy/updownbot/internal/domain"
)

// UpdateTradeWithSettlement applies the terminal transition for a settled
// order. WIN and LOSS mark the trade EXECUTED and fully filled; PUSH marks
// it CANCELLED. UNKNOWN applies no transition and returns the trade
// unchanged. Exactly one transition applies per settlement.
func UpdateTradeWithSettlement(trade domain.Trade, state domain.OrderState, outcome domain.SettlementOutcome, at time.Time) domain.Trade {
	switch outcome {
	case domain.SettlementWin, domain.SettlementLoss:
		trade.Status = domain.TradeStatusExecuted
		trade.FilledQuantity = trade.Quantity
		if state.FilledAmount > 0 {
			trade.FilledQuantity = state.FilledAmount
		}
		trade.Fee = state.Fee
		trade.ExecutedAt = &at

	case domain.SettlementPush:
		trade.Status = domain.TradeStatusCancelled
	}
	return trade
}

// UpdatePositionWithSettlement closes the position for WIN/LOSS with the
// binary payout as exit price: 1 when the outcome we traded resolved in our
// favor, 0 when it did not. Realized PnL is (exit - entry) * quantity for a
// buy and (entry - exit) * quantity for a sell. PUSH closes flat with zero
// PnL. The CLOSED status is set exactly once, here.
func UpdatePositionWithSettlement(pos domain.Position, side domain.OrderSide, outcome domain.SettlementOutcome, at time.Time) domain.Position {
	var exit float64
	switch outcome {
	case domain.SettlementWin:
		exit = 1
	case domain.SettlementLoss:
		exit = 0
	case domain.SettlementPush:
		exit = pos.EntryPrice
	default:
		return pos
	}

	pnl := (exit - pos.EntryPrice) * pos.Quantity
	if side == domain.OrderSideSell {
		pnl = -pnl
	}
	if outcome == domain.SettlementPush {
		pnl = 0
	}

	pos.Status = domain.PositionStatusClosed
	pos.ExitPrice = &exit
	pos.RealizedPnL = &pnl
	pos.ClosedAt = &at
	return pos
}
