package domain

import "time"

// TradeStatus tracks the local trade lifecycle: PENDING -> {EXECUTED,
// CANCELLED}, both terminal.
type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "PENDING"
	TradeStatusExecuted  TradeStatus = "EXECUTED"
	TradeStatusCancelled TradeStatus = "CANCELLED"
)

// SettlementOutcome classifies how a settled order resolved for us.
// Unknown is never silently treated as a win; callers must handle it.
type SettlementOutcome string

const (
	SettlementWin     SettlementOutcome = "WIN"
	SettlementLoss    SettlementOutcome = "LOSS"
	SettlementPush    SettlementOutcome = "PUSH"
	SettlementUnknown SettlementOutcome = "UNKNOWN"
)

// Trade is the bot's record of one order, from submission through
// settlement. It is owned exclusively by the execution engine until a
// terminal settlement result is produced.
type Trade struct {
	ID             string
	MarketID       string
	OrderID        string
	Side           OrderSide
	OrderType      OrderType
	Outcome        Outcome
	Price          float64
	Quantity       float64
	FilledQuantity float64
	Status         TradeStatus
	Fee            float64
	ExecutedAt     *time.Time
	CreatedAt      time.Time
	Metadata       map[string]string
}
