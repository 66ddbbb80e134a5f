package domain

import "time"

// PositionStatus tracks whether a position is open or closed. Closed is
// terminal and is set exactly once, at settlement.
type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "OPEN"
	PositionStatusClosed PositionStatus = "CLOSED"
)

// Position represents the single position the bot holds in a market.
type Position struct {
	ID           string
	MarketID     string
	Outcome      Outcome
	Quantity     float64
	EntryPrice   float64
	CurrentPrice float64
	Status       PositionStatus
	ExitPrice    *float64
	RealizedPnL  *float64 // computed only when CLOSED
	OpenedAt     time.Time
	ClosedAt     *time.Time
}
