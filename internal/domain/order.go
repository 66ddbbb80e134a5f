package domain

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType selects between market and limit execution.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// Outcome is the side of a binary market a trade is taken on.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// OrderStatus tracks the remote order lifecycle as reported by the exchange:
// PENDING -> MATCHED -> {SETTLED, CANCELLED, FAILED}. The last three are
// terminal.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusMatched   OrderStatus = "MATCHED"
	OrderStatusSettled   OrderStatus = "SETTLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// Terminal reports whether the remote order can no longer change state.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusSettled || s == OrderStatusCancelled || s == OrderStatusFailed
}

// OrderRequest is the payload for submitting an order to the exchange.
type OrderRequest struct {
	MarketID  string
	Side      OrderSide
	Outcome   Outcome
	Quantity  float64
	OrderType OrderType
	Price     float64 // required for LIMIT orders
}

// Validate checks the request against the exchange's hard constraints.
func (r OrderRequest) Validate() error {
	if r.MarketID == "" {
		return ErrInvalidOrder
	}
	if r.Quantity <= 0 {
		return ErrInvalidOrder
	}
	if r.OrderType == OrderTypeLimit && r.Price <= 0 {
		return ErrInvalidOrder
	}
	return nil
}

// OrderResult wraps the exchange response after order submission.
type OrderResult struct {
	OrderID      string
	Status       OrderStatus
	FilledAmount float64
	Fee          float64
}

// OrderState is the exchange's view of an order during settlement polling.
// SettlementOutcome and MarketResolution are empty until the exchange
// reports them.
type OrderState struct {
	Status            OrderStatus
	FilledAmount      float64
	Fee               float64
	SettlementOutcome string // "WIN", "LOSS", "PUSH" when reported explicitly
	MarketResolution  string // "YES" or "NO" once the market resolves
}
