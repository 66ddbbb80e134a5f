package exchange

import "github.com/alanyoungcy/updownbot/internal/domain"

// APIOrderRequest is the wire payload for POST /orders.
type APIOrderRequest struct {
	MarketID  string  `json:"market_id"`
	Side      string  `json:"side"`
	Outcome   string  `json:"outcome"`
	Quantity  float64 `json:"quantity"`
	OrderType string  `json:"order_type"`
	Price     float64 `json:"price,omitempty"`
}

// APIOrderResult is the wire response after order submission.
type APIOrderResult struct {
	OrderID      string  `json:"order_id"`
	Status       string  `json:"status"`
	FilledAmount float64 `json:"filled_amount"`
	Fee          float64 `json:"fee"`
	ErrorMsg     string  `json:"error_msg,omitempty"`
}

// ToDomainResult converts the wire response to the domain result.
func (r *APIOrderResult) ToDomainResult() domain.OrderResult {
	return domain.OrderResult{
		OrderID:      r.OrderID,
		Status:       domain.OrderStatus(r.Status),
		FilledAmount: r.FilledAmount,
		Fee:          r.Fee,
	}
}

// APIOrderState is the wire response of GET /orders/{id}.
type APIOrderState struct {
	OrderID           string  `json:"order_id"`
	Status            string  `json:"status"`
	FilledAmount      float64 `json:"filled_amount"`
	Fee               float64 `json:"fee"`
	SettlementOutcome string  `json:"settlement_outcome,omitempty"`
	MarketResolution  string  `json:"market_resolution,omitempty"`
}

// ToDomainState converts the wire response to the domain state.
func (s *APIOrderState) ToDomainState() domain.OrderState {
	return domain.OrderState{
		Status:            domain.OrderStatus(s.Status),
		FilledAmount:      s.FilledAmount,
		Fee:               s.Fee,
		SettlementOutcome: s.SettlementOutcome,
		MarketResolution:  s.MarketResolution,
	}
}

// APIMarket is the wire response of GET /markets/{id}.
type APIMarket struct {
	MarketID  string  `json:"market_id"`
	Question  string  `json:"question"`
	YesPrice  float64 `json:"yes_price"`
	NoPrice   float64 `json:"no_price"`
	YesVolume float64 `json:"yes_volume"`
	NoVolume  float64 `json:"no_volume"`
	Liquidity float64 `json:"liquidity"`
	Active    bool    `json:"active"`
	Closed    bool    `json:"closed"`
}
