package domain

import "time"

// MarketData is a snapshot of a binary-outcome market's tradable state.
// YesPrice and NoPrice are probabilities in [0, 1].
type MarketData struct {
	MarketID  string
	Question  string
	YesPrice  float64
	NoPrice   float64
	YesVolume float64
	NoVolume  float64
	Liquidity float64
	IsActive  bool
	IsClosed  bool
	FetchedAt time.Time
}

// Tradable reports whether the market can currently accept orders.
// A closed market is never active.
func (m MarketData) Tradable() bool {
	return m.IsActive && !m.IsClosed
}

// PricePoint records a single underlying-asset price observation.
type PricePoint struct {
	Price float64
	Time  time.Time
}

// BookLevel is a single price+size entry in a depth snapshot.
type BookLevel struct {
	Price float64
	Size  float64
}

// BookSnapshot is a depth snapshot of the underlying asset's order book.
type BookSnapshot struct {
	Symbol    string
	Bids      []BookLevel
	Asks      []BookLevel
	Timestamp time.Time
}

// BidVolume returns the aggregate bid size across all levels.
func (b BookSnapshot) BidVolume() float64 {
	var v float64
	for _, l := range b.Bids {
		v += l.Size
	}
	return v
}

// AskVolume returns the aggregate ask size across all levels.
func (b BookSnapshot) AskVolume() float64 {
	var v float64
	for _, l := range b.Asks {
		v += l.Size
	}
	return v
}
