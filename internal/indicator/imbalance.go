package indicator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/updownbot/internal/domain"
)

// NeutralImbalance is the value callers substitute when the book is
// unavailable and they choose not to fail the cycle.
const NeutralImbalance = 1.0

// BookProvider fetches a depth snapshot of the underlying asset's order
// book. It is implemented by the binance depth client.
type BookProvider interface {
	GetDepth(ctx context.Context, symbol string, limit int) (domain.BookSnapshot, error)
}

// Imbalance computes the bid/ask volume ratio from a depth snapshot. A
// snapshot with zero ask volume is unusable and reported as such rather
// than producing an infinite ratio.
func Imbalance(snap domain.BookSnapshot) (float64, error) {
	askVol := snap.AskVolume()
	if askVol == 0 {
		return 0, fmt.Errorf("indicator: ask volume is zero: %w", domain.ErrBookUnavailable)
	}
	return snap.BidVolume() / askVol, nil
}

// BookImbalance fetches a depth snapshot through the provider and computes
// the imbalance for the symbol.
type BookImbalance struct {
	books  BookProvider
	limit  int
	logger *slog.Logger
}

// NewBookImbalance creates an imbalance reader fetching `limit` levels per
// side.
func NewBookImbalance(books BookProvider, limit int, logger *slog.Logger) *BookImbalance {
	return &BookImbalance{
		books:  books,
		limit:  limit,
		logger: logger.With(slog.String("component", "book_imbalance")),
	}
}

// Get returns the current bid/ask volume ratio for symbol. Fetch failures
// and empty ask sides surface as domain.ErrBookUnavailable; callers decide
// whether to substitute NeutralImbalance or fail the cycle.
func (b *BookImbalance) Get(ctx context.Context, symbol string) (float64, error) {
	snap, err := b.books.GetDepth(ctx, symbol, b.limit)
	if err != nil {
		b.logger.Warn("depth fetch failed", slog.String("symbol", symbol), slog.String("error", err.Error()))
		return 0, fmt.Errorf("indicator: fetch depth: %w", err)
	}
	return Imbalance(snap)
}
