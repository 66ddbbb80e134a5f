// Package feed maintains a live, bounded series of underlying-asset prices
// from the kline WebSocket stream.
package feed

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/updownbot/internal/domain"
	"github.com/alanyoungcy/updownbot/internal/platform/binance"
)

// PriceFeed subscribes to the kline stream for one symbol and appends each
// tick to a bounded price series. The series survives reconnects; only the
// process losing the stream entirely marks the feed unhealthy.
type PriceFeed struct {
	wsURL    string
	symbol   string
	interval string
	series   *PriceSeries
	logger   *slog.Logger

	mu          sync.RWMutex
	connected   bool
	lastArrival time.Time

	closeOnce sync.Once
	done      chan struct{}
}

// NewPriceFeed creates a feed for the given symbol and kline interval,
// buffering at most bufferSize prices.
func NewPriceFeed(wsURL, symbol, interval string, bufferSize int, logger *slog.Logger) *PriceFeed {
	return &PriceFeed{
		wsURL:    wsURL,
		symbol:   strings.ToUpper(symbol),
		interval: interval,
		series:   NewPriceSeries(bufferSize),
		logger:   logger.With(slog.String("component", "price_feed")),
		done:     make(chan struct{}),
	}
}

// Run connects, subscribes to the configured kline stream, and runs until
// ctx is cancelled. Connection attempts that fail are retried with the
// client's exponential backoff; the price buffer is preserved across
// reconnects.
func (f *PriceFeed) Run(ctx context.Context) error {
	client := binance.NewWSClient(f.wsURL)
	defer client.Close()

	client.OnTick(f.handleTick)
	client.OnStateChange(f.setConnected)

	connCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err := client.Connect(connCtx)
	cancel()
	if err != nil {
		return err
	}

	if err := client.SubscribeKlines(ctx, f.symbol, f.interval); err != nil {
		return err
	}

	defer f.setConnected(false)
	f.logger.Info("price feed subscribed",
		slog.String("symbol", f.symbol),
		slog.String("interval", f.interval),
	)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.done:
		return nil
	}
}

// Close stops the feed.
func (f *PriceFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}

// LatestPrice returns the most recent price, or domain.ErrNoData when no
// tick has arrived yet.
func (f *PriceFeed) LatestPrice() (float64, error) {
	p, ok := f.series.Latest()
	if !ok {
		return 0, domain.ErrNoData
	}
	return p.Price, nil
}

// History returns up to limit most recent prices, oldest first. It never
// blocks on the feed goroutine.
func (f *PriceFeed) History(limit int) []float64 {
	return f.series.History(limit)
}

// Len returns the number of buffered prices.
func (f *PriceFeed) Len() int {
	return f.series.Len()
}

// Healthy reports whether the feed is connected and has received a tick
// within maxAge.
func (f *PriceFeed) Healthy(maxAge time.Duration) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.connected {
		return false
	}
	if f.lastArrival.IsZero() {
		return false
	}
	return time.Since(f.lastArrival) <= maxAge
}

// handleTick appends a parsed tick for our symbol and records the arrival
// time. Ticks for other symbols are ignored.
func (f *PriceFeed) handleTick(symbol string, point domain.PricePoint) {
	if !strings.EqualFold(symbol, f.symbol) {
		return
	}

	f.series.Append(point)

	f.mu.Lock()
	f.lastArrival = time.Now()
	f.mu.Unlock()

	f.logger.Debug("tick",
		slog.Float64("price", point.Price),
		slog.Time("event_time", point.Time),
	)
}

func (f *PriceFeed) setConnected(v bool) {
	f.mu.Lock()
	f.connected = v
	f.mu.Unlock()
}
