package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/updownbot/internal/domain"
)

func newTestFeed(t *testing.T) *PriceFeed {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPriceFeed("wss://example.invalid/ws", "btcusdt", "1m", 100, logger)
}

func TestLatestPriceNoData(t *testing.T) {
	f := newTestFeed(t)

	_, err := f.LatestPrice()
	assert.True(t, errors.Is(err, domain.ErrNoData))
}

func TestHandleTickFiltersOtherSymbols(t *testing.T) {
	f := newTestFeed(t)

	f.handleTick("ETHUSDT", point(2000, 1))
	assert.Equal(t, 0, f.Len())

	f.handleTick("BTCUSDT", point(65000, 2))
	f.handleTick("btcusdt", point(65001, 3))
	require.Equal(t, 2, f.Len())

	price, err := f.LatestPrice()
	require.NoError(t, err)
	assert.Equal(t, 65001.0, price)
}

func TestHealthy(t *testing.T) {
	f := newTestFeed(t)

	// Not connected, no data.
	assert.False(t, f.Healthy(time.Minute))

	f.setConnected(true)
	// Connected but no tick yet.
	assert.False(t, f.Healthy(time.Minute))

	f.handleTick("BTCUSDT", point(65000, 1))
	assert.True(t, f.Healthy(time.Minute))

	f.setConnected(false)
	assert.False(t, f.Healthy(time.Minute))
}

func TestCloseIsIdempotent(t *testing.T) {
	f := newTestFeed(t)
	f.Close()
	f.Close()
}

func TestRunTracksDisconnect(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}

		frame := []byte(`{"e":"kline","E":1700000000000,"s":"BTCUSDT","k":{"c":"65000.50","x":false}}`)
		for {
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := NewPriceFeed("ws"+strings.TrimPrefix(srv.URL, "http"), "BTCUSDT", "1m", 100, logger)
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = f.Run(ctx) }()

	// A generous max age keeps staleness out of the picture; only the
	// connection state drives the transitions below.
	assert.Eventually(t, func() bool { return f.Healthy(time.Minute) }, 3*time.Second, 20*time.Millisecond)

	// Kill the server: the feed must notice the dead stream even while the
	// last tick is still fresh.
	srv.CloseClientConnections()
	srv.Close()
	assert.Eventually(t, func() bool { return !f.Healthy(time.Minute) }, 3*time.Second, 20*time.Millisecond)
}
