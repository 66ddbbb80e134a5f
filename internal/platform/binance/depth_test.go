package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/updownbot/internal/domain"
)

func TestGetDepth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/depth", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))

		w.Write([]byte(`{
			"lastUpdateId": 1,
			"bids": [["65000.00", "1.5"], ["64999.00", "2.0"]],
			"asks": [["65001.00", "1.0"]]
		}`))
	}))
	defer srv.Close()

	snap, err := NewDepthClient(srv.URL).GetDepth(context.Background(), "BTCUSDT", 20)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", snap.Symbol)
	assert.Equal(t, 3.5, snap.BidVolume())
	assert.Equal(t, 1.0, snap.AskVolume())
}

func TestGetDepthNon200IsBookUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	_, err := NewDepthClient(srv.URL).GetDepth(context.Background(), "BTCUSDT", 20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBookUnavailable))
}

func TestGetDepthConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := NewDepthClient(srv.URL).GetDepth(context.Background(), "BTCUSDT", 20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBookUnavailable))
}
