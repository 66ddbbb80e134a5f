package binance

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKlineMessageTick(t *testing.T) {
	raw := `{
		"e": "kline",
		"E": 1700000000000,
		"s": "BTCUSDT",
		"k": {
			"t": 1699999940000,
			"T": 1700000000000,
			"i": "1m",
			"o": "64990.10",
			"c": "65000.50",
			"h": "65010.00",
			"l": "64980.00",
			"v": "12.5",
			"x": false
		}
	}`

	var msg KlineMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))

	symbol, point, ok := msg.Tick()
	require.True(t, ok)
	assert.Equal(t, "BTCUSDT", symbol)
	assert.Equal(t, 65000.50, point.Price)
	assert.Equal(t, time.UnixMilli(1700000000000), point.Time)
}

func TestKlineMessageTickDropsBadFrames(t *testing.T) {
	cases := []struct {
		name string
		msg  KlineMessage
	}{
		{"missing symbol", KlineMessage{Kline: KlinePayload{Close: "100"}}},
		{"unparseable close", KlineMessage{Symbol: "BTCUSDT", Kline: KlinePayload{Close: "abc"}}},
		{"empty close", KlineMessage{Symbol: "BTCUSDT"}},
		{"non-positive close", KlineMessage{Symbol: "BTCUSDT", Kline: KlinePayload{Close: "0"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, ok := tc.msg.Tick()
			assert.False(t, ok)
		})
	}
}

func TestDepthResponseToDomainSnapshot(t *testing.T) {
	d := DepthResponse{
		LastUpdateID: 42,
		Bids:         [][2]string{{"0.50", "100"}, {"0.49", "50"}},
		Asks:         [][2]string{{"0.51", "60"}, {"0.52", "40"}},
	}

	snap := d.ToDomainSnapshot("BTCUSDT")
	assert.Equal(t, "BTCUSDT", snap.Symbol)
	require.Len(t, snap.Bids, 2)
	require.Len(t, snap.Asks, 2)
	assert.Equal(t, 0.50, snap.Bids[0].Price)
	assert.Equal(t, 100.0, snap.Bids[0].Size)
	assert.Equal(t, 150.0, snap.BidVolume())
	assert.Equal(t, 100.0, snap.AskVolume())
	assert.False(t, snap.Timestamp.IsZero())
}

func TestDepthResponseSkipsUnparseableLevels(t *testing.T) {
	d := DepthResponse{
		Bids: [][2]string{{"garbage", "100"}, {"0.49", "garbage"}, {"0.48", "25"}},
	}

	snap := d.ToDomainSnapshot("BTCUSDT")
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, 0.48, snap.Bids[0].Price)
}
