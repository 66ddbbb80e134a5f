package binance

import (
	"strconv"
	"time"

	"github.com/alanyoungcy/updownbot/internal/domain"
)

// WSCommand is the subscribe/unsubscribe frame sent to the stream endpoint.
type WSCommand struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

// KlineMessage is the envelope of a kline/candlestick stream event.
// Unknown fields are ignored by the JSON decoder.
type KlineMessage struct {
	EventType string       `json:"e"`
	EventTime int64        `json:"E"` // milliseconds
	Symbol    string       `json:"s"`
	Kline     KlinePayload `json:"k"`
}

// KlinePayload is the candle body inside a kline event. Prices arrive as
// decimal strings.
type KlinePayload struct {
	StartTime int64  `json:"t"`
	CloseTime int64  `json:"T"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	Close     string `json:"c"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Volume    string `json:"v"`
	Closed    bool   `json:"x"`
}

// Tick extracts the (symbol, close price, event time) triple the feed cares
// about. It returns false for frames with a missing symbol or an unparseable
// close price.
func (m *KlineMessage) Tick() (symbol string, point domain.PricePoint, ok bool) {
	if m.Symbol == "" {
		return "", domain.PricePoint{}, false
	}
	price, err := strconv.ParseFloat(m.Kline.Close, 64)
	if err != nil || price <= 0 {
		return "", domain.PricePoint{}, false
	}
	return m.Symbol, domain.PricePoint{
		Price: price,
		Time:  time.UnixMilli(m.EventTime),
	}, true
}

// DepthResponse is the REST depth-snapshot payload. Levels arrive as
// [price, quantity] string pairs.
type DepthResponse struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Bids         [][2]string `json:"bids"`
	Asks         [][2]string `json:"asks"`
}

// ToDomainSnapshot converts the wire depth payload into a domain snapshot,
// dropping levels that fail to parse.
func (d *DepthResponse) ToDomainSnapshot(symbol string) domain.BookSnapshot {
	snap := domain.BookSnapshot{
		Symbol:    symbol,
		Bids:      parseLevels(d.Bids),
		Asks:      parseLevels(d.Asks),
		Timestamp: time.Now().UTC(),
	}
	return snap
}

func parseLevels(raw [][2]string) []domain.BookLevel {
	levels := make([]domain.BookLevel, 0, len(raw))
	for _, pair := range raw {
		price, err := strconv.ParseFloat(pair[0], 64)
		if err != nil {
			continue
		}
		size, err := strconv.ParseFloat(pair[1], 64)
		if err != nil {
			continue
		}
		levels = append(levels, domain.BookLevel{Price: price, Size: size})
	}
	return levels
}
