// Package indicator computes the technical indicators the prediction engine
// consumes: Wilder RSI, MACD, and order-book imbalance. RSI and MACD are
// pure functions of their input series and never return a degraded value on
// short input.
package indicator

import (
	"fmt"

	"github.com/alanyoungcy/updownbot/internal/domain"
)

// RSI computes the Wilder Relative Strength Index over the last `period`
// deltas of the series. It requires len(prices) >= period+1 and returns a
// value in [0, 100]: 0 when every delta is a loss, 100 when every delta is
// a gain.
func RSI(prices []float64, period int) (float64, error) {
	if period < 1 {
		return 0, fmt.Errorf("indicator: rsi period must be >= 1, got %d", period)
	}
	if len(prices) < period+1 {
		return 0, fmt.Errorf("indicator: rsi needs %d prices, have %d: %w", period+1, len(prices), domain.ErrInsufficientData)
	}

	// Only the last period+1 prices contribute.
	window := prices[len(prices)-period-1:]

	var gains, losses float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		if avgGain == 0 {
			// Flat series: neither side dominates.
			return 50, nil
		}
		return 100, nil
	}
	if avgGain == 0 {
		return 0, nil
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}
