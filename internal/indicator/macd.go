package indicator

import (
	"fmt"

	"github.com/alanyoungcy/updownbot/internal/domain"
)

// MACD computes the Moving Average Convergence Divergence of the series and
// returns the latest (macd line, signal line) pair.
//
// The MACD line is EMA(fast) - EMA(slow); the signal line is an EMA over the
// MACD line with the signal period. Each EMA uses multiplier 2/(period+1)
// and is seeded with a simple average of its first `period` inputs. The
// series must contain at least slow+signal prices.
func MACD(prices []float64, fast, slow, signal int) (macdLine, signalLine float64, err error) {
	if fast < 1 || slow < 1 || signal < 1 {
		return 0, 0, fmt.Errorf("indicator: macd periods must be >= 1 (fast=%d slow=%d signal=%d)", fast, slow, signal)
	}
	if fast >= slow {
		return 0, 0, fmt.Errorf("indicator: macd fast period %d must be less than slow period %d", fast, slow)
	}
	if len(prices) < slow+signal {
		return 0, 0, fmt.Errorf("indicator: macd needs %d prices, have %d: %w", slow+signal, len(prices), domain.ErrInsufficientData)
	}

	fastEMA := emaSeries(prices, fast)
	slowEMA := emaSeries(prices, slow)

	// Both series end at the last price; align their tails. The MACD line
	// exists from the point the slow EMA is defined.
	offset := len(fastEMA) - len(slowEMA)
	macd := make([]float64, len(slowEMA))
	for i := range slowEMA {
		macd[i] = fastEMA[i+offset] - slowEMA[i]
	}

	signalEMA := emaSeries(macd, signal)

	return macd[len(macd)-1], signalEMA[len(signalEMA)-1], nil
}

// emaSeries computes the exponential moving average of values with the
// given period. The first output is a simple average of the first `period`
// inputs; each subsequent output folds in one more value with multiplier
// 2/(period+1). The caller guarantees len(values) >= period.
func emaSeries(values []float64, period int) []float64 {
	k := 2.0 / (float64(period) + 1)

	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, seed)

	ema := seed
	for _, v := range values[period:] {
		ema = v*k + ema*(1-k)
		out = append(out, ema)
	}
	return out
}
