package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrRateLimited       = errors.New("rate limited")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrServer            = errors.New("server error")
	ErrTimeout           = errors.New("request timed out")
	ErrInvalidOrder      = errors.New("invalid order parameters")
	ErrInsufficientData  = errors.New("insufficient data")
	ErrNoData            = errors.New("no data available")
	ErrBookUnavailable   = errors.New("order book unavailable")
	ErrOrderExecution    = errors.New("order execution failed")
	ErrSettlement        = errors.New("order settlement failed")
	ErrSettlementTimeout = errors.New("settlement polling timed out")
	ErrPrediction        = errors.New("prediction failed")
	ErrWSDisconnect      = errors.New("websocket disconnected")
)

// Retryable reports whether an API error is transient and worth retrying.
// Rate limits, server-side failures, and timeouts qualify; validation and
// auth failures never do.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrServer) ||
		errors.Is(err, ErrTimeout)
}
