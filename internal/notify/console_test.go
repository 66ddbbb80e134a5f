package notify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/updownbot/internal/domain"
)

func TestSessionSummaryPrintsCapitalAndTrades(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	summary := domain.SessionSummary{
		StartingCapital: 1000,
		FinalCapital:    1012.5,
		PeakCapital:     1020,
		TotalPnL:        12.5,
		TradesSubmitted: 2,
		Wins:            1,
		Losses:          1,
	}
	trades := []domain.Trade{
		{OrderID: "ord-1", Side: domain.OrderSideBuy, Outcome: domain.OutcomeYes, Quantity: 20, Fee: 0.05, Status: domain.TradeStatusExecuted},
		{OrderID: "ord-2", Side: domain.OrderSideBuy, Outcome: domain.OutcomeNo, Quantity: 10, Fee: 0.02, Status: domain.TradeStatusExecuted},
	}

	c.SessionSummary(summary, trades)
	out := buf.String()

	assert.Contains(t, out, "Starting capital: $1000.00")
	assert.Contains(t, out, "Final capital:    $1012.50")
	assert.Contains(t, out, "Total PnL:        $+12.50")
	assert.Contains(t, out, "ord-1")
	assert.Contains(t, out, "ord-2")
	assert.Contains(t, out, "YES")
	assert.Contains(t, out, "EXECUTED")
}

func TestSessionSummaryNoTradesOmitsTable(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.SessionSummary(domain.SessionSummary{StartingCapital: 1000, FinalCapital: 1000}, nil)
	out := buf.String()

	assert.Contains(t, out, "Session summary")
	assert.NotContains(t, out, "Order")
}
