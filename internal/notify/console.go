// Package notify reports session results to the operator. The console
// notifier prints an end-of-session summary table at shutdown.
package notify

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/alanyoungcy/updownbot/internal/domain"
)

// Console prints human-readable session reports to the given writer.
type Console struct {
	out io.Writer
}

// NewConsole creates a console notifier writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// SessionSummary prints the capital summary and one row per completed trade.
func (c *Console) SessionSummary(summary domain.SessionSummary, trades []domain.Trade) {
	fmt.Fprintf(c.out, "\n=== Session summary ===\n")
	fmt.Fprintf(c.out, "Starting capital: $%.2f\n", summary.StartingCapital)
	fmt.Fprintf(c.out, "Final capital:    $%.2f\n", summary.FinalCapital)
	fmt.Fprintf(c.out, "Peak capital:     $%.2f\n", summary.PeakCapital)
	fmt.Fprintf(c.out, "Total PnL:        $%+.2f\n", summary.TotalPnL)
	fmt.Fprintf(c.out, "Trades: %d (W %d / L %d / P %d)  Skips: %d  Risk rejections: %d\n\n",
		summary.TradesSubmitted, summary.Wins, summary.Losses, summary.Pushes,
		summary.Skips, summary.Rejections)

	if len(trades) == 0 {
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Order", "Side", "Outcome", "Qty", "Fee", "Status")

	for i, t := range trades {
		table.Append(
			fmt.Sprintf("%d", i+1),
			t.OrderID,
			string(t.Side),
			string(t.Outcome),
			fmt.Sprintf("%.2f", t.Quantity),
			fmt.Sprintf("$%.4f", t.Fee),
			string(t.Status),
		)
	}

	table.Render()
}
