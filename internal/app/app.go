package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/updownbot/internal/config"
	"github.com/alanyoungcy/updownbot/internal/domain"
)

// App owns the long-running trading session: the streaming price feed and
// the periodic decision loop run as sibling goroutines, and the session
// summary is printed on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	deps    *Dependencies
	cleanup func()

	state   *domain.BotState
	summary domain.SessionSummary
	trades  []domain.Trade

	// pending holds a trade whose settlement poll timed out; it is
	// reconciled at the start of subsequent cycles.
	pending *pendingTrade
}

type pendingTrade struct {
	Trade    domain.Trade
	Position domain.Position
	Exposure float64
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	deps, cleanup, err := Wire(cfg, logger)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("app: wire dependencies: %w", err)
	}

	state := domain.NewBotState(cfg.Trading.StartingCapital)

	return &App{
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "app")),
		deps:    deps,
		cleanup: cleanup,
		state:   &state,
		summary: domain.SessionSummary{
			StartingCapital: cfg.Trading.StartingCapital,
			PeakCapital:     cfg.Trading.StartingCapital,
		},
	}, nil
}

// Run blocks until ctx is cancelled or a component fails fatally.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting trading session",
		slog.String("market_id", a.cfg.Trading.MarketID),
		slog.String("symbol", a.cfg.Feed.Symbol),
		slog.Float64("starting_capital", a.state.StartingCapital),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.deps.Feed.Run(gctx)
	})

	g.Go(func() error {
		return a.runDecisionLoop(gctx)
	})

	err := g.Wait()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("app: session aborted: %w", err)
	}
	return nil
}

// Close releases resources and prints the session summary.
func (a *App) Close() {
	a.summary.FinalCapital = a.state.CurrentCapital()
	a.summary.PeakCapital = a.state.PeakCapital
	a.summary.TotalPnL = a.state.TotalPnL
	a.deps.Notifier.SessionSummary(a.summary, a.trades)
	a.cleanup()
	a.logger.Info("session closed",
		slog.Float64("final_capital", a.summary.FinalCapital),
		slog.Float64("total_pnl", a.summary.TotalPnL),
	)
}
