package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/updownbot/internal/domain"
)

type postReply struct {
	result domain.OrderResult
	err    error
}

type statusReply struct {
	state domain.OrderState
	err   error
}

// fakeAPI replays scripted responses; the last entry repeats once the
// script runs out.
type fakeAPI struct {
	postReplies   []postReply
	postCalls     int
	statusReplies []statusReply
	statusCalls   int
}

func (f *fakeAPI) PostOrder(_ context.Context, _ domain.OrderRequest) (domain.OrderResult, error) {
	i := f.postCalls
	if i >= len(f.postReplies) {
		i = len(f.postReplies) - 1
	}
	f.postCalls++
	r := f.postReplies[i]
	return r.result, r.err
}

func (f *fakeAPI) GetOrderStatus(_ context.Context, _ string) (domain.OrderState, error) {
	i := f.statusCalls
	if i >= len(f.statusReplies) {
		i = len(f.statusReplies) - 1
	}
	f.statusCalls++
	r := f.statusReplies[i]
	return r.state, r.err
}

// fakeClock advances only when the engine sleeps, so polling timeouts can
// be exercised without real waiting.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) sleep(_ context.Context, d time.Duration) error {
	c.current = c.current.Add(d)
	return nil
}

func newTestEngine(api OrderAPI) (*Engine, *fakeClock) {
	e := NewEngine(api, Config{
		Retry: RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			MaxDelay:    5 * time.Millisecond,
			BackoffBase: 2.0,
		},
		SettlementTimeout: 5 * time.Minute,
		PollInterval:      5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	e.now = clock.now
	e.sleep = clock.sleep
	return e, clock
}

func marketOrder() domain.OrderRequest {
	return domain.OrderRequest{
		MarketID:  "m1",
		Side:      domain.OrderSideBuy,
		Outcome:   domain.OutcomeYes,
		Quantity:  20,
		OrderType: domain.OrderTypeMarket,
	}
}

// --- SubmitOrder ---

func TestSubmitOrderRetriesTransientFailures(t *testing.T) {
	api := &fakeAPI{postReplies: []postReply{
		{err: domain.ErrServer},
		{err: domain.ErrServer},
		{result: domain.OrderResult{OrderID: "ord-1", Status: domain.OrderStatusPending}},
	}}
	e, _ := newTestEngine(api)

	trade, err := e.SubmitOrder(context.Background(), marketOrder())
	require.NoError(t, err)
	assert.Equal(t, 3, api.postCalls)
	assert.Equal(t, "ord-1", trade.OrderID)
	assert.Equal(t, domain.TradeStatusPending, trade.Status)
	assert.NotEmpty(t, trade.ID)
}

func TestSubmitOrderDoesNotRetryClientErrors(t *testing.T) {
	api := &fakeAPI{postReplies: []postReply{{err: domain.ErrInvalidOrder}}}
	e, _ := newTestEngine(api)

	_, err := e.SubmitOrder(context.Background(), marketOrder())
	require.Error(t, err)
	assert.Equal(t, 1, api.postCalls)
	assert.True(t, errors.Is(err, domain.ErrOrderExecution))
	assert.True(t, errors.Is(err, domain.ErrInvalidOrder))
}

func TestSubmitOrderExhaustsRetries(t *testing.T) {
	api := &fakeAPI{postReplies: []postReply{{err: domain.ErrRateLimited}}}
	e, _ := newTestEngine(api)

	_, err := e.SubmitOrder(context.Background(), marketOrder())
	require.Error(t, err)
	assert.Equal(t, 3, api.postCalls)
	assert.True(t, errors.Is(err, domain.ErrOrderExecution))
}

func TestSubmitOrderRejectsInvalidRequest(t *testing.T) {
	api := &fakeAPI{postReplies: []postReply{{result: domain.OrderResult{OrderID: "ord-1"}}}}
	e, _ := newTestEngine(api)

	req := marketOrder()
	req.Quantity = 0
	_, err := e.SubmitOrder(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOrder))
	assert.Equal(t, 0, api.postCalls)
}

func TestSubmitOrderMissingOrderID(t *testing.T) {
	api := &fakeAPI{postReplies: []postReply{{result: domain.OrderResult{Status: domain.OrderStatusPending}}}}
	e, _ := newTestEngine(api)

	_, err := e.SubmitOrder(context.Background(), marketOrder())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrOrderExecution))
	assert.Contains(t, err.Error(), "missing order_id")
}

// --- PollSettlement ---

func TestPollSettlementReturnsSettledState(t *testing.T) {
	api := &fakeAPI{statusReplies: []statusReply{
		{state: domain.OrderState{Status: domain.OrderStatusPending}},
		{state: domain.OrderState{Status: domain.OrderStatusMatched}},
		{state: domain.OrderState{Status: domain.OrderStatusSettled, SettlementOutcome: "WIN"}},
	}}
	e, _ := newTestEngine(api)

	state, err := e.PollSettlement(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusSettled, state.Status)
	assert.Equal(t, 3, api.statusCalls)
}

func TestPollSettlementSurvivesTransientErrors(t *testing.T) {
	api := &fakeAPI{statusReplies: []statusReply{
		{err: domain.ErrServer},
		{state: domain.OrderState{Status: domain.OrderStatusSettled, SettlementOutcome: "LOSS"}},
	}}
	e, _ := newTestEngine(api)

	state, err := e.PollSettlement(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusSettled, state.Status)
}

func TestPollSettlementTimesOutOnWallClock(t *testing.T) {
	// The order never reaches a terminal state; the fake clock advances by
	// one poll interval per sleep until the 5 minute budget is spent.
	api := &fakeAPI{statusReplies: []statusReply{
		{state: domain.OrderState{Status: domain.OrderStatusMatched}},
	}}
	e, clock := newTestEngine(api)
	start := clock.current

	_, err := e.PollSettlement(context.Background(), "ord-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSettlementTimeout))
	assert.True(t, IsSettlementTimeout(err))
	assert.Equal(t, 5*time.Minute, clock.current.Sub(start))
}

func TestPollSettlementFailedOrder(t *testing.T) {
	api := &fakeAPI{statusReplies: []statusReply{
		{state: domain.OrderState{Status: domain.OrderStatusFailed}},
	}}
	e, _ := newTestEngine(api)

	state, err := e.PollSettlement(context.Background(), "ord-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSettlement))
	assert.False(t, IsSettlementTimeout(err))
	assert.Equal(t, domain.OrderStatusFailed, state.Status)
}

func TestPollSettlementCancelledOrderIsTerminal(t *testing.T) {
	api := &fakeAPI{statusReplies: []statusReply{
		{state: domain.OrderState{Status: domain.OrderStatusCancelled}},
	}}
	e, _ := newTestEngine(api)

	state, err := e.PollSettlement(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, state.Status)
}

// --- DetermineOutcome ---

func TestDetermineOutcomeExplicitWinsOverResolution(t *testing.T) {
	e, _ := newTestEngine(&fakeAPI{})
	trade := domain.Trade{Outcome: domain.OutcomeYes}

	state := domain.OrderState{SettlementOutcome: "LOSS", MarketResolution: "YES"}
	assert.Equal(t, domain.SettlementLoss, e.DetermineOutcome(trade, state))
}

func TestDetermineOutcomeFromMarketResolution(t *testing.T) {
	e, _ := newTestEngine(&fakeAPI{})

	yes := domain.Trade{Outcome: domain.OutcomeYes}
	no := domain.Trade{Outcome: domain.OutcomeNo}
	resolvedYes := domain.OrderState{MarketResolution: "YES"}

	assert.Equal(t, domain.SettlementWin, e.DetermineOutcome(yes, resolvedYes))
	assert.Equal(t, domain.SettlementLoss, e.DetermineOutcome(no, resolvedYes))
}

func TestDetermineOutcomeUnknownWhenNothingReported(t *testing.T) {
	e, _ := newTestEngine(&fakeAPI{})
	trade := domain.Trade{Outcome: domain.OutcomeYes}

	got := e.DetermineOutcome(trade, domain.OrderState{})
	assert.Equal(t, domain.SettlementUnknown, got)
	assert.NotEqual(t, domain.SettlementWin, got)
}

func TestDetermineOutcomeUnrecognizedExplicitValue(t *testing.T) {
	e, _ := newTestEngine(&fakeAPI{})
	trade := domain.Trade{Outcome: domain.OutcomeYes}

	state := domain.OrderState{SettlementOutcome: "VOIDED"}
	assert.Equal(t, domain.SettlementUnknown, e.DetermineOutcome(trade, state))
}

// --- TrackOrderLifecycle ---

func TestTrackOrderLifecycleWin(t *testing.T) {
	api := &fakeAPI{
		postReplies: []postReply{{result: domain.OrderResult{OrderID: "ord-1"}}},
		statusReplies: []statusReply{
			{state: domain.OrderState{Status: domain.OrderStatusMatched}},
			{state: domain.OrderState{
				Status:            domain.OrderStatusSettled,
				SettlementOutcome: "WIN",
				FilledAmount:      20,
				Fee:               0.1,
			}},
		},
	}
	e, _ := newTestEngine(api)

	committed := false
	result, err := e.TrackOrderLifecycle(context.Background(), marketOrder(), 0.5, func(trade domain.Trade) {
		committed = true
		assert.Equal(t, domain.TradeStatusPending, trade.Status)
	})

	require.NoError(t, err)
	assert.True(t, committed)
	assert.Equal(t, domain.SettlementWin, result.Outcome)
	assert.Equal(t, domain.TradeStatusExecuted, result.Trade.Status)
	assert.Equal(t, 20.0, result.Trade.FilledQuantity)
	assert.Equal(t, 0.1, result.Trade.Fee)
	require.NotNil(t, result.Position)
	assert.Equal(t, domain.PositionStatusClosed, result.Position.Status)
	require.NotNil(t, result.Position.RealizedPnL)
	// Bought 20 contracts at 0.5 that paid out 1 each.
	assert.InDelta(t, 10.0, *result.Position.RealizedPnL, 1e-9)
}

func TestTrackOrderLifecycleCancelledIsPush(t *testing.T) {
	api := &fakeAPI{
		postReplies: []postReply{{result: domain.OrderResult{OrderID: "ord-1"}}},
		statusReplies: []statusReply{
			{state: domain.OrderState{Status: domain.OrderStatusCancelled}},
		},
	}
	e, _ := newTestEngine(api)

	result, err := e.TrackOrderLifecycle(context.Background(), marketOrder(), 0.5, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementPush, result.Outcome)
	assert.Equal(t, domain.TradeStatusCancelled, result.Trade.Status)
	require.NotNil(t, result.Position.RealizedPnL)
	assert.Equal(t, 0.0, *result.Position.RealizedPnL)
}

func TestTrackOrderLifecycleTimeoutLeavesTradeIndeterminate(t *testing.T) {
	api := &fakeAPI{
		postReplies: []postReply{{result: domain.OrderResult{OrderID: "ord-1"}}},
		statusReplies: []statusReply{
			{state: domain.OrderState{Status: domain.OrderStatusMatched}},
		},
	}
	e, _ := newTestEngine(api)

	result, err := e.TrackOrderLifecycle(context.Background(), marketOrder(), 0.5, nil)
	require.Error(t, err)
	assert.True(t, IsSettlementTimeout(err))
	assert.Equal(t, domain.SettlementUnknown, result.Outcome)
	assert.Equal(t, domain.TradeStatusPending, result.Trade.Status)
	require.NotNil(t, result.Position)
	assert.Equal(t, domain.PositionStatusOpen, result.Position.Status)
}

func TestTrackOrderLifecycleFailedOrderReleases(t *testing.T) {
	api := &fakeAPI{
		postReplies: []postReply{{result: domain.OrderResult{OrderID: "ord-1"}}},
		statusReplies: []statusReply{
			{state: domain.OrderState{Status: domain.OrderStatusFailed}},
		},
	}
	e, _ := newTestEngine(api)

	result, err := e.TrackOrderLifecycle(context.Background(), marketOrder(), 0.5, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSettlement))
	assert.Equal(t, domain.SettlementPush, result.Outcome)
	assert.Equal(t, domain.TradeStatusCancelled, result.Trade.Status)
}

func TestTrackOrderLifecycleSubmitFailureSkipsCommit(t *testing.T) {
	api := &fakeAPI{postReplies: []postReply{{err: domain.ErrUnauthorized}}}
	e, _ := newTestEngine(api)

	committed := false
	_, err := e.TrackOrderLifecycle(context.Background(), marketOrder(), 0.5, func(domain.Trade) {
		committed = true
	})
	require.Error(t, err)
	assert.False(t, committed)
	assert.Equal(t, 0, api.statusCalls)
}

func TestTrackOrderLifecycleUndeterminableOutcomeErrors(t *testing.T) {
	api := &fakeAPI{
		postReplies: []postReply{{result: domain.OrderResult{OrderID: "ord-1"}}},
		statusReplies: []statusReply{
			{state: domain.OrderState{Status: domain.OrderStatusSettled}},
		},
	}
	e, _ := newTestEngine(api)

	result, err := e.TrackOrderLifecycle(context.Background(), marketOrder(), 0.5, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSettlement))
	assert.Equal(t, domain.SettlementUnknown, result.Outcome)
}

// --- Reconcile ---

func TestReconcileStillPending(t *testing.T) {
	api := &fakeAPI{statusReplies: []statusReply{
		{state: domain.OrderState{Status: domain.OrderStatusMatched}},
	}}
	e, _ := newTestEngine(api)

	_, done, err := e.Reconcile(context.Background(), domain.Trade{OrderID: "ord-1"}, domain.Position{})
	require.NoError(t, err)
	assert.False(t, done)
}

func TestReconcileFetchErrorRetriesLater(t *testing.T) {
	api := &fakeAPI{statusReplies: []statusReply{{err: domain.ErrServer}}}
	e, _ := newTestEngine(api)

	_, done, err := e.Reconcile(context.Background(), domain.Trade{OrderID: "ord-1"}, domain.Position{})
	require.NoError(t, err)
	assert.False(t, done)
}

func TestReconcileSettledWin(t *testing.T) {
	api := &fakeAPI{statusReplies: []statusReply{
		{state: domain.OrderState{Status: domain.OrderStatusSettled, SettlementOutcome: "WIN"}},
	}}
	e, _ := newTestEngine(api)

	trade := domain.Trade{
		OrderID:  "ord-1",
		Side:     domain.OrderSideBuy,
		Outcome:  domain.OutcomeYes,
		Quantity: 10,
		Status:   domain.TradeStatusPending,
	}
	pos := domain.Position{Quantity: 10, EntryPrice: 0.4, Status: domain.PositionStatusOpen}

	result, done, err := e.Reconcile(context.Background(), trade, pos)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, domain.SettlementWin, result.Outcome)
	assert.Equal(t, domain.TradeStatusExecuted, result.Trade.Status)
	require.NotNil(t, result.Position.RealizedPnL)
	assert.InDelta(t, 6.0, *result.Position.RealizedPnL, 1e-9)
}

func TestReconcileCancelledIsPush(t *testing.T) {
	api := &fakeAPI{statusReplies: []statusReply{
		{state: domain.OrderState{Status: domain.OrderStatusCancelled}},
	}}
	e, _ := newTestEngine(api)

	trade := domain.Trade{OrderID: "ord-1", Status: domain.TradeStatusPending}
	result, done, err := e.Reconcile(context.Background(), trade, domain.Position{EntryPrice: 0.5})
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, domain.SettlementPush, result.Outcome)
	assert.Equal(t, domain.TradeStatusCancelled, result.Trade.Status)
}

func TestReconcileUndeterminableOutcomeStaysOpen(t *testing.T) {
	api := &fakeAPI{statusReplies: []statusReply{
		{state: domain.OrderState{Status: domain.OrderStatusSettled}},
	}}
	e, _ := newTestEngine(api)

	trade := domain.Trade{
		OrderID: "ord-1",
		Outcome: domain.OutcomeYes,
		Status:  domain.TradeStatusPending,
	}
	pos := domain.Position{Quantity: 10, EntryPrice: 0.4, Status: domain.PositionStatusOpen}

	result, done, err := e.Reconcile(context.Background(), trade, pos)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSettlement))
	assert.False(t, done)
	assert.Equal(t, domain.SettlementUnknown, result.Outcome)
	assert.Equal(t, domain.TradeStatusPending, result.Trade.Status)
	assert.Equal(t, domain.PositionStatusOpen, result.Position.Status)
}
