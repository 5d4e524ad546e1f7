package session

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/papertrade/internal/ledger"
	"github.com/user/papertrade/internal/models"
	"github.com/user/papertrade/internal/remote"
	"github.com/user/papertrade/internal/remote/mock"
)

func remoteSubmit(userID uuid.UUID, ticker, side, price string, size int64) remote.SubmitRequest {
	p := decimal.RequireFromString(price)
	return remote.SubmitRequest{
		UserID:        userID,
		Ticker:        ticker,
		Side:          side,
		ExecutionType: "market",
		Price:         p,
		Size:          size,
		TotalAmount:   p.Mul(decimal.NewFromInt(size)),
	}
}

func newFixture(t *testing.T, balance string) (*Session, *mock.Remote) {
	t.Helper()
	userID := uuid.New()
	backend := mock.New(userID, decimal.RequireFromString(balance))
	sess := New(userID, backend, zap.NewNop())
	require.NoError(t, sess.Refresh(context.Background()))
	return sess, backend
}

func marketBuy(ticker string, size int64) ledger.Proposal {
	return ledger.Proposal{
		Ticker:        ticker,
		Side:          models.Buy,
		ExecutionType: models.Market,
		Size:          size,
	}
}

func marketSell(ticker string, size int64) ledger.Proposal {
	return ledger.Proposal{
		Ticker:        ticker,
		Side:          models.Sell,
		ExecutionType: models.Market,
		Size:          size,
	}
}

func TestInitialRefreshPullsBalance(t *testing.T) {
	sess, _ := newFixture(t, "10000.00")
	acct := sess.Account()
	assert.True(t, acct.CashBalance.Equal(decimal.RequireFromString("10000.00")))
	assert.Empty(t, acct.Holdings)
}

func TestSubmitOrderResolvesMarketPrice(t *testing.T) {
	sess, _ := newFixture(t, "10000.00")

	order, err := sess.SubmitOrder(context.Background(), marketBuy("AAPL", 10))
	require.NoError(t, err)

	assert.True(t, order.Price.Equal(decimal.RequireFromString("174.79")))
	assert.Equal(t, models.StatusProcessing, order.Status)

	// Admission reserves nothing locally; the balance moves at settlement.
	assert.True(t, sess.Account().CashBalance.Equal(decimal.RequireFromString("10000.00")))
}

func TestSubmitOrderRejectsUnknownTicker(t *testing.T) {
	sess, _ := newFixture(t, "10000.00")

	_, err := sess.SubmitOrder(context.Background(), marketBuy("ENRON", 1))
	assert.ErrorIs(t, err, models.ErrInvalidOrder)
	assert.Empty(t, sess.Orders())
}

func TestSubmitOrderRollsBackOnPushFailure(t *testing.T) {
	sess, backend := newFixture(t, "10000.00")
	backend.FailSubmissions(assert.AnError)

	_, err := sess.SubmitOrder(context.Background(), marketBuy("AAPL", 10))
	assert.ErrorIs(t, err, models.ErrRemoteUnavailable)

	// The optimistic order never happened.
	assert.Empty(t, sess.Orders())
	assert.True(t, sess.Account().CashBalance.Equal(decimal.RequireFromString("10000.00")))

	// The backend recovers and the same order goes through.
	backend.FailSubmissions(nil)
	_, err = sess.SubmitOrder(context.Background(), marketBuy("AAPL", 10))
	assert.NoError(t, err)
	assert.Len(t, sess.Orders(), 1)
}

func TestSubmitOrderSurfacesStructuredRejection(t *testing.T) {
	sess, backend := newFixture(t, "10000.00")
	backend.FailSubmissions(models.ErrInsufficientFunds)

	_, err := sess.SubmitOrder(context.Background(), marketBuy("AAPL", 10))
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Empty(t, sess.Orders())
}

func TestBuyLifecycleSettlesOnce(t *testing.T) {
	sess, backend := newFixture(t, "10000.00")
	ctx := context.Background()

	order, err := sess.SubmitOrder(ctx, marketBuy("AAPL", 10))
	require.NoError(t, err)

	require.NoError(t, backend.Fill(order.ID))
	require.NoError(t, sess.Refresh(ctx))

	acct := sess.Account()
	assert.True(t, acct.CashBalance.Equal(decimal.RequireFromString("8252.10")))
	assert.Equal(t, int64(10), acct.Holding("AAPL"))
	assert.Equal(t, models.StatusCompleted, sess.Orders()[0].Status)

	// Repeated refreshes deliver the same completion again; the balance
	// must not move.
	require.NoError(t, sess.Refresh(ctx))
	require.NoError(t, sess.Refresh(ctx))
	acct = sess.Account()
	assert.True(t, acct.CashBalance.Equal(decimal.RequireFromString("8252.10")))
	assert.Equal(t, int64(10), acct.Holding("AAPL"))
}

func TestSellToZeroRemovesHolding(t *testing.T) {
	sess, backend := newFixture(t, "10000.00")
	ctx := context.Background()

	buy, err := sess.SubmitOrder(ctx, marketBuy("TSLA", 5))
	require.NoError(t, err)
	require.NoError(t, backend.Fill(buy.ID))
	require.NoError(t, sess.Refresh(ctx))

	sell, err := sess.SubmitOrder(ctx, marketSell("TSLA", 5))
	require.NoError(t, err)
	require.NoError(t, backend.Fill(sell.ID))
	require.NoError(t, sess.Refresh(ctx))

	acct := sess.Account()
	assert.True(t, acct.CashBalance.Equal(decimal.RequireFromString("10000.00")))
	_, present := acct.Holdings["TSLA"]
	assert.False(t, present)
}

func TestSellWithoutHoldingsRejectedLocally(t *testing.T) {
	sess, _ := newFixture(t, "10000.00")

	_, err := sess.SubmitOrder(context.Background(), marketSell("TSLA", 5))
	assert.ErrorIs(t, err, models.ErrInsufficientHoldings)
	assert.Empty(t, sess.Orders())
}

func TestRefreshIsRemoteWins(t *testing.T) {
	sess, backend := newFixture(t, "10000.00")
	ctx := context.Background()

	// The backend fills an order this session never saw in flight, as if
	// another device placed and completed it.
	_, err := backend.SubmitOrder(ctx, remoteSubmit(sess.UserID(), "MSFT", "buy", "416.38", 2))
	require.NoError(t, err)
	require.NoError(t, backend.FillAll())

	require.NoError(t, sess.Refresh(ctx))

	acct := sess.Account()
	assert.True(t, acct.CashBalance.Equal(decimal.RequireFromString("9167.24")))
	assert.Equal(t, int64(2), acct.Holding("MSFT"))

	// The history order is adopted as Completed but not re-applied on top
	// of the pulled balance.
	orders := sess.CompletedOrders()
	require.Len(t, orders, 1)
	require.NoError(t, sess.Refresh(ctx))
	assert.True(t, sess.Account().CashBalance.Equal(decimal.RequireFromString("9167.24")))
}

func TestOrdersByStatusViews(t *testing.T) {
	sess, backend := newFixture(t, "100000.00")
	ctx := context.Background()

	first, err := sess.SubmitOrder(ctx, marketBuy("AAPL", 1))
	require.NoError(t, err)
	second, err := sess.SubmitOrder(ctx, marketBuy("NVDA", 1))
	require.NoError(t, err)

	require.NoError(t, backend.Acknowledge(first.ID))
	require.NoError(t, sess.Refresh(ctx))

	assert.Len(t, sess.OrdersByStatus(models.StatusInProgress), 1)
	assert.Len(t, sess.OrdersByStatus(models.StatusProcessing), 1)
	assert.Empty(t, sess.CompletedOrders())

	require.NoError(t, backend.Execute(first.ID))
	require.NoError(t, backend.Fill(second.ID))
	require.NoError(t, sess.Refresh(ctx))

	assert.Len(t, sess.CompletedOrders(), 2)
}

func TestPreviewHasNoSideEffects(t *testing.T) {
	sess, _ := newFixture(t, "10000.00")

	p := marketBuy("AAPL", 10)
	p.Price = decimal.RequireFromString("174.79")
	assert.NoError(t, sess.Preview(p))
	assert.NoError(t, sess.Preview(p))
	assert.Empty(t, sess.Orders())
}

func TestRefreshFailureLeavesStateIntact(t *testing.T) {
	sess, backend := newFixture(t, "10000.00")
	ctx := context.Background()

	order, err := sess.SubmitOrder(ctx, marketBuy("AAPL", 10))
	require.NoError(t, err)
	require.NoError(t, backend.Fill(order.ID))
	require.NoError(t, sess.Refresh(ctx))

	// A refresh against the wrong user fails; local state stands.
	stranger := New(uuid.New(), backend, zap.NewNop())
	err = stranger.Refresh(ctx)
	assert.ErrorIs(t, err, models.ErrRemoteUnavailable)

	acct := sess.Account()
	assert.True(t, acct.CashBalance.Equal(decimal.RequireFromString("8252.10")))
	assert.Equal(t, int64(10), acct.Holding("AAPL"))
}
