package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/papertrade/internal/models"
)

func completedOrder(side models.Side, ticker, price string, size int64) *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		Ticker:        ticker,
		Side:          side,
		ExecutionType: models.Market,
		Price:         decimal.RequireFromString(price),
		Size:          size,
		Status:        models.StatusCompleted,
	}
}

func TestApplyBuyDebitsCashCreditsHolding(t *testing.T) {
	engine := NewSettlementEngine()
	acct := freshAccount("10000.00")
	order := completedOrder(models.Buy, "AAPL", "174.79", 10)

	require.NoError(t, engine.Apply(acct, order))

	assert.True(t, acct.CashBalance.Equal(decimal.RequireFromString("8252.10")))
	assert.Equal(t, int64(10), acct.Holding("AAPL"))
	assert.True(t, engine.Settled(order.ID))
}

func TestApplySellCreditsCashRemovesEmptyHolding(t *testing.T) {
	engine := NewSettlementEngine()
	acct := freshAccount("8252.10")
	acct.SetHolding("AAPL", 10)

	order := completedOrder(models.Sell, "AAPL", "174.79", 10)
	require.NoError(t, engine.Apply(acct, order))

	assert.True(t, acct.CashBalance.Equal(decimal.RequireFromString("10000.00")))
	_, present := acct.Holdings["AAPL"]
	assert.False(t, present, "a holding sold to zero is removed, not retained")
}

func TestApplyRejectsNonCompletedOrder(t *testing.T) {
	engine := NewSettlementEngine()
	acct := freshAccount("10000.00")

	order := completedOrder(models.Buy, "AAPL", "174.79", 1)
	order.Status = models.StatusInProgress

	assert.ErrorIs(t, engine.Apply(acct, order), models.ErrIllegalTransition)
	assert.True(t, acct.CashBalance.Equal(decimal.RequireFromString("10000.00")))
	assert.False(t, engine.Settled(order.ID))
}

func TestApplyDuplicateIsRejectedAndHarmless(t *testing.T) {
	engine := NewSettlementEngine()
	acct := freshAccount("10000.00")
	order := completedOrder(models.Buy, "AAPL", "174.79", 10)

	require.NoError(t, engine.Apply(acct, order))
	balanceAfterFirst := acct.CashBalance
	holdingAfterFirst := acct.Holding("AAPL")

	// At-least-once delivery hands the same completion over again.
	err := engine.Apply(acct, order)
	assert.ErrorIs(t, err, models.ErrDuplicateSettlement)
	assert.True(t, acct.CashBalance.Equal(balanceAfterFirst))
	assert.Equal(t, holdingAfterFirst, acct.Holding("AAPL"))
}

func TestMarkSettledSkipsApplication(t *testing.T) {
	engine := NewSettlementEngine()
	acct := freshAccount("10000.00")
	order := completedOrder(models.Buy, "AAPL", "174.79", 10)

	// The account snapshot already reflects this order; record it without
	// applying.
	engine.MarkSettled(order.ID)

	assert.ErrorIs(t, engine.Apply(acct, order), models.ErrDuplicateSettlement)
	assert.True(t, acct.CashBalance.Equal(decimal.RequireFromString("10000.00")))
}

func TestApplyBuySellRoundTripRestoresBalance(t *testing.T) {
	engine := NewSettlementEngine()
	acct := freshAccount("10000.00")

	buy := completedOrder(models.Buy, "TSLA", "177.56", 5)
	sell := completedOrder(models.Sell, "TSLA", "177.56", 5)

	require.NoError(t, engine.Apply(acct, buy))
	require.NoError(t, engine.Apply(acct, sell))

	assert.True(t, acct.CashBalance.Equal(decimal.RequireFromString("10000.00")),
		"buying and selling at the same price is exactly neutral")
	assert.Empty(t, acct.Holdings)
}
