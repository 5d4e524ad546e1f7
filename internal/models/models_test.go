package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSetHoldingRemovesZeroEntries(t *testing.T) {
	acct := NewAccount(uuid.New(), decimal.RequireFromString("100"))

	acct.SetHolding("AAPL", 10)
	assert.Equal(t, int64(10), acct.Holding("AAPL"))

	acct.SetHolding("AAPL", 0)
	_, present := acct.Holdings["AAPL"]
	assert.False(t, present, "zero holdings must not be retained")

	assert.Equal(t, int64(0), acct.Holding("MSFT"))
}

func TestReplaceWithIsWholesale(t *testing.T) {
	acct := NewAccount(uuid.New(), decimal.RequireFromString("50"))
	acct.SetHolding("TSLA", 3)

	remote := NewAccount(acct.UserID, decimal.RequireFromString("9500.25"))
	remote.SetHolding("AAPL", 7)

	acct.ReplaceWith(remote)

	assert.True(t, acct.CashBalance.Equal(decimal.RequireFromString("9500.25")))
	assert.Equal(t, int64(7), acct.Holding("AAPL"))
	assert.Equal(t, int64(0), acct.Holding("TSLA"), "local-only holdings are dropped")
}

func TestCloneIsIndependent(t *testing.T) {
	acct := NewAccount(uuid.New(), decimal.RequireFromString("100"))
	acct.SetHolding("NVDA", 2)

	clone := acct.Clone()
	clone.CashBalance = decimal.Zero
	clone.SetHolding("NVDA", 99)

	assert.True(t, acct.CashBalance.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, int64(2), acct.Holding("NVDA"))
}

func TestOrderTotalCost(t *testing.T) {
	order := &Order{
		Price: decimal.RequireFromString("174.79"),
		Size:  10,
	}
	assert.True(t, order.TotalCost().Equal(decimal.RequireFromString("1747.90")))
}
