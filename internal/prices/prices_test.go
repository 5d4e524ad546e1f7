package prices

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/papertrade/internal/models"
)

func TestReferenceKnownTicker(t *testing.T) {
	price, err := Reference("AAPL")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("174.79")))
}

func TestReferenceUnknownTicker(t *testing.T) {
	_, err := Reference("ENRON")
	assert.ErrorIs(t, err, models.ErrUnknownTicker)
}

func TestSourceSeedsFromReference(t *testing.T) {
	source := NewSource(zap.NewNop())

	for _, ticker := range Symbols() {
		price, err := source.Price(ticker)
		require.NoError(t, err)
		ref, _ := Reference(ticker)
		assert.True(t, price.Equal(ref))
	}

	_, err := source.Price("ENRON")
	assert.ErrorIs(t, err, models.ErrUnknownTicker)
}

func TestTickDriftIsBoundedAndPositive(t *testing.T) {
	source := NewSource(zap.NewNop())

	for i := 0; i < 50; i++ {
		source.tick()
	}

	for ticker, ref := range referencePrices {
		price, err := source.Price(ticker)
		require.NoError(t, err)
		assert.True(t, price.IsPositive(), "%s drifted to %s", ticker, price)

		// 50 ticks of at most 0.5% stay well inside a 2x band.
		assert.True(t, price.LessThan(ref.Mul(decimal.NewFromInt(2))))
	}
}

func TestTickPublishesUpdates(t *testing.T) {
	source := NewSource(zap.NewNop())
	source.tick()

	seen := make(map[string]bool)
	for range referencePrices {
		update := <-source.Updates()
		assert.True(t, update.Price.IsPositive())
		assert.NotZero(t, update.Ts)
		seen[update.Ticker] = true
	}
	assert.Len(t, seen, len(referencePrices), "one update per symbol per tick")
}

func TestSnapshotIsACopy(t *testing.T) {
	source := NewSource(zap.NewNop())
	snap := source.Snapshot()
	snap["AAPL"] = decimal.Zero

	price, err := source.Price("AAPL")
	require.NoError(t, err)
	assert.True(t, price.IsPositive())
}
