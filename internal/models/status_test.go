package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, StatusProcessing.CanTransitionTo(StatusInProgress))
	assert.True(t, StatusInProgress.CanTransitionTo(StatusCompleted))

	// Skipping a state is never legal.
	assert.False(t, StatusProcessing.CanTransitionTo(StatusCompleted))

	// Moving backward is never legal.
	assert.False(t, StatusInProgress.CanTransitionTo(StatusProcessing))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusInProgress))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusProcessing))

	// Completed is terminal.
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusCompleted.CanTransitionTo(StatusCompleted))
}

func TestOrderStatusFromRemote(t *testing.T) {
	assert.Equal(t, StatusProcessing, OrderStatusFromRemote("pending"))
	assert.Equal(t, StatusInProgress, OrderStatusFromRemote("working"))
	assert.Equal(t, StatusCompleted, OrderStatusFromRemote("completed"))

	// Unknown remote statuses map to In-Progress: the order exists and is
	// not done, which is all the client can assume.
	assert.Equal(t, StatusInProgress, OrderStatusFromRemote("partially_filled"))
	assert.Equal(t, StatusInProgress, OrderStatusFromRemote(""))
}

func TestOrderStatusRemoteRoundTrip(t *testing.T) {
	for _, status := range []OrderStatus{StatusProcessing, StatusInProgress, StatusCompleted} {
		assert.Equal(t, status, OrderStatusFromRemote(status.Remote()))
	}
}

func TestParseSide(t *testing.T) {
	for _, raw := range []string{"buy", "Buy", "BUY"} {
		side, err := ParseSide(raw)
		assert.NoError(t, err)
		assert.Equal(t, Buy, side)
	}

	_, err := ParseSide("short")
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestErrorCodeRoundTrip(t *testing.T) {
	for _, sentinel := range []error{
		ErrInvalidOrder, ErrInsufficientFunds, ErrInsufficientHoldings, ErrUnknownTicker,
	} {
		code := ErrorCode(sentinel)
		assert.NotEmpty(t, code)
		assert.ErrorIs(t, ErrorFromCode(code), sentinel)
	}

	// Internal errors have no wire code.
	assert.Empty(t, ErrorCode(ErrDuplicateSettlement))
	assert.Empty(t, ErrorCode(ErrRemoteUnavailable))
	assert.Nil(t, ErrorFromCode("no_such_code"))
}
