package models

import "errors"

// Error taxonomy shared by the client core and the HTTP boundary.
var (
	// ErrInvalidOrder marks malformed input: empty ticker, non-positive
	// price or size. Rejected locally, never reaches the backend.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrInsufficientFunds rejects a buy whose total cost exceeds the
	// account's cash balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientHoldings rejects a sell of more shares than held.
	ErrInsufficientHoldings = errors.New("insufficient holdings")

	// ErrRemoteUnavailable wraps transport or backend failures. The local
	// optimistic state is rolled back before this is returned.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrReconciliationConflict marks remote state disagreeing with a
	// local optimistic assumption. Resolved by preferring remote truth.
	ErrReconciliationConflict = errors.New("reconciliation conflict")

	// ErrDuplicateSettlement is the settlement engine's guard against
	// applying the same order twice. Internal, never user-facing.
	ErrDuplicateSettlement = errors.New("duplicate settlement")

	// ErrIllegalTransition marks a status change that skips a state or
	// moves backward.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrOrderNotFound marks an order id unknown to the ledger.
	ErrOrderNotFound = errors.New("order not found")

	// ErrUnknownTicker marks a price lookup for a symbol the price source
	// does not track.
	ErrUnknownTicker = errors.New("unknown ticker")
)

// Wire error codes used in JSON error responses, mapped back to the
// sentinels above by the REST client.
const (
	CodeInvalidOrder         = "invalid_order"
	CodeInsufficientFunds    = "insufficient_funds"
	CodeInsufficientHoldings = "insufficient_holdings"
	CodeUnknownTicker        = "unknown_ticker"
)

// ErrorCode returns the wire code for a taxonomy error, or "" if the error
// has no stable code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidOrder):
		return CodeInvalidOrder
	case errors.Is(err, ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, ErrInsufficientHoldings):
		return CodeInsufficientHoldings
	case errors.Is(err, ErrUnknownTicker):
		return CodeUnknownTicker
	}
	return ""
}

// ErrorFromCode maps a wire code back to its sentinel, or nil for an
// unrecognized code.
func ErrorFromCode(code string) error {
	switch code {
	case CodeInvalidOrder:
		return ErrInvalidOrder
	case CodeInsufficientFunds:
		return ErrInsufficientFunds
	case CodeInsufficientHoldings:
		return ErrInsufficientHoldings
	case CodeUnknownTicker:
		return ErrUnknownTicker
	}
	return nil
}
