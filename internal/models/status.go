package models

import "fmt"

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "Buy"
	Sell Side = "Sell"
)

// ParseSide normalizes a wire-format side ("buy"/"sell", any case).
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy", "Buy", "BUY":
		return Buy, nil
	case "sell", "Sell", "SELL":
		return Sell, nil
	}
	return "", fmt.Errorf("%w: side %q", ErrInvalidOrder, s)
}

// Remote returns the lowercase wire form used by the backend.
func (s Side) Remote() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// ExecutionType distinguishes market from limit orders.
type ExecutionType string

const (
	Market ExecutionType = "Market"
	Limit  ExecutionType = "Limit"
)

// ParseExecutionType normalizes a wire-format execution type.
func ParseExecutionType(s string) (ExecutionType, error) {
	switch s {
	case "market", "Market", "MARKET":
		return Market, nil
	case "limit", "Limit", "LIMIT":
		return Limit, nil
	}
	return "", fmt.Errorf("%w: execution type %q", ErrInvalidOrder, s)
}

// Remote returns the lowercase wire form used by the backend.
func (t ExecutionType) Remote() string {
	if t == Limit {
		return "limit"
	}
	return "market"
}

// OrderStatus is the closed three-state order lifecycle. Orders only ever
// move forward, one state at a time, and never leave Completed.
type OrderStatus string

const (
	StatusProcessing OrderStatus = "Processing"
	StatusInProgress OrderStatus = "In-Progress"
	StatusCompleted  OrderStatus = "Completed"
)

// rank orders the lifecycle for comparison; higher never transitions to lower.
func (s OrderStatus) rank() int {
	switch s {
	case StatusProcessing:
		return 0
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	}
	return -1
}

// Valid reports whether s is one of the three known states.
func (s OrderStatus) Valid() bool { return s.rank() >= 0 }

// Terminal reports whether s is the final state.
func (s OrderStatus) Terminal() bool { return s == StatusCompleted }

// CanTransitionTo reports whether next is the single legal forward step
// from s. Skipping a state or moving backward is never legal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s.Valid() && next.Valid() && next.rank() == s.rank()+1
}

// Before reports whether s precedes other in the lifecycle.
func (s OrderStatus) Before(other OrderStatus) bool {
	return s.rank() < other.rank()
}

// Remote status vocabulary spoken by the backend.
const (
	RemotePending   = "pending"
	RemoteWorking   = "working"
	RemoteCompleted = "completed"
)

// OrderStatusFromRemote maps the backend's status vocabulary onto the
// local state machine. Unknown values map to In-Progress: the order exists
// remotely and is not yet done, which is all the client can assume.
func OrderStatusFromRemote(remote string) OrderStatus {
	switch remote {
	case RemotePending:
		return StatusProcessing
	case RemoteWorking:
		return StatusInProgress
	case RemoteCompleted:
		return StatusCompleted
	}
	return StatusInProgress
}

// Remote returns the backend vocabulary for a local status.
func (s OrderStatus) Remote() string {
	switch s {
	case StatusProcessing:
		return RemotePending
	case StatusInProgress:
		return RemoteWorking
	default:
		return RemoteCompleted
	}
}
