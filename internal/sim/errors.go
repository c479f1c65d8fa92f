package sim

import "errors"

// The two recoverable error conditions of the simulation. Both leave state
// untouched; callers surface them as advisory messages. Stale deferred
// callbacks are not errors at all: every timer handler re-validates its
// target and quietly returns when the target has moved on.
var (
	// ErrInvalidTransition reports an operation whose precondition on
	// room, guest, or staff state was not met.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInsufficientFunds reports a charge exceeding the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
