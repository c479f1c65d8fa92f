package sim

import "fmt"

// Ledger is the single coin balance. It is mutated only through Award and
// Charge so every billable event stays a named operation; nothing else in the
// engine touches the balance directly. The engine lock serializes access.
type Ledger struct {
	balance int64
}

// Balance returns the current coin balance.
func (l *Ledger) Balance() int64 { return l.balance }

// Award credits the balance. Negative amounts are ignored.
func (l *Ledger) Award(amount int64) {
	if amount <= 0 {
		return
	}
	l.balance += amount
}

// Charge debits the balance. It either fully succeeds or fails with
// ErrInsufficientFunds leaving the balance untouched; the balance never goes
// negative.
func (l *Ledger) Charge(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative charge %d: %w", amount, ErrInvalidTransition)
	}
	if l.balance < amount {
		return fmt.Errorf("need %d coins, have %d: %w", amount, l.balance, ErrInsufficientFunds)
	}
	l.balance -= amount
	return nil
}
