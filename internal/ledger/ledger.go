package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEventMismatch indicates a deposit event identity was seen again with a
	// different address or amount. This means the ledger or the event source is
	// corrupted and the affected operation must halt.
	ErrEventMismatch = errors.New("applied deposit exists with different payload")
)

// EventID is the natural dedup key for a deposit event. Two unrelated deposits
// can share (address, amount), so identity is always derived from the
// transaction hash and log index, never from content.
type EventID struct {
	TxHash   string
	LogIndex uint64
}

// Key renders the identity in the canonical storage form.
func (e EventID) Key() string {
	return fmt.Sprintf("%s:%d", e.TxHash, e.LogIndex)
}

// AppliedDeposit records a deposit event that has been credited, making
// re-delivery of the same event a no-op.
type AppliedDeposit struct {
	Event     EventID
	Address   string
	Amount    int64
	AppliedAt time.Time
}

// Ledger is the single source of truth for per-address bridge balances. All
// amounts are integers in the asset's minor unit and balances never go
// negative. Business rejections (insufficient balance, duplicate event) are
// reported through return values, not errors.
type Ledger interface {
	// ApplyDeposit credits the address unless the event identity was already
	// recorded, in which case it returns false without touching the balance.
	ApplyDeposit(ctx context.Context, event EventID, address string, amount int64) (bool, error)

	// Balance returns the current balance, 0 for addresses never seen.
	Balance(ctx context.Context, address string) (int64, error)

	// Reserve atomically checks the balance covers amount and debits it. A
	// false return means insufficient balance and leaves the balance untouched.
	Reserve(ctx context.Context, address string, amount int64) (bool, error)

	// Release re-credits an amount previously taken by Reserve whose
	// downstream mint failed. It is a pure compensating credit and always
	// succeeds.
	Release(ctx context.Context, address string, amount int64) error
}
