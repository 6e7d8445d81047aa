package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type account struct {
	mu      sync.Mutex
	balance int64
}

// inMemoryLedger serializes mutations per address; operations on different
// addresses proceed in parallel.
type inMemoryLedger struct {
	mu       sync.Mutex // guards the maps only, never held across balance math
	accounts map[string]*account
	applied  map[string]AppliedDeposit
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests and dev mode. State does not survive restarts.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		accounts: make(map[string]*account),
		applied:  make(map[string]AppliedDeposit),
	}
}

func (l *inMemoryLedger) account(address string) *account {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[address]
	if !ok {
		acct = &account{}
		l.accounts[address] = acct
	}
	return acct
}

func (l *inMemoryLedger) ApplyDeposit(_ context.Context, event EventID, address string, amount int64) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("amount must be positive")
	}

	acct := l.account(address)
	acct.mu.Lock()
	defer acct.mu.Unlock()

	l.mu.Lock()
	existing, seen := l.applied[event.Key()]
	if !seen {
		l.applied[event.Key()] = AppliedDeposit{Event: event, Address: address, Amount: amount, AppliedAt: time.Now().UTC()}
	}
	l.mu.Unlock()

	if seen {
		if existing.Address != address || existing.Amount != amount {
			return false, fmt.Errorf("event %s: %w", event.Key(), ErrEventMismatch)
		}
		return false, nil
	}

	acct.balance += amount
	return true, nil
}

func (l *inMemoryLedger) Balance(_ context.Context, address string) (int64, error) {
	l.mu.Lock()
	acct, ok := l.accounts[address]
	l.mu.Unlock()
	if !ok {
		return 0, nil
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()
	return acct.balance, nil
}

func (l *inMemoryLedger) Reserve(_ context.Context, address string, amount int64) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("amount must be positive")
	}

	acct := l.account(address)
	acct.mu.Lock()
	defer acct.mu.Unlock()

	if acct.balance < amount {
		return false, nil
	}
	acct.balance -= amount
	return true, nil
}

func (l *inMemoryLedger) Release(_ context.Context, address string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	acct := l.account(address)
	acct.mu.Lock()
	defer acct.mu.Unlock()

	acct.balance += amount
	return nil
}
