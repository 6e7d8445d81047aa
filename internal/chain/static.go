package chain

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StaticMinter simulates a successful Chain B integration. Useful for unit
// tests and dev mode, in place of a live JSON-RPC endpoint.
type StaticMinter struct {
	// SubmitErr, when set, fails every Submit call.
	SubmitErr error
	// ConfirmErr, when set, fails every WaitForConfirmation call.
	ConfirmErr error
	// ConfirmDelay holds WaitForConfirmation for the given duration, honoring
	// context cancellation.
	ConfirmDelay time.Duration

	mu        sync.Mutex
	submitted []string
}

// Submit records the request and returns a synthetic transaction hash.
func (m *StaticMinter) Submit(_ context.Context, recipient string, amount int64) (string, error) {
	if m.SubmitErr != nil {
		return "", m.SubmitErr
	}
	hash := "0xstatic-" + uuid.NewString()
	m.mu.Lock()
	m.submitted = append(m.submitted, hash)
	m.mu.Unlock()
	return hash, nil
}

// WaitForConfirmation approves after the configured delay.
func (m *StaticMinter) WaitForConfirmation(ctx context.Context, _ string) error {
	if m.ConfirmDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.ConfirmDelay):
		}
	}
	return m.ConfirmErr
}

// Submitted returns the hashes handed out so far.
func (m *StaticMinter) Submitted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.submitted))
	copy(out, m.submitted)
	return out
}

// StaticDepositSource replays a scripted set of deposits. The head advances as
// configured so watcher confirmation logic can be exercised without a chain.
type StaticDepositSource struct {
	mu       sync.Mutex
	head     uint64
	deposits []Deposit
}

// NewStaticDepositSource builds a source with the given head and deposits.
func NewStaticDepositSource(head uint64, deposits ...Deposit) *StaticDepositSource {
	return &StaticDepositSource{head: head, deposits: deposits}
}

// Head returns the scripted chain head.
func (s *StaticDepositSource) Head(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.head, nil
}

// SetHead moves the scripted chain head.
func (s *StaticDepositSource) SetHead(head uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.head = head
}

// Add appends deposits to the script.
func (s *StaticDepositSource) Add(deposits ...Deposit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deposits = append(s.deposits, deposits...)
}

// FetchDeposits returns scripted deposits whose block falls in [from, to].
func (s *StaticDepositSource) FetchDeposits(_ context.Context, from, to uint64) ([]Deposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Deposit
	for _, d := range s.deposits {
		if d.BlockNumber >= from && d.BlockNumber <= to {
			out = append(out, d)
		}
	}
	return out, nil
}

// VerifyContract always succeeds for the static source.
func (s *StaticDepositSource) VerifyContract(_ context.Context) error {
	return nil
}
