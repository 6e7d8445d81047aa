package withdraw

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/congo-pay/congo_bridge/internal/chain"
	"github.com/congo-pay/congo_bridge/internal/ledger"
	"github.com/congo-pay/congo_bridge/internal/notification"
)

var (
	// ErrInsufficientBalance rejects a withdrawal exceeding the credited
	// balance. Normal rejection, never retried by the service.
	ErrInsufficientBalance = errors.New("insufficient balance for withdrawal")

	// ErrMintFailed wraps submit, revert, and confirmation-timeout failures of
	// the Chain B leg. The reserved amount has been released when this is
	// returned.
	ErrMintFailed = errors.New("mint transaction failed")
)

// Service drives a withdrawal request to a completed Chain B mint. It owns
// the withdrawal intents exclusively and touches balances only through the
// ledger's atomic API.
type Service struct {
	ledger         ledger.Ledger
	minter         chain.Minter
	intents        Repository
	notifier       notification.Notifier
	confirmTimeout time.Duration
	logger         *slog.Logger
}

// NewService constructs a withdrawal service.
func NewService(ledgerStore ledger.Ledger, minter chain.Minter, intents Repository, notifier notification.Notifier, confirmTimeout time.Duration, logger *slog.Logger) *Service {
	if confirmTimeout <= 0 {
		confirmTimeout = 2 * time.Minute
	}
	return &Service{
		ledger:         ledgerStore,
		minter:         minter,
		intents:        intents,
		notifier:       notifier,
		confirmTimeout: confirmTimeout,
		logger:         logger,
	}
}

// Result describes a confirmed withdrawal.
type Result struct {
	IntentID    string
	TxHash      string
	NewBalance  int64
	CompletedAt time.Time
}

// Status reports the balance and liveness view exposed through the facade.
type Status struct {
	Address string
	Balance int64
	Active  bool
}

// Request reserves the amount, mints on Chain B, and finalizes the intent.
// The debit happens before the mint is submitted: reserving at request time
// closes the window where two concurrent requests could both spend the same
// balance. Any downstream failure is repaired with a compensating release.
func (s *Service) Request(ctx context.Context, address string, amount int64) (Result, error) {
	if amount <= 0 {
		return Result{}, fmt.Errorf("amount must be positive")
	}

	now := time.Now().UTC()
	intent := Intent{
		ID:        uuid.NewString(),
		Address:   address,
		Amount:    amount,
		State:     StateRequested,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.intents.Create(ctx, intent); err != nil {
		return Result{}, err
	}

	ok, err := s.ledger.Reserve(ctx, address, amount)
	if err != nil {
		s.fail(ctx, &intent, false, err.Error())
		return Result{}, err
	}
	if !ok {
		s.fail(ctx, &intent, false, ErrInsufficientBalance.Error())
		return Result{}, ErrInsufficientBalance
	}
	s.transition(ctx, &intent, StateReserved)

	mintCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	txHash, err := s.minter.Submit(mintCtx, address, amount)
	if err != nil {
		s.fail(ctx, &intent, true, err.Error())
		return Result{}, fmt.Errorf("%w: %v", ErrMintFailed, err)
	}
	intent.TxHash = txHash
	s.transition(ctx, &intent, StateSubmitted)

	if err := s.minter.WaitForConfirmation(mintCtx, txHash); err != nil {
		s.fail(ctx, &intent, true, err.Error())
		return Result{}, fmt.Errorf("%w: %v", ErrMintFailed, err)
	}

	// The reserve already debited the balance; confirmation makes it final.
	s.transition(ctx, &intent, StateConfirmed)
	s.notify(ctx, intent, "withdrawal confirmed")

	balance, err := s.ledger.Balance(ctx, address)
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("withdrawal confirmed",
		"intent", intent.ID, "address", address, "amount", amount, "tx", txHash)
	return Result{
		IntentID:    intent.ID,
		TxHash:      txHash,
		NewBalance:  balance,
		CompletedAt: time.Now().UTC(),
	}, nil
}

// Status returns the current balance and liveness flag for an address.
func (s *Service) Status(ctx context.Context, address string) (Status, error) {
	balance, err := s.ledger.Balance(ctx, address)
	if err != nil {
		return Status{}, err
	}
	return Status{Address: address, Balance: balance, Active: true}, nil
}

// Get returns a stored withdrawal intent.
func (s *Service) Get(ctx context.Context, id string) (Intent, error) {
	return s.intents.Get(ctx, id)
}

// fail moves the intent to its terminal Failed state and, when the balance was
// already reserved, credits it back. Release has no external side effect, so
// a caller retrying afterwards always sees a balance consistent with "no mint
// happened".
func (s *Service) fail(ctx context.Context, intent *Intent, release bool, reason string) {
	if release {
		if err := s.ledger.Release(ctx, intent.Address, intent.Amount); err != nil {
			// Release failing means the stored balance no longer reflects the
			// failed withdrawal. Loudly flag it for reconciliation.
			s.logger.Error("release after failed mint did not apply",
				"intent", intent.ID, "address", intent.Address, "amount", intent.Amount, "error", err)
		}
	}
	intent.Reason = reason
	s.transition(ctx, intent, StateFailed)
	s.notify(ctx, *intent, "withdrawal failed: "+reason)
	s.logger.Warn("withdrawal failed",
		"intent", intent.ID, "address", intent.Address, "amount", intent.Amount, "reason", reason)
}

func (s *Service) transition(ctx context.Context, intent *Intent, state State) {
	intent.State = state
	intent.UpdatedAt = time.Now().UTC()
	if err := s.intents.Update(ctx, *intent); err != nil {
		s.logger.Error("intent update failed", "intent", intent.ID, "state", state, "error", err)
	}
}

func (s *Service) notify(ctx context.Context, intent Intent, body string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindBridgeWithdrawal,
		Destination: intent.Address,
		Body:        body,
	})
}
