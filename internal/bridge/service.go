package bridge

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/congo-pay/congo_bridge/internal/chain"
	"github.com/congo-pay/congo_bridge/internal/ledger"
	"github.com/congo-pay/congo_bridge/internal/watcher"
	"github.com/congo-pay/congo_bridge/internal/withdraw"
)

var (
	// ErrInvalidAddress rejects empty or malformed account addresses.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidAmount rejects non-positive withdrawal amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrAlreadyInitialized guards the facade against a double start.
	ErrAlreadyInitialized = errors.New("bridge already initialized")
)

// Service is the only surface the HTTP layer is allowed to call. It validates
// input and delegates to the ledger and the withdrawal processor.
type Service struct {
	ledger      ledger.Ledger
	withdrawals *withdraw.Service
	watcher     *watcher.Watcher
	source      chain.DepositSource
	logger      *slog.Logger

	started atomic.Bool
}

// NewService wires the bridge facade.
func NewService(ledgerStore ledger.Ledger, withdrawals *withdraw.Service, w *watcher.Watcher, source chain.DepositSource, logger *slog.Logger) *Service {
	return &Service{
		ledger:      ledgerStore,
		withdrawals: withdrawals,
		watcher:     w,
		source:      source,
		logger:      logger,
	}
}

// Initialize sanity-checks the deposit contract and starts the deposit
// watcher. The watcher runs until ctx is cancelled. Calling Initialize twice
// returns ErrAlreadyInitialized.
func (s *Service) Initialize(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyInitialized
	}

	if err := s.source.VerifyContract(ctx); err != nil {
		s.started.Store(false)
		return err
	}

	go func() {
		if err := s.watcher.Run(ctx); err != nil {
			s.logger.Error("deposit watcher exited", "error", err)
		}
	}()

	s.logger.Info("bridge initialized")
	return nil
}

// Balance returns the credited-but-not-withdrawn balance in minor units.
func (s *Service) Balance(ctx context.Context, address string) (int64, error) {
	if err := validateAddress(address); err != nil {
		return 0, err
	}
	return s.ledger.Balance(ctx, address)
}

// Withdraw reserves the amount and mints it on Chain B.
func (s *Service) Withdraw(ctx context.Context, address string, amount int64) (withdraw.Result, error) {
	if err := validateAddress(address); err != nil {
		return withdraw.Result{}, err
	}
	if amount <= 0 {
		return withdraw.Result{}, ErrInvalidAmount
	}
	return s.withdrawals.Request(ctx, address, amount)
}

// Intent returns a stored withdrawal intent so clients can poll an outcome.
func (s *Service) Intent(ctx context.Context, id string) (withdraw.Intent, error) {
	return s.withdrawals.Get(ctx, id)
}

// Status reports balance and liveness for an address.
func (s *Service) Status(ctx context.Context, address string) (withdraw.Status, error) {
	if err := validateAddress(address); err != nil {
		return withdraw.Status{}, err
	}
	return s.withdrawals.Status(ctx, address)
}

func validateAddress(address string) error {
	if len(address) != 42 || address[0] != '0' || (address[1] != 'x' && address[1] != 'X') {
		return ErrInvalidAddress
	}
	for _, r := range address[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return ErrInvalidAddress
		}
	}
	return nil
}
