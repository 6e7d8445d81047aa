package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrTxReverted indicates the mint transaction was included on Chain B but
	// reverted. This is a permanent failure; the reserved balance must be
	// released.
	ErrTxReverted = errors.New("transaction reverted")

	// ErrAmountOverflow indicates an on-chain uint256 amount does not fit the
	// ledger's int64 minor-unit representation.
	ErrAmountOverflow = errors.New("amount overflows int64 minor units")

	// ErrNoContract indicates no bytecode is deployed at the configured
	// deposit contract address.
	ErrNoContract = errors.New("no contract code at address")
)

// Deposit is a decoded Deposited event observed on Chain A.
type Deposit struct {
	Address     string
	Amount      int64
	TxHash      string
	LogIndex    uint64
	BlockNumber uint64
}

// DepositSource reads confirmed deposit events from Chain A.
type DepositSource interface {
	// Head returns the latest Chain A block number.
	Head(ctx context.Context) (uint64, error)

	// FetchDeposits returns decoded Deposited events in [from, to], both
	// inclusive. Malformed logs are skipped, not returned as errors.
	FetchDeposits(ctx context.Context, from, to uint64) ([]Deposit, error)

	// VerifyContract checks the deposit contract is actually deployed.
	VerifyContract(ctx context.Context) error
}

// Minter submits treasury-signed mint transactions on Chain B.
type Minter interface {
	// Submit signs and broadcasts a mint of amount minor units to recipient,
	// returning the transaction hash once the node accepts it.
	Submit(ctx context.Context, recipient string, amount int64) (string, error)

	// WaitForConfirmation blocks until the transaction is included, the
	// context expires, or the transaction reverts (ErrTxReverted).
	WaitForConfirmation(ctx context.Context, txHash string) error
}

// toMinorUnits converts an on-chain uint256 amount to int64 minor units.
func toMinorUnits(amount *big.Int) (int64, error) {
	if amount == nil || amount.Sign() < 0 {
		return 0, fmt.Errorf("invalid amount %v", amount)
	}
	if !amount.IsInt64() {
		return 0, ErrAmountOverflow
	}
	return amount.Int64(), nil
}
