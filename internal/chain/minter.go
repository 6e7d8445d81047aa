package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/umbracle/ethgo"
	"github.com/umbracle/ethgo/abi"
	"github.com/umbracle/ethgo/jsonrpc"
	"github.com/umbracle/ethgo/wallet"
)

var mintMethod = abi.MustNewMethod("function mint(address to, uint256 amount)")

const (
	defaultGasPrice   = 1879048192 // 0x70000000
	defaultGasLimit   = 5242880    // 0x500000
	receiptPollPeriod = 500 * time.Millisecond
)

// TreasuryMinter submits mint transactions on Chain B signed by the custodial
// treasury key. The treasury is a single shared credential, so nonce
// assignment is serialized even though callers run in parallel.
type TreasuryMinter struct {
	client  *jsonrpc.Client
	key     ethgo.Key
	token   ethgo.Address
	chainID uint64
	logger  *slog.Logger

	nonceMu sync.Mutex
}

// NewTreasuryMinter dials Chain B and prepares the treasury signer for the
// given token contract.
func NewTreasuryMinter(rpcURL, tokenAddress string, key ethgo.Key, logger *slog.Logger) (*TreasuryMinter, error) {
	client, err := jsonrpc.NewClient(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain B: %w", err)
	}
	chainID, err := client.Eth().ChainID()
	if err != nil {
		return nil, fmt.Errorf("chain B id: %w", err)
	}
	return &TreasuryMinter{
		client:  client,
		key:     key,
		token:   ethgo.HexToAddress(tokenAddress),
		chainID: chainID.Uint64(),
		logger:  logger,
	}, nil
}

// Submit builds, signs and broadcasts mint(recipient, amount). Nonce fetch,
// signing and broadcast happen under one lock so concurrent withdrawals
// cannot race on the treasury's transaction sequence.
func (m *TreasuryMinter) Submit(_ context.Context, recipient string, amount int64) (string, error) {
	input, err := mintMethod.Encode([]interface{}{
		ethgo.HexToAddress(recipient),
		new(big.Int).SetInt64(amount),
	})
	if err != nil {
		return "", fmt.Errorf("encode mint call: %w", err)
	}

	m.nonceMu.Lock()
	defer m.nonceMu.Unlock()

	nonce, err := m.client.Eth().GetNonce(m.key.Address(), ethgo.Pending)
	if err != nil {
		return "", fmt.Errorf("treasury nonce: %w", err)
	}

	txn := &ethgo.Transaction{
		To:       &m.token,
		Input:    input,
		GasPrice: defaultGasPrice,
		Gas:      defaultGasLimit,
		Nonce:    nonce,
	}

	signer := wallet.NewEIP155Signer(m.chainID)
	if txn, err = signer.SignTx(txn, m.key); err != nil {
		return "", fmt.Errorf("sign mint: %w", err)
	}

	raw, err := txn.MarshalRLPTo(nil)
	if err != nil {
		return "", fmt.Errorf("encode mint tx: %w", err)
	}

	hash, err := m.client.Eth().SendRawTransaction(raw)
	if err != nil {
		return "", fmt.Errorf("broadcast mint: %w", err)
	}

	m.logger.Info("mint submitted", "recipient", recipient, "amount", amount, "tx", hash.String(), "nonce", nonce)
	return hash.String(), nil
}

// WaitForConfirmation polls the receipt until inclusion, revert, or context
// expiry. The caller bounds the wait with its context so a stuck transaction
// can never hang a withdrawal forever.
func (m *TreasuryMinter) WaitForConfirmation(ctx context.Context, txHash string) error {
	hash := ethgo.HexToHash(txHash)
	ticker := time.NewTicker(receiptPollPeriod)
	defer ticker.Stop()

	for {
		receipt, err := m.client.Eth().GetTransactionReceipt(hash)
		if err != nil && err.Error() != "not found" {
			return fmt.Errorf("receipt lookup: %w", err)
		}
		if receipt != nil {
			if receipt.Status != 1 {
				return fmt.Errorf("tx %s: %w", txHash, ErrTxReverted)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation of %s: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}
