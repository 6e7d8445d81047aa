package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/umbracle/ethgo"
	"github.com/umbracle/ethgo/abi"
	"github.com/umbracle/ethgo/jsonrpc"
)

var depositedEvent = abi.MustNewEvent("event Deposited(address indexed user, uint256 amount)")

// DepositContract reads Deposited events from the Chain A deposit contract
// over JSON-RPC.
type DepositContract struct {
	client   *jsonrpc.Client
	contract ethgo.Address
	logger   *slog.Logger
}

// NewDepositContract dials the Chain A endpoint and binds the deposit contract address.
func NewDepositContract(rpcURL, contractAddress string, logger *slog.Logger) (*DepositContract, error) {
	client, err := jsonrpc.NewClient(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain A: %w", err)
	}
	return &DepositContract{
		client:   client,
		contract: ethgo.HexToAddress(contractAddress),
		logger:   logger,
	}, nil
}

// Head returns the latest Chain A block number.
func (d *DepositContract) Head(_ context.Context) (uint64, error) {
	return d.client.Eth().BlockNumber()
}

// VerifyContract confirms bytecode exists at the deposit contract address.
func (d *DepositContract) VerifyContract(_ context.Context) error {
	code, err := d.client.Eth().GetCode(d.contract, ethgo.Latest)
	if err != nil {
		return fmt.Errorf("get code: %w", err)
	}
	if code == "" || code == "0x" {
		return fmt.Errorf("%w: %s", ErrNoContract, d.contract.String())
	}
	return nil
}

// FetchDeposits queries and decodes Deposited logs in the inclusive block
// range. Logs that fail to decode are dropped with a warning; the Chain A
// ledger is outside this system's control and must not wedge the watcher.
func (d *DepositContract) FetchDeposits(_ context.Context, from, to uint64) ([]Deposit, error) {
	filter := &ethgo.LogFilter{Address: []ethgo.Address{d.contract}}
	filter.SetFromUint64(from)
	filter.SetToUint64(to)

	logs, err := d.client.Eth().GetLogs(filter)
	if err != nil {
		return nil, fmt.Errorf("get logs: %w", err)
	}

	deposits := make([]Deposit, 0, len(logs))
	for _, log := range logs {
		if !depositedEvent.Match(log) {
			continue
		}
		vals, err := depositedEvent.ParseLog(log)
		if err != nil {
			d.logger.Warn("dropping undecodable deposit log",
				"tx", log.TransactionHash.String(), "index", log.LogIndex, "error", err)
			continue
		}
		user, ok := vals["user"].(ethgo.Address)
		if !ok {
			d.logger.Warn("dropping deposit log with unexpected user type",
				"tx", log.TransactionHash.String(), "index", log.LogIndex)
			continue
		}
		rawAmount, ok := vals["amount"].(*big.Int)
		if !ok {
			d.logger.Warn("dropping deposit log with unexpected amount type",
				"tx", log.TransactionHash.String(), "index", log.LogIndex)
			continue
		}
		amount, err := toMinorUnits(rawAmount)
		if err != nil {
			d.logger.Warn("dropping deposit log with unusable amount",
				"tx", log.TransactionHash.String(), "index", log.LogIndex, "error", err)
			continue
		}

		deposits = append(deposits, Deposit{
			Address:     user.String(),
			Amount:      amount,
			TxHash:      log.TransactionHash.String(),
			LogIndex:    log.LogIndex,
			BlockNumber: log.BlockNumber,
		})
	}
	return deposits, nil
}
