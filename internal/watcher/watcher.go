package watcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/congo-pay/congo_bridge/internal/chain"
	"github.com/congo-pay/congo_bridge/internal/ledger"
)

// maxBlockRange bounds a single log query so a watcher catching up after
// downtime does not ask the node for an unbounded range.
const maxBlockRange = 1000

// Config tunes the deposit watcher.
type Config struct {
	// Confirmations is the number of child blocks required before a block's
	// deposits are credited. Crediting only finalized blocks keeps balances
	// safe from chain reorganizations.
	Confirmations uint64
	// StartBlock is used when the cursor store is empty.
	StartBlock   uint64
	PollInterval time.Duration
}

// Watcher turns the Chain A event stream into ledger credits, exactly once per
// underlying on-chain event. All idempotency enforcement lives in the ledger;
// the watcher only decodes, forwards, and tracks its cursor.
type Watcher struct {
	source chain.DepositSource
	ledger ledger.Ledger
	cursor CursorStore
	logger *slog.Logger
	cfg    Config
}

// New constructs a deposit watcher.
func New(source chain.DepositSource, ledgerStore ledger.Ledger, cursor CursorStore, cfg Config, logger *slog.Logger) *Watcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &Watcher{source: source, ledger: ledgerStore, cursor: cursor, logger: logger, cfg: cfg}
}

// Run polls for confirmed deposits until the context is cancelled. It returns
// a non-nil error only for ledger corruption; everything transient is retried
// in place.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("deposit watcher starting",
		"confirmations", w.cfg.Confirmations, "poll_interval", w.cfg.PollInterval.String())

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.Sync(ctx); err != nil {
			if errors.Is(err, ledger.ErrEventMismatch) {
				w.logger.Error("ledger corruption detected, halting watcher", "error", err)
				return err
			}
			if ctx.Err() != nil {
				w.logger.Info("deposit watcher stopped")
				return nil
			}
			// Transient failures already exhausted their backoff; wait for the
			// next tick and try again.
			w.logger.Warn("deposit sync failed", "error", err)
		}

		select {
		case <-ctx.Done():
			w.logger.Info("deposit watcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Sync applies all deposits between the stored cursor and the confirmed head,
// then advances the cursor. It is a single catch-up pass; Run drives it.
func (w *Watcher) Sync(ctx context.Context) error {
	cursor, err := w.cursor.Load(ctx)
	if err != nil {
		return err
	}
	if cursor < w.cfg.StartBlock {
		cursor = w.cfg.StartBlock
	}

	head, err := w.head(ctx)
	if err != nil {
		return err
	}
	if head < w.cfg.Confirmations {
		return nil
	}
	confirmed := head - w.cfg.Confirmations
	if confirmed <= cursor {
		return nil
	}

	for from := cursor + 1; from <= confirmed; {
		to := from + maxBlockRange - 1
		if to > confirmed {
			to = confirmed
		}

		deposits, err := w.fetch(ctx, from, to)
		if err != nil {
			return err
		}

		for _, d := range deposits {
			event := ledger.EventID{TxHash: d.TxHash, LogIndex: d.LogIndex}
			applied, err := w.ledger.ApplyDeposit(ctx, event, d.Address, d.Amount)
			if err != nil {
				return err
			}
			if applied {
				w.logger.Info("deposit credited",
					"address", d.Address, "amount", d.Amount, "tx", d.TxHash, "block", d.BlockNumber)
			} else {
				w.logger.Debug("deposit already applied", "tx", d.TxHash, "index", d.LogIndex)
			}
		}

		if err := w.cursor.Save(ctx, to); err != nil {
			return err
		}
		from = to + 1
	}
	return nil
}

func (w *Watcher) head(ctx context.Context) (uint64, error) {
	var head uint64
	err := retry.Do(ctx, fetchBackoff(), func(ctx context.Context) error {
		h, err := w.source.Head(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		head = h
		return nil
	})
	return head, err
}

func (w *Watcher) fetch(ctx context.Context, from, to uint64) ([]chain.Deposit, error) {
	var deposits []chain.Deposit
	err := retry.Do(ctx, fetchBackoff(), func(ctx context.Context) error {
		d, err := w.source.FetchDeposits(ctx, from, to)
		if err != nil {
			return retry.RetryableError(err)
		}
		deposits = d
		return nil
	})
	return deposits, err
}

func fetchBackoff() retry.Backoff {
	return retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
}
