package watcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/congo-pay/congo_bridge/internal/chain"
	"github.com/congo-pay/congo_bridge/internal/ledger"
	"github.com/congo-pay/congo_bridge/internal/logging"
)

func newTestWatcher(source chain.DepositSource, led ledger.Ledger, cursor CursorStore, confirmations uint64) *Watcher {
	return New(source, led, cursor, Config{
		Confirmations: confirmations,
		PollInterval:  10 * time.Millisecond,
	}, logging.Discard())
}

func TestWatcherCreditsConfirmedDeposits(t *testing.T) {
	led := ledger.NewInMemory()
	source := chain.NewStaticDepositSource(20,
		chain.Deposit{Address: "0xuser", Amount: 100, TxHash: "0xabc", LogIndex: 0, BlockNumber: 10},
	)
	cursor := NewMemoryCursor(0)
	w := newTestWatcher(source, led, cursor, 6)

	if err := w.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	balance, _ := led.Balance(context.Background(), "0xuser")
	if balance != 100 {
		t.Fatalf("expected balance 100, got %d", balance)
	}

	block, _ := cursor.Load(context.Background())
	if block != 14 { // head 20 minus 6 confirmations
		t.Fatalf("expected cursor at 14, got %d", block)
	}
}

func TestWatcherWaitsForConfirmations(t *testing.T) {
	led := ledger.NewInMemory()
	source := chain.NewStaticDepositSource(12,
		chain.Deposit{Address: "0xuser", Amount: 100, TxHash: "0xabc", LogIndex: 0, BlockNumber: 10},
	)
	cursor := NewMemoryCursor(0)
	w := newTestWatcher(source, led, cursor, 6)

	if err := w.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	balance, _ := led.Balance(context.Background(), "0xuser")
	if balance != 0 {
		t.Fatalf("deposit credited before confirmation depth, balance=%d", balance)
	}

	source.SetHead(16)
	if err := w.Sync(context.Background()); err != nil {
		t.Fatalf("sync after head advance: %v", err)
	}
	balance, _ = led.Balance(context.Background(), "0xuser")
	if balance != 100 {
		t.Fatalf("expected balance 100 after confirmation depth, got %d", balance)
	}
}

func TestWatcherRedeliveryIsIdempotent(t *testing.T) {
	led := ledger.NewInMemory()
	source := chain.NewStaticDepositSource(20,
		chain.Deposit{Address: "0xuser", Amount: 100, TxHash: "0xabc", LogIndex: 0, BlockNumber: 10},
	)
	w := newTestWatcher(source, led, NewMemoryCursor(0), 6)

	if err := w.Sync(context.Background()); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	// Simulate a lost cursor: the same range is scanned again after restart.
	w2 := newTestWatcher(source, led, NewMemoryCursor(0), 6)
	if err := w2.Sync(context.Background()); err != nil {
		t.Fatalf("replayed sync: %v", err)
	}

	balance, _ := led.Balance(context.Background(), "0xuser")
	if balance != 100 {
		t.Fatalf("redelivered deposit double counted, balance=%d", balance)
	}
}

func TestWatcherResumesFromCursor(t *testing.T) {
	led := ledger.NewInMemory()
	source := chain.NewStaticDepositSource(20,
		chain.Deposit{Address: "0xuser", Amount: 100, TxHash: "0xold", LogIndex: 0, BlockNumber: 5},
		chain.Deposit{Address: "0xuser", Amount: 40, TxHash: "0xnew", LogIndex: 0, BlockNumber: 12},
	)
	// Cursor already past block 5: the old deposit must not be re-scanned.
	cursor := NewMemoryCursor(10)
	w := newTestWatcher(source, led, cursor, 6)

	if err := w.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	balance, _ := led.Balance(context.Background(), "0xuser")
	if balance != 40 {
		t.Fatalf("expected only post-cursor deposit credited, balance=%d", balance)
	}
}

func TestWatcherHaltsOnLedgerCorruption(t *testing.T) {
	led := ledger.NewInMemory()
	ctx := context.Background()
	if _, err := led.ApplyDeposit(ctx, ledger.EventID{TxHash: "0xabc", LogIndex: 0}, "0xuser", 50); err != nil {
		t.Fatalf("seed applied deposit: %v", err)
	}

	// Same event identity arrives with a different amount.
	source := chain.NewStaticDepositSource(20,
		chain.Deposit{Address: "0xuser", Amount: 100, TxHash: "0xabc", LogIndex: 0, BlockNumber: 10},
	)
	w := newTestWatcher(source, led, NewMemoryCursor(0), 6)

	err := w.Sync(ctx)
	if !errors.Is(err, ledger.ErrEventMismatch) {
		t.Fatalf("expected ErrEventMismatch, got %v", err)
	}
}
