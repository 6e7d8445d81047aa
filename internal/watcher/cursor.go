package watcher

import (
	"context"
	"sync"
)

// CursorStore persists the last Chain A block whose deposits were applied, so
// a restarted watcher resumes from where it stopped instead of from "now".
// Overlap after a crash is absorbed by the ledger's idempotent deposit
// application.
type CursorStore interface {
	// Load returns the stored block number, or 0 when no cursor exists yet.
	Load(ctx context.Context) (uint64, error)
	Save(ctx context.Context, block uint64) error
}

type memoryCursor struct {
	mu    sync.Mutex
	block uint64
}

// NewMemoryCursor creates a non-durable cursor store for tests and dev mode.
func NewMemoryCursor(block uint64) CursorStore {
	return &memoryCursor{block: block}
}

func (c *memoryCursor) Load(_ context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block, nil
}

func (c *memoryCursor) Save(_ context.Context, block uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block = block
	return nil
}
