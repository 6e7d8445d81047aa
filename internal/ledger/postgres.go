package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger persists balances and applied deposits in PostgreSQL so the
// bridge survives restarts without losing or double-counting funds.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// EnsureSchema creates the ledger tables when they do not exist yet.
func (l *PostgresLedger) EnsureSchema(ctx context.Context) error {
	const schema = `
        CREATE TABLE IF NOT EXISTS bridge_accounts (
            address    TEXT PRIMARY KEY,
            balance    BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0)
        );
        CREATE TABLE IF NOT EXISTS applied_deposits (
            tx_hash    TEXT NOT NULL,
            log_index  BIGINT NOT NULL,
            address    TEXT NOT NULL,
            amount     BIGINT NOT NULL,
            applied_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            PRIMARY KEY (tx_hash, log_index)
        );`
	_, err := l.db.Exec(ctx, schema)
	return err
}

// ApplyDeposit credits the address once per event identity. The applied-deposit
// insert and the balance update commit in one transaction, so a crash between
// them cannot split the credit from its dedup record.
func (l *PostgresLedger) ApplyDeposit(ctx context.Context, event EventID, address string, amount int64) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("amount must be positive")
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	tag, err := tx.Exec(ctx, `INSERT INTO applied_deposits (tx_hash, log_index, address, amount)
        VALUES ($1, $2, $3, $4) ON CONFLICT (tx_hash, log_index) DO NOTHING`,
		event.TxHash, event.LogIndex, address, amount)
	if err != nil {
		return false, err
	}

	if tag.RowsAffected() == 0 {
		var prevAddress string
		var prevAmount int64
		err := tx.QueryRow(ctx, `SELECT address, amount FROM applied_deposits WHERE tx_hash = $1 AND log_index = $2`,
			event.TxHash, event.LogIndex).Scan(&prevAddress, &prevAmount)
		if err != nil {
			return false, err
		}
		if prevAddress != address || prevAmount != amount {
			return false, fmt.Errorf("event %s: %w", event.Key(), ErrEventMismatch)
		}
		return false, nil
	}

	if _, err := tx.Exec(ctx, `INSERT INTO bridge_accounts (address, balance) VALUES ($1, $2)
        ON CONFLICT (address) DO UPDATE SET balance = bridge_accounts.balance + EXCLUDED.balance`,
		address, amount); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Balance returns the stored balance, 0 for unseen addresses.
func (l *PostgresLedger) Balance(ctx context.Context, address string) (int64, error) {
	var balance int64
	err := l.db.QueryRow(ctx, `SELECT balance FROM bridge_accounts WHERE address = $1`, address).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Reserve debits the balance when it covers the amount. The conditional UPDATE
// makes the check-and-debit a single atomic statement.
func (l *PostgresLedger) Reserve(ctx context.Context, address string, amount int64) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("amount must be positive")
	}

	tag, err := l.db.Exec(ctx, `UPDATE bridge_accounts SET balance = balance - $2
        WHERE address = $1 AND balance >= $2`, address, amount)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Release re-credits a reserved amount after a failed mint.
func (l *PostgresLedger) Release(ctx context.Context, address string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	_, err := l.db.Exec(ctx, `INSERT INTO bridge_accounts (address, balance) VALUES ($1, $2)
        ON CONFLICT (address) DO UPDATE SET balance = bridge_accounts.balance + EXCLUDED.balance`,
		address, amount)
	return err
}
