package withdraw

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists withdrawal intents.
type Repository interface {
	Create(ctx context.Context, intent Intent) error
	Update(ctx context.Context, intent Intent) error
	Get(ctx context.Context, id string) (Intent, error)
}

// PostgresRepository stores withdrawal intents in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the intents table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	const schema = `
        CREATE TABLE IF NOT EXISTS withdrawal_intents (
            id         UUID PRIMARY KEY,
            address    TEXT NOT NULL,
            amount     BIGINT NOT NULL,
            state      TEXT NOT NULL,
            tx_hash    TEXT NOT NULL DEFAULT '',
            reason     TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        );`
	_, err := r.db.Exec(ctx, schema)
	return err
}

// Create inserts an intent record.
func (r *PostgresRepository) Create(ctx context.Context, intent Intent) error {
	id, err := uuid.Parse(intent.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO withdrawal_intents (id, address, amount, state, tx_hash, reason, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, intent.Address, intent.Amount, string(intent.State), intent.TxHash, intent.Reason,
		intent.CreatedAt.UTC(), intent.UpdatedAt.UTC())
	return err
}

// Update rewrites the mutable intent fields.
func (r *PostgresRepository) Update(ctx context.Context, intent Intent) error {
	id, err := uuid.Parse(intent.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `UPDATE withdrawal_intents
        SET state = $2, tx_hash = $3, reason = $4, updated_at = $5 WHERE id = $1`,
		id, string(intent.State), intent.TxHash, intent.Reason, intent.UpdatedAt.UTC())
	return err
}

// Get fetches an intent by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Intent, error) {
	intentID, err := uuid.Parse(id)
	if err != nil {
		return Intent{}, err
	}
	row := r.db.QueryRow(ctx, `SELECT id, address, amount, state, tx_hash, reason, created_at, updated_at
        FROM withdrawal_intents WHERE id = $1`, intentID)

	var intent Intent
	var idVal uuid.UUID
	var state string
	var createdAt, updatedAt time.Time
	if err := row.Scan(&idVal, &intent.Address, &intent.Amount, &state, &intent.TxHash, &intent.Reason, &createdAt, &updatedAt); err != nil {
		return Intent{}, err
	}
	intent.ID = idVal.String()
	intent.State = State(state)
	intent.CreatedAt = createdAt.UTC()
	intent.UpdatedAt = updatedAt.UTC()
	return intent, nil
}
