package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/savegress/ledgerlens/internal/connectors"
	"github.com/savegress/ledgerlens/pkg/models"
)

// Repository reads the system-of-record ledger from Postgres. It is the
// internal side of a reconciliation run.
type Repository struct {
	pool *pgxpool.Pool
}

// New connects to the ledger database and verifies the connection.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping ledger database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() {
	r.pool.Close()
}

func (r *Repository) Name() string { return "ledger" }

// FetchTransactions loads ledger entries posted within [start, end).
// Amounts are stored as NUMERIC dollars and converted to minor units here
// so the engine never sees floating point.
func (r *Repository) FetchTransactions(ctx context.Context, start, end time.Time) ([]models.Transaction, error) {
	query := `
		SELECT id, amount, occurred_at, status, description, metadata, flags
		FROM ledger_transactions
		WHERE occurred_at >= $1 AND occurred_at < $2
		ORDER BY occurred_at, id
	`

	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: querying ledger transactions: %v", connectors.ErrUpstreamUnavailable, err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var (
			txn      models.Transaction
			amount   decimal.Decimal
			metadata map[string]string
			flags    []string
		)
		if err := rows.Scan(&txn.ID, &amount, &txn.Timestamp, &txn.Status, &txn.Description, &metadata, &flags); err != nil {
			return nil, fmt.Errorf("scanning ledger transaction: %w", err)
		}
		txn.AmountCents = amount.Shift(2).IntPart()
		txn.Timestamp = txn.Timestamp.UTC()
		txn.Metadata = metadata
		txn.Flags = flags
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading ledger transactions: %v", connectors.ErrUpstreamUnavailable, err)
	}

	return transactions, nil
}
