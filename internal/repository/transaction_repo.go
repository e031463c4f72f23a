package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"referral_ledger/internal/domain"

	"github.com/jackc/pgx/v5"
)

type TransactionRepository struct {
	db Querier
}

func NewTransactionRepository(db Querier) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create appends a history entry
func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	metaJSON := []byte("{}")
	if tx.Meta != nil {
		var err error
		if metaJSON, err = json.Marshal(tx.Meta); err != nil {
			return fmt.Errorf("encode transaction meta: %w", err)
		}
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO transactions (user_id, type, amount, status, meta)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		tx.UserID, tx.Type, tx.Amount, tx.Status, metaJSON,
	).Scan(&tx.ID, &tx.CreatedAt)
}

// ListRecent returns the user's latest transactions, newest first
func (r *TransactionRepository) ListRecent(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, type, amount, status, meta, created_at
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	result := []*domain.Transaction{}

	for rows.Next() {
		var (
			tx       domain.Transaction
			metaJSON []byte
		)

		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.Status, &metaJSON, &tx.CreatedAt); err != nil {
			return nil, err
		}

		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &tx.Meta); err != nil {
				return nil, fmt.Errorf("decode meta of transaction %d: %w", tx.ID, err)
			}
		}
		if len(tx.Meta) == 0 {
			tx.Meta = nil
		}

		result = append(result, &tx)
	}

	return result, rows.Err()
}
