package repository

import (
	"context"

	"referral_ledger/internal/domain"

	"github.com/shopspring/decimal"
)

type DepositRepository struct {
	db Querier
}

func NewDepositRepository(db Querier) *DepositRepository {
	return &DepositRepository{db: db}
}

// Create creates a new deposit record
func (r *DepositRepository) Create(ctx context.Context, d *domain.Deposit) error {
	if d.Status == "" {
		d.Status = domain.DepositStatusActive
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO deposits (user_id, amount, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, d.UserID, d.Amount, d.Status).Scan(&d.ID, &d.CreatedAt)
}

// SumActive returns the total amount of the user's active deposits
func (r *DepositRepository) SumActive(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM deposits
		WHERE user_id = $1 AND status = $2
	`, userID, domain.DepositStatusActive).Scan(&total)
	return total, err
}
