package repository

import (
	"context"

	"referral_ledger/internal/domain"

	"github.com/shopspring/decimal"
)

type ReferralRepository struct {
	db Querier
}

func NewReferralRepository(db Querier) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// Create records a referrer -> referred link
func (r *ReferralRepository) Create(ctx context.Context, ref *domain.Referral) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO referrals (referrer_id, referred_id, bonus_amount)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		ref.ReferrerID, ref.ReferredID, ref.BonusAmount,
	).Scan(&ref.ID, &ref.CreatedAt)
}

// Summary counts the referrer's referrals. A referral is active once the
// referred user has invested something.
func (r *ReferralRepository) Summary(ctx context.Context, referrerID int64) (*domain.ReferralSummary, error) {
	s := &domain.ReferralSummary{Income: decimal.Zero}
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE u.total_invested > 0),
		        COALESCE(SUM(r.bonus_amount), 0)
		 FROM referrals r
		 JOIN users u ON u.id = r.referred_id
		 WHERE r.referrer_id = $1`,
		referrerID,
	).Scan(&s.Total, &s.Active, &s.Income)
	if err != nil {
		return nil, err
	}
	return s, nil
}
