package repository

import (
	"context"
	"errors"

	"referral_ledger/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const userColumns = `id, telegram_id, username, balance, total_invested, total_withdrawn,
	referral_code, referred_by, chat_bonus_claimed, created_at`

type UserRepository struct {
	db Querier
}

func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

// GetByTelegramID returns nil, nil when no user has the given telegram id
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`,
		telegramID,
	)
	return scanUser(row)
}

// GetByReferralCode returns nil, nil for an unknown code
func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE referral_code = $1`,
		code,
	)
	return scanUser(row)
}

// Create inserts u and fills the generated columns. It returns false without
// error when telegram_id or referral_code is already taken.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (bool, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO users (telegram_id, username, referral_code, referred_by)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT DO NOTHING
		 RETURNING `+userColumns,
		u.TelegramID, u.Username, u.ReferralCode, u.ReferredBy,
	)

	created, err := scanUser(row)
	if err != nil {
		return false, err
	}
	if created == nil {
		return false, nil
	}
	*u = *created
	return true, nil
}

// ClaimChatBonus credits amount and sets the claimed flag in one statement.
// ok is false when the user does not exist or already claimed.
func (r *UserRepository) ClaimChatBonus(ctx context.Context, userID int64, amount decimal.Decimal) (newBalance decimal.Decimal, ok bool, err error) {
	err = r.db.QueryRow(ctx,
		`UPDATE users
		 SET balance = balance + $1, chat_bonus_claimed = TRUE
		 WHERE id = $2 AND NOT chat_bonus_claimed
		 RETURNING balance`,
		amount, userID,
	).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return newBalance, true, nil
}

// AddDeposit credits balance and total_invested by amount
func (r *UserRepository) AddDeposit(ctx context.Context, userID int64, amount decimal.Decimal) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE users
		 SET balance = balance + $1, total_invested = total_invested + $1
		 WHERE id = $2
		 RETURNING `+userColumns,
		amount, userID,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// Withdraw moves amount from balance to total_withdrawn, guarded by the
// available balance (balance - total_invested). ok is false when the guard fails.
func (r *UserRepository) Withdraw(ctx context.Context, userID int64, amount decimal.Decimal) (*domain.User, bool, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE users
		 SET balance = balance - $1, total_withdrawn = total_withdrawn + $1
		 WHERE id = $2 AND balance - total_invested >= $1
		 RETURNING `+userColumns,
		amount, userID,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, false, err
	}
	return u, u != nil, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.TelegramID,
		&u.Username,
		&u.Balance,
		&u.TotalInvested,
		&u.TotalWithdrawn,
		&u.ReferralCode,
		&u.ReferredBy,
		&u.ChatBonusClaimed,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
