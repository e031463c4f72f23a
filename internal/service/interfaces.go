package service

import (
	"context"

	"referral_ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByTelegramID returns nil, nil when the user does not exist
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	GetByReferralCode(ctx context.Context, code string) (*domain.User, error)
	// Create returns false when telegram_id or referral_code is already taken
	Create(ctx context.Context, u *domain.User) (bool, error)
	ClaimChatBonus(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, bool, error)
	AddDeposit(ctx context.Context, userID int64, amount decimal.Decimal) (*domain.User, error)
	Withdraw(ctx context.Context, userID int64, amount decimal.Decimal) (*domain.User, bool, error)
}

// DepositRepository defines the interface for deposit data access
type DepositRepository interface {
	Create(ctx context.Context, d *domain.Deposit) error
	SumActive(ctx context.Context, userID int64) (decimal.Decimal, error)
}

// TransactionRepository defines the interface for the transaction history
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	ListRecent(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error)
}

// ReferralRepository defines the interface for referral data access
type ReferralRepository interface {
	Create(ctx context.Context, ref *domain.Referral) error
	Summary(ctx context.Context, referrerID int64) (*domain.ReferralSummary, error)
}

// UnitOfWork exposes repositories sharing one store transaction
type UnitOfWork interface {
	Users() UserRepository
	Deposits() DepositRepository
	Transactions() TransactionRepository
	Referrals() ReferralRepository
}

// Store runs fn in a single all-or-nothing transaction
type Store interface {
	WithTx(ctx context.Context, fn func(uow UnitOfWork) error) error
}

// MembershipChecker reports a user's membership status in a chat
// ("member", "administrator", "creator", "left", "kicked", ...)
type MembershipChecker interface {
	ChatMemberStatus(ctx context.Context, channel string, telegramID int64) (string, error)
}

// WithdrawalNotice describes a withdrawal request that was just committed
type WithdrawalNotice struct {
	TransactionID int64
	TelegramID    int64
	Username      string
	Amount        decimal.Decimal
	Destination   string
}

// WithdrawalNotifier is told about every committed withdrawal request
type WithdrawalNotifier interface {
	WithdrawalRequested(n WithdrawalNotice)
}
