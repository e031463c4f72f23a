package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID               int64           `db:"id" json:"id"`
	TelegramID       int64           `db:"telegram_id" json:"telegram_id"`
	Username         string          `db:"username" json:"username"`
	Balance          decimal.Decimal `db:"balance" json:"balance"`
	TotalInvested    decimal.Decimal `db:"total_invested" json:"total_invested"`
	TotalWithdrawn   decimal.Decimal `db:"total_withdrawn" json:"total_withdrawn"`
	ReferralCode     string          `db:"referral_code" json:"referral_code"`
	ReferredBy       *int64          `db:"referred_by" json:"referred_by,omitempty"`
	ChatBonusClaimed bool            `db:"chat_bonus_claimed" json:"chat_bonus_claimed"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// Available is the part of the balance eligible for withdrawal.
// Invested funds stay locked.
func (u *User) Available() decimal.Decimal {
	return u.Balance.Sub(u.TotalInvested)
}

// ReferralSummary aggregates the users a referrer brought in
type ReferralSummary struct {
	Total  int             `json:"total"`
	Active int             `json:"active"`
	Income decimal.Decimal `json:"income"`
}

// UserSnapshot is the user view returned by a lookup, with aggregates
// recomputed on every call
type UserSnapshot struct {
	User
	ActiveDeposits decimal.Decimal   `json:"active_deposits"`
	Referrals      ReferralSummary   `json:"referrals"`
	Transactions   []TransactionView `json:"transactions"`
}
