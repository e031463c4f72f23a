package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Referral links a referrer to the user registered with their code
type Referral struct {
	ID          int64           `db:"id" json:"id"`
	ReferrerID  int64           `db:"referrer_id" json:"referrer_id"`
	ReferredID  int64           `db:"referred_id" json:"referred_id"`
	BonusAmount decimal.Decimal `db:"bonus_amount" json:"bonus_amount"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// ReferralCheck is the result of a referral code lookup.
// Unknown codes produce Valid=false rather than an error.
type ReferralCheck struct {
	Valid    bool   `json:"valid"`
	Referrer string `json:"referrer,omitempty"`
	Code     string `json:"code,omitempty"`
}
