package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deposit represents funds a user placed into investment
type Deposit struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Status    DepositStatus   `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// DepositStatus represents deposit lifecycle status
type DepositStatus string

const (
	DepositStatusActive DepositStatus = "active"
	DepositStatusClosed DepositStatus = "closed"
)
