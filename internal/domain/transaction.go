package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of balance movement recorded in the history
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeBonus      TransactionType = "bonus"
)

// TransactionStatus represents settlement state of a history entry
type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusPending TransactionStatus = "pending"
)

// Transaction is an append-only audit record of a balance movement
type Transaction struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Type      TransactionType        `db:"type" json:"type"`
	Amount    decimal.Decimal        `db:"amount" json:"amount"`
	Status    TransactionStatus      `db:"status" json:"status"`
	Meta      map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// TransactionView is the compact history entry shown to clients
type TransactionView struct {
	ID     string            `json:"id"`
	Type   TransactionType   `json:"type"`
	Amount decimal.Decimal   `json:"amount"`
	Status TransactionStatus `json:"status"`
	Date   string            `json:"date"`
}

func (t *Transaction) View() TransactionView {
	return TransactionView{
		ID:     strconv.FormatInt(t.ID, 10),
		Type:   t.Type,
		Amount: t.Amount,
		Status: t.Status,
		Date:   t.CreatedAt.Format(time.RFC3339),
	}
}
