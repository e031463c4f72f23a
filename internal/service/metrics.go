package service

import (
	"errors"

	"referral_ledger/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ledgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger operations by outcome (ok, rejected, error)",
		},
		[]string{"operation", "outcome"},
	)
	bonusCredited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_chat_bonus_credited_total",
			Help: "Total amount credited as chat bonus",
		},
	)
	movedAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_amount_total",
			Help: "Total amount moved by transaction type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(ledgerOperations)
	prometheus.MustRegister(bonusCredited)
	prometheus.MustRegister(movedAmount)
}

// observe counts one operation. Business rejections are told apart from faults.
func observe(op string, err error) {
	ledgerOperations.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsValidation(err),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrUserAlreadyExists),
		errors.Is(err, domain.ErrBonusAlreadyClaimed),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrNotSubscribed):
		return "rejected"
	default:
		return "error"
	}
}
