package repository

import (
	"context"

	"referral_ledger/internal/db"
	"referral_ledger/internal/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// unitOfWork binds every repository to one pgx transaction
type unitOfWork struct {
	users        *UserRepository
	deposits     *DepositRepository
	transactions *TransactionRepository
	referrals    *ReferralRepository
}

func newUnitOfWork(q Querier) *unitOfWork {
	return &unitOfWork{
		users:        NewUserRepository(q),
		deposits:     NewDepositRepository(q),
		transactions: NewTransactionRepository(q),
		referrals:    NewReferralRepository(q),
	}
}

func (u *unitOfWork) Users() service.UserRepository               { return u.users }
func (u *unitOfWork) Deposits() service.DepositRepository         { return u.deposits }
func (u *unitOfWork) Transactions() service.TransactionRepository { return u.transactions }
func (u *unitOfWork) Referrals() service.ReferralRepository       { return u.referrals }

// Store runs units of work against PostgreSQL, one transaction each
type Store struct {
	pool *pgxpool.Pool
}

var _ service.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithTx runs fn inside a transaction; an error from fn rolls back every write it made
func (s *Store) WithTx(ctx context.Context, fn func(uow service.UnitOfWork) error) error {
	return db.WithTransaction(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(newUnitOfWork(tx))
	})
}
