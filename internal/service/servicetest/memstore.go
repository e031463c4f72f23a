// Package servicetest provides in-memory doubles for the ledger service.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"referral_ledger/internal/domain"
	"referral_ledger/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MemStore is a service.Store kept in memory. Transactions are serialized and
// a failing unit of work restores the state it started from.
type MemStore struct {
	mu    sync.Mutex
	state memState

	// Fail makes the named repository call return the error,
	// e.g. "transactions.Create" or "users.Withdraw".
	Fail map[string]error
}

var _ service.Store = (*MemStore)(nil)

type memState struct {
	users        []domain.User
	deposits     []domain.Deposit
	transactions []domain.Transaction
	referrals    []domain.Referral
	nextID       int64
}

func (st memState) clone() memState {
	out := memState{nextID: st.nextID}
	out.users = append([]domain.User(nil), st.users...)
	out.deposits = append([]domain.Deposit(nil), st.deposits...)
	out.referrals = append([]domain.Referral(nil), st.referrals...)
	out.transactions = make([]domain.Transaction, len(st.transactions))
	for i, tx := range st.transactions {
		tx.Meta = copyMeta(tx.Meta)
		out.transactions[i] = tx
	}
	for i := range out.users {
		if ref := out.users[i].ReferredBy; ref != nil {
			id := *ref
			out.users[i].ReferredBy = &id
		}
	}
	return out
}

func NewMemStore() *MemStore {
	return &MemStore{Fail: map[string]error{}}
}

func (s *MemStore) WithTx(ctx context.Context, fn func(uow service.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.state.clone()
	if err := fn(&memUnitOfWork{s: s}); err != nil {
		s.state = saved
		return err
	}
	return nil
}

// User returns a copy of the user with telegramID, or nil
func (s *MemStore) User(telegramID int64) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u := s.findUser(func(u *domain.User) bool { return u.TelegramID == telegramID }); u != nil {
		cp := *u
		return &cp
	}
	return nil
}

// UserCount returns the number of stored users
func (s *MemStore) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.users)
}

// Transactions returns copies of the user's transactions in insertion order
func (s *MemStore) Transactions(userID int64) []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Transaction
	for _, tx := range s.state.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out
}

// Deposits returns copies of the user's deposits
func (s *MemStore) Deposits(userID int64) []domain.Deposit {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Deposit
	for _, d := range s.state.deposits {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out
}

// Referrals returns copies of all referral links
func (s *MemStore) Referrals() []domain.Referral {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Referral(nil), s.state.referrals...)
}

// SetInvested overrides a user's total_invested, for referral activity setups
func (s *MemStore) SetInvested(telegramID int64, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u := s.findUser(func(u *domain.User) bool { return u.TelegramID == telegramID }); u != nil {
		u.TotalInvested = amount
	}
}

func (s *MemStore) findUser(match func(*domain.User) bool) *domain.User {
	for i := range s.state.users {
		if match(&s.state.users[i]) {
			return &s.state.users[i]
		}
	}
	return nil
}

func (s *MemStore) next() int64 {
	s.state.nextID++
	return s.state.nextID
}

func (s *MemStore) fail(op string) error {
	if err, ok := s.Fail[op]; ok && err != nil {
		return err
	}
	return nil
}

type memUnitOfWork struct {
	s *MemStore
}

func (u *memUnitOfWork) Users() service.UserRepository               { return memUsers{u.s} }
func (u *memUnitOfWork) Deposits() service.DepositRepository         { return memDeposits{u.s} }
func (u *memUnitOfWork) Transactions() service.TransactionRepository { return memTransactions{u.s} }
func (u *memUnitOfWork) Referrals() service.ReferralRepository       { return memReferrals{u.s} }

type memUsers struct{ s *MemStore }

func (r memUsers) lookup(match func(*domain.User) bool) *domain.User {
	if u := r.s.findUser(match); u != nil {
		cp := *u
		return &cp
	}
	return nil
}

func (r memUsers) GetByTelegramID(_ context.Context, telegramID int64) (*domain.User, error) {
	if err := r.s.fail("users.GetByTelegramID"); err != nil {
		return nil, err
	}
	return r.lookup(func(u *domain.User) bool { return u.TelegramID == telegramID }), nil
}

func (r memUsers) GetByReferralCode(_ context.Context, code string) (*domain.User, error) {
	if err := r.s.fail("users.GetByReferralCode"); err != nil {
		return nil, err
	}
	return r.lookup(func(u *domain.User) bool { return u.ReferralCode == code }), nil
}

func (r memUsers) Create(_ context.Context, u *domain.User) (bool, error) {
	if err := r.s.fail("users.Create"); err != nil {
		return false, err
	}
	taken := r.s.findUser(func(x *domain.User) bool {
		return x.TelegramID == u.TelegramID || x.ReferralCode == u.ReferralCode
	})
	if taken != nil {
		return false, nil
	}

	u.ID = r.s.next()
	u.Balance = decimal.Zero
	u.TotalInvested = decimal.Zero
	u.TotalWithdrawn = decimal.Zero
	u.ChatBonusClaimed = false
	u.CreatedAt = time.Now()
	r.s.state.users = append(r.s.state.users, *u)
	return true, nil
}

func (r memUsers) ClaimChatBonus(_ context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	if err := r.s.fail("users.ClaimChatBonus"); err != nil {
		return decimal.Zero, false, err
	}
	u := r.s.findUser(func(u *domain.User) bool { return u.ID == userID })
	if u == nil || u.ChatBonusClaimed {
		return decimal.Zero, false, nil
	}
	u.Balance = u.Balance.Add(amount)
	u.ChatBonusClaimed = true
	return u.Balance, true, nil
}

func (r memUsers) AddDeposit(_ context.Context, userID int64, amount decimal.Decimal) (*domain.User, error) {
	if err := r.s.fail("users.AddDeposit"); err != nil {
		return nil, err
	}
	u := r.s.findUser(func(u *domain.User) bool { return u.ID == userID })
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	u.Balance = u.Balance.Add(amount)
	u.TotalInvested = u.TotalInvested.Add(amount)
	cp := *u
	return &cp, nil
}

func (r memUsers) Withdraw(_ context.Context, userID int64, amount decimal.Decimal) (*domain.User, bool, error) {
	if err := r.s.fail("users.Withdraw"); err != nil {
		return nil, false, err
	}
	u := r.s.findUser(func(u *domain.User) bool { return u.ID == userID })
	if u == nil || u.Available().LessThan(amount) {
		return nil, false, nil
	}
	u.Balance = u.Balance.Sub(amount)
	u.TotalWithdrawn = u.TotalWithdrawn.Add(amount)
	cp := *u
	return &cp, true, nil
}

type memDeposits struct{ s *MemStore }

func (r memDeposits) Create(_ context.Context, d *domain.Deposit) error {
	if err := r.s.fail("deposits.Create"); err != nil {
		return err
	}
	if d.Status == "" {
		d.Status = domain.DepositStatusActive
	}
	d.ID = r.s.next()
	d.CreatedAt = time.Now()
	r.s.state.deposits = append(r.s.state.deposits, *d)
	return nil
}

func (r memDeposits) SumActive(_ context.Context, userID int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, d := range r.s.state.deposits {
		if d.UserID == userID && d.Status == domain.DepositStatusActive {
			sum = sum.Add(d.Amount)
		}
	}
	return sum, nil
}

type memTransactions struct{ s *MemStore }

func (r memTransactions) Create(_ context.Context, tx *domain.Transaction) error {
	if err := r.s.fail("transactions.Create"); err != nil {
		return err
	}
	if tx.Type == "" || tx.Status == "" {
		return fmt.Errorf("transaction type and status required")
	}
	tx.ID = r.s.next()
	tx.CreatedAt = time.Now()
	stored := *tx
	stored.Meta = copyMeta(tx.Meta)
	r.s.state.transactions = append(r.s.state.transactions, stored)
	return nil
}

func (r memTransactions) ListRecent(_ context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, tx := range r.s.state.transactions {
		if tx.UserID == userID {
			cp := tx
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memReferrals struct{ s *MemStore }

func (r memReferrals) Create(_ context.Context, ref *domain.Referral) error {
	if err := r.s.fail("referrals.Create"); err != nil {
		return err
	}
	for _, existing := range r.s.state.referrals {
		if existing.ReferredID == ref.ReferredID {
			return fmt.Errorf("referral for user %d already exists", ref.ReferredID)
		}
	}
	ref.ID = r.s.next()
	ref.CreatedAt = time.Now()
	r.s.state.referrals = append(r.s.state.referrals, *ref)
	return nil
}

func (r memReferrals) Summary(_ context.Context, referrerID int64) (*domain.ReferralSummary, error) {
	sum := &domain.ReferralSummary{Income: decimal.Zero}
	for _, ref := range r.s.state.referrals {
		if ref.ReferrerID != referrerID {
			continue
		}
		sum.Total++
		sum.Income = sum.Income.Add(ref.BonusAmount)
		if u := r.s.findUser(func(u *domain.User) bool { return u.ID == ref.ReferredID }); u != nil && u.TotalInvested.IsPositive() {
			sum.Active++
		}
	}
	return sum, nil
}

func copyMeta(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MockMembershipChecker is a testify mock of service.MembershipChecker
type MockMembershipChecker struct {
	mock.Mock
}

var _ service.MembershipChecker = (*MockMembershipChecker)(nil)

func (m *MockMembershipChecker) ChatMemberStatus(ctx context.Context, channel string, telegramID int64) (string, error) {
	args := m.Called(ctx, channel, telegramID)
	return args.String(0), args.Error(1)
}
