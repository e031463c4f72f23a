package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"referral_ledger/internal/domain"
	"referral_ledger/internal/logger"

	"github.com/shopspring/decimal"
)

// Config holds the business parameters of the ledger
type Config struct {
	BonusAmount        decimal.Decimal
	MinWithdrawal      decimal.Decimal
	RecentTransactions int
	// BonusChannel is the chat a user must belong to before claiming the
	// chat bonus. Empty disables the membership check.
	BonusChannel      string
	MembershipTimeout time.Duration
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		BonusAmount:        decimal.NewFromInt(100),
		MinWithdrawal:      decimal.NewFromInt(100),
		RecentTransactions: 10,
		MembershipTimeout:  5 * time.Second,
	}
}

var subscribedStatuses = map[string]bool{
	"member":        true,
	"administrator": true,
	"creator":       true,
}

// LedgerService moves balance, total_invested and total_withdrawn together
// and keeps the transaction history in step with them
type LedgerService struct {
	store        Store
	members      MembershipChecker
	cfg          Config
	generateCode func() (string, error)
	notifier     WithdrawalNotifier
}

// NewLedgerService creates a ledger service. members may be nil, which
// disables the subscription check for the chat bonus.
func NewLedgerService(store Store, members MembershipChecker, cfg Config) *LedgerService {
	def := DefaultConfig()
	if !cfg.BonusAmount.IsPositive() {
		cfg.BonusAmount = def.BonusAmount
	}
	if !cfg.MinWithdrawal.IsPositive() {
		cfg.MinWithdrawal = def.MinWithdrawal
	}
	if cfg.RecentTransactions <= 0 {
		cfg.RecentTransactions = def.RecentTransactions
	}
	if cfg.MembershipTimeout <= 0 {
		cfg.MembershipTimeout = def.MembershipTimeout
	}

	return &LedgerService{
		store:        store,
		members:      members,
		cfg:          cfg,
		generateCode: GenerateReferralCode,
	}
}

// SetWithdrawalNotifier registers n to hear about new withdrawal requests
func (s *LedgerService) SetWithdrawalNotifier(n WithdrawalNotifier) {
	s.notifier = n
}

// DepositResult is returned by CreateDeposit
type DepositResult struct {
	Deposit       *domain.Deposit
	Balance       decimal.Decimal
	TotalInvested decimal.Decimal
}

// WithdrawalResult is returned by CreateWithdrawal
type WithdrawalResult struct {
	Transaction *domain.Transaction
	Balance     decimal.Decimal
	Available   decimal.Decimal

	username string
}

// RegistrationResult is returned by RegisterWithReferral
type RegistrationResult struct {
	User     *domain.User
	Referrer *domain.User
}

// GetOrCreateUser returns the user with freshly computed aggregates,
// creating the account on first sight
func (s *LedgerService) GetOrCreateUser(ctx context.Context, telegramID int64, username string) (snap *domain.UserSnapshot, err error) {
	defer func() { observe("get_user", err) }()

	if telegramID == 0 {
		return nil, domain.NewValidationError("telegram_id required")
	}

	err = s.store.WithTx(ctx, func(uow UnitOfWork) error {
		user, err := uow.Users().GetByTelegramID(ctx, telegramID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		if user == nil {
			var created bool
			user, created, err = s.createUser(ctx, uow, telegramID, username, nil)
			if err != nil {
				return err
			}
			if created {
				s.logFor(ctx).Info("user created",
					"telegram_id", telegramID, "user_id", user.ID)
			}
		}

		snap, err = s.snapshot(ctx, uow, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *LedgerService) snapshot(ctx context.Context, uow UnitOfWork, user *domain.User) (*domain.UserSnapshot, error) {
	active, err := uow.Deposits().SumActive(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("sum active deposits: %w", err)
	}

	refs, err := uow.Referrals().Summary(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("referral summary: %w", err)
	}

	txs, err := uow.Transactions().ListRecent(ctx, user.ID, s.cfg.RecentTransactions)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	views := make([]domain.TransactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, tx.View())
	}

	return &domain.UserSnapshot{
		User:           *user,
		ActiveDeposits: active,
		Referrals:      *refs,
		Transactions:   views,
	}, nil
}

// createUser inserts a user with a fresh referral code, retrying on code
// collisions. When the telegram id was taken concurrently it returns the
// existing user with created=false.
func (s *LedgerService) createUser(ctx context.Context, uow UnitOfWork, telegramID int64, username string, referredBy *int64) (*domain.User, bool, error) {
	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return nil, false, err
		}

		user := &domain.User{
			TelegramID:   telegramID,
			Username:     username,
			ReferralCode: code,
			ReferredBy:   referredBy,
		}
		created, err := uow.Users().Create(ctx, user)
		if err != nil {
			return nil, false, fmt.Errorf("create user: %w", err)
		}
		if created {
			return user, true, nil
		}

		existing, err := uow.Users().GetByTelegramID(ctx, telegramID)
		if err != nil {
			return nil, false, fmt.Errorf("get user: %w", err)
		}
		if existing != nil {
			return existing, false, nil
		}
		// referral code collision, try another one
	}
	return nil, false, fmt.Errorf("create user: no unique referral code after %d attempts", referralCodeAttempts)
}

// ClaimChatBonus credits the one-time chat bonus and returns the new balance
func (s *LedgerService) ClaimChatBonus(ctx context.Context, telegramID int64) (newBalance decimal.Decimal, err error) {
	defer func() { observe("claim_chat_bonus", err) }()

	if telegramID == 0 {
		return decimal.Zero, domain.NewValidationError("telegram_id required")
	}

	var user *domain.User
	err = s.store.WithTx(ctx, func(uow UnitOfWork) error {
		user, err = uow.Users().GetByTelegramID(ctx, telegramID)
		return err
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return decimal.Zero, domain.ErrUserNotFound
	}
	if user.ChatBonusClaimed {
		return decimal.Zero, domain.ErrBonusAlreadyClaimed
	}

	// The membership call runs outside the store transaction so no
	// connection is held while waiting on the messaging platform.
	if err := s.checkSubscribed(ctx, telegramID); err != nil {
		return decimal.Zero, err
	}

	err = s.store.WithTx(ctx, func(uow UnitOfWork) error {
		balance, ok, err := uow.Users().ClaimChatBonus(ctx, user.ID, s.cfg.BonusAmount)
		if err != nil {
			return fmt.Errorf("credit bonus: %w", err)
		}
		if !ok {
			return domain.ErrBonusAlreadyClaimed
		}

		err = uow.Transactions().Create(ctx, &domain.Transaction{
			UserID: user.ID,
			Type:   domain.TransactionTypeBonus,
			Amount: s.cfg.BonusAmount,
			Status: domain.TransactionStatusSuccess,
			Meta:   map[string]interface{}{"reason": "chat_subscription"},
		})
		if err != nil {
			return fmt.Errorf("record bonus transaction: %w", err)
		}

		newBalance = balance
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	bonusCredited.Add(s.cfg.BonusAmount.InexactFloat64())
	s.logFor(ctx).Info("chat bonus claimed",
		"telegram_id", telegramID, "amount", s.cfg.BonusAmount.String(), "balance", newBalance.String())
	return newBalance, nil
}

func (s *LedgerService) checkSubscribed(ctx context.Context, telegramID int64) error {
	if s.members == nil || s.cfg.BonusChannel == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.MembershipTimeout)
	defer cancel()

	status, err := s.members.ChatMemberStatus(ctx, s.cfg.BonusChannel, telegramID)
	if err != nil {
		return fmt.Errorf("check channel membership: %w", err)
	}
	if !subscribedStatuses[status] {
		s.logFor(ctx).Info("bonus refused, not subscribed",
			"telegram_id", telegramID, "status", status)
		return domain.ErrNotSubscribed
	}
	return nil
}

// CreateDeposit records a deposit. Balance and total_invested grow together,
// so deposited funds never become withdrawable.
func (s *LedgerService) CreateDeposit(ctx context.Context, telegramID int64, amount decimal.Decimal) (res *DepositResult, err error) {
	defer func() { observe("create_deposit", err) }()

	if telegramID == 0 || !amount.IsPositive() || !domain.IsMoney(amount) {
		return nil, domain.NewValidationError("Invalid data")
	}

	err = s.store.WithTx(ctx, func(uow UnitOfWork) error {
		user, err := uow.Users().GetByTelegramID(ctx, telegramID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if user == nil {
			return domain.ErrUserNotFound
		}

		deposit := &domain.Deposit{
			UserID: user.ID,
			Amount: amount,
			Status: domain.DepositStatusActive,
		}
		if err := uow.Deposits().Create(ctx, deposit); err != nil {
			return fmt.Errorf("create deposit: %w", err)
		}

		updated, err := uow.Users().AddDeposit(ctx, user.ID, amount)
		if err != nil {
			return fmt.Errorf("update invested total: %w", err)
		}

		err = uow.Transactions().Create(ctx, &domain.Transaction{
			UserID: user.ID,
			Type:   domain.TransactionTypeDeposit,
			Amount: amount,
			Status: domain.TransactionStatusSuccess,
			Meta:   map[string]interface{}{"deposit_id": deposit.ID},
		})
		if err != nil {
			return fmt.Errorf("record deposit transaction: %w", err)
		}

		res = &DepositResult{
			Deposit:       deposit,
			Balance:       updated.Balance,
			TotalInvested: updated.TotalInvested,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	movedAmount.WithLabelValues(string(domain.TransactionTypeDeposit)).Add(amount.InexactFloat64())
	s.logFor(ctx).Info("deposit created",
		"telegram_id", telegramID, "deposit_id", res.Deposit.ID, "amount", amount.String())
	return res, nil
}

// CreateWithdrawal reserves amount out of the available balance and records
// a pending withdrawal for later settlement
func (s *LedgerService) CreateWithdrawal(ctx context.Context, telegramID int64, amount decimal.Decimal, destination string) (res *WithdrawalResult, err error) {
	defer func() { observe("create_withdrawal", err) }()

	destination = strings.TrimSpace(destination)
	if telegramID == 0 || !domain.IsMoney(amount) || amount.LessThan(s.cfg.MinWithdrawal) || destination == "" {
		return nil, domain.NewValidationError(fmt.Sprintf("Invalid data (min %s)", s.cfg.MinWithdrawal.String()))
	}

	err = s.store.WithTx(ctx, func(uow UnitOfWork) error {
		user, err := uow.Users().GetByTelegramID(ctx, telegramID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if user == nil {
			return domain.ErrUserNotFound
		}

		updated, ok, err := uow.Users().Withdraw(ctx, user.ID, amount)
		if err != nil {
			return fmt.Errorf("reserve withdrawal: %w", err)
		}
		if !ok {
			return domain.ErrInsufficientBalance
		}

		tx := &domain.Transaction{
			UserID: user.ID,
			Type:   domain.TransactionTypeWithdrawal,
			Amount: amount,
			Status: domain.TransactionStatusPending,
			Meta:   map[string]interface{}{"destination": destination},
		}
		if err := uow.Transactions().Create(ctx, tx); err != nil {
			return fmt.Errorf("record withdrawal transaction: %w", err)
		}

		res = &WithdrawalResult{
			Transaction: tx,
			Balance:     updated.Balance,
			Available:   updated.Available(),
			username:    user.Username,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	movedAmount.WithLabelValues(string(domain.TransactionTypeWithdrawal)).Add(amount.InexactFloat64())
	s.logFor(ctx).Info("withdrawal requested",
		"telegram_id", telegramID, "transaction_id", res.Transaction.ID,
		"amount", amount.String(), "destination", MaskDestination(destination))

	if s.notifier != nil {
		s.notifier.WithdrawalRequested(WithdrawalNotice{
			TransactionID: res.Transaction.ID,
			TelegramID:    telegramID,
			Username:      res.username,
			Amount:        amount,
			Destination:   destination,
		})
	}
	return res, nil
}

// CheckReferralCode looks a code up. Unknown codes are a negative result, not an error.
func (s *LedgerService) CheckReferralCode(ctx context.Context, code string) (res *domain.ReferralCheck, err error) {
	defer func() { observe("check_referral", err) }()

	code = normalizeCode(code)
	if code == "" {
		return nil, domain.NewValidationError("Referral code required")
	}

	var referrer *domain.User
	err = s.store.WithTx(ctx, func(uow UnitOfWork) error {
		referrer, err = uow.Users().GetByReferralCode(ctx, code)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("lookup referral code: %w", err)
	}

	if referrer == nil {
		return &domain.ReferralCheck{Valid: false}, nil
	}
	return &domain.ReferralCheck{Valid: true, Referrer: referrer.Username, Code: referrer.ReferralCode}, nil
}

// RegisterWithReferral creates exactly one new user, linked to the owner of
// referralCode when the code resolves
func (s *LedgerService) RegisterWithReferral(ctx context.Context, telegramID int64, username, referralCode string) (res *RegistrationResult, err error) {
	defer func() { observe("register_with_referral", err) }()

	if telegramID == 0 {
		return nil, domain.NewValidationError("telegram_id required")
	}
	referralCode = normalizeCode(referralCode)

	err = s.store.WithTx(ctx, func(uow UnitOfWork) error {
		existing, err := uow.Users().GetByTelegramID(ctx, telegramID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if existing != nil {
			return domain.ErrUserAlreadyExists
		}

		var referrer *domain.User
		if referralCode != "" {
			referrer, err = uow.Users().GetByReferralCode(ctx, referralCode)
			if err != nil {
				return fmt.Errorf("lookup referral code: %w", err)
			}
		}

		var referredBy *int64
		if referrer != nil {
			id := referrer.ID
			referredBy = &id
		}

		user, created, err := s.createUser(ctx, uow, telegramID, username, referredBy)
		if err != nil {
			return err
		}
		if !created {
			return domain.ErrUserAlreadyExists
		}

		if referrer != nil {
			err = uow.Referrals().Create(ctx, &domain.Referral{
				ReferrerID:  referrer.ID,
				ReferredID:  user.ID,
				BonusAmount: decimal.Zero,
			})
			if err != nil {
				return fmt.Errorf("create referral: %w", err)
			}
		}

		res = &RegistrationResult{User: user, Referrer: referrer}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l := s.logFor(ctx)
	if res.Referrer != nil {
		l.Info("user registered with referral", "telegram_id", telegramID, "referrer_id", res.Referrer.ID)
	} else {
		l.Info("user registered", "telegram_id", telegramID)
	}
	return res, nil
}

func (s *LedgerService) logFor(ctx context.Context) *slog.Logger {
	return logger.FromContext(ctx).With("component", "ledger")
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// MaskDestination hides all but the last four characters of a payout destination
func MaskDestination(dest string) string {
	r := []rune(strings.ReplaceAll(dest, " ", ""))
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}
