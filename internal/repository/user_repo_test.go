package repository

import (
	"context"
	"sync"
	"testing"

	"referral_ledger/internal/domain"
	"referral_ledger/internal/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createUser(t *testing.T, repo *UserRepository, telegramID int64, code string) *domain.User {
	t.Helper()
	u := &domain.User{TelegramID: telegramID, Username: "user", ReferralCode: code}
	created, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	require.True(t, created)
	return u
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.Pool)
	ctx := context.Background()

	t.Run("user not found", func(t *testing.T) {
		u, err := repo.GetByTelegramID(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, u)

		u, err = repo.GetByReferralCode(ctx, "NOTACODE")
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("created with defaults", func(t *testing.T) {
		u := createUser(t, repo, 1, "AAAA1111")
		assert.NotZero(t, u.ID)
		assert.True(t, u.Balance.IsZero())
		assert.False(t, u.ChatBonusClaimed)
		assert.Nil(t, u.ReferredBy)

		got, err := repo.GetByReferralCode(ctx, "AAAA1111")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("conflicts return false", func(t *testing.T) {
		created, err := repo.Create(ctx, &domain.User{TelegramID: 1, ReferralCode: "BBBB2222"})
		require.NoError(t, err)
		assert.False(t, created)

		created, err = repo.Create(ctx, &domain.User{TelegramID: 2, ReferralCode: "AAAA1111"})
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("referred_by round trips", func(t *testing.T) {
		owner, err := repo.GetByTelegramID(ctx, 1)
		require.NoError(t, err)

		ref := owner.ID
		u := &domain.User{TelegramID: 3, ReferralCode: "CCCC3333", ReferredBy: &ref}
		created, err := repo.Create(ctx, u)
		require.NoError(t, err)
		require.True(t, created)
		require.NotNil(t, u.ReferredBy)
		assert.Equal(t, owner.ID, *u.ReferredBy)
	})
}

func TestUserRepository_ClaimChatBonus(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.Pool)
	ctx := context.Background()
	u := createUser(t, repo, 10, "BONUS001")

	balance, ok, err := repo.ClaimChatBonus(ctx, u.ID, dec("100"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, balance.Equal(dec("100")))

	_, ok, err = repo.ClaimChatBonus(ctx, u.ID, dec("100"))
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByTelegramID(ctx, 10)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("100")))
	assert.True(t, got.ChatBonusClaimed)
}

func TestUserRepository_ClaimChatBonus_Concurrent(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.Pool)
	ctx := context.Background()
	u := createUser(t, repo, 11, "BONUS002")

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		oks int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := repo.ClaimChatBonus(ctx, u.ID, dec("100"))
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				oks++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, oks)
	got, err := repo.GetByTelegramID(ctx, 11)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("100")))
}

func TestUserRepository_DepositAndWithdraw(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.Pool)
	ctx := context.Background()
	u := createUser(t, repo, 20, "MONEY001")

	updated, err := repo.AddDeposit(ctx, u.ID, dec("500"))
	require.NoError(t, err)
	assert.True(t, updated.Balance.Equal(dec("500")))
	assert.True(t, updated.TotalInvested.Equal(dec("500")))

	_, err = repo.AddDeposit(ctx, 987654, dec("1"))
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, ok, err := repo.Withdraw(ctx, u.ID, dec("100"))
	require.NoError(t, err)
	assert.False(t, ok, "invested funds are not withdrawable")

	_, ok, err = repo.ClaimChatBonus(ctx, u.ID, dec("100"))
	require.NoError(t, err)
	require.True(t, ok)

	updated, ok, err = repo.Withdraw(ctx, u.ID, dec("100"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, updated.Balance.Equal(dec("500")))
	assert.True(t, updated.TotalWithdrawn.Equal(dec("100")))
	assert.True(t, updated.Available().IsZero())
}
