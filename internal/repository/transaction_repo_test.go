package repository

import (
	"context"
	"testing"

	"referral_ledger/internal/domain"
	"referral_ledger/internal/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRepository_CreateRejectsUnencodableMeta(t *testing.T) {
	// encoding fails before the database is touched
	repo := NewTransactionRepository(nil)

	err := repo.Create(context.Background(), &domain.Transaction{
		UserID: 1,
		Type:   domain.TransactionTypeWithdrawal,
		Amount: dec("100"),
		Status: domain.TransactionStatusPending,
		Meta:   map[string]interface{}{"destination": make(chan int)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode transaction meta")
}

func TestTransactionRepository_ListRecentSurfacesCorruptMeta(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	u := createUser(t, NewUserRepository(testDB.Pool), 60, "BADMETA1")

	_, err := testDB.Pool.Exec(ctx,
		`INSERT INTO transactions (user_id, type, amount, status, meta)
		 VALUES ($1, 'withdrawal', 100, 'pending', '["4111111111111111"]'::jsonb)`,
		u.ID,
	)
	require.NoError(t, err)

	txs, err := NewTransactionRepository(testDB.Pool).ListRecent(ctx, u.ID, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode meta")
	assert.Nil(t, txs)
}
