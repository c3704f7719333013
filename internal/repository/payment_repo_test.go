package repository

import (
	"context"
	"sync"
	"testing"

	"dirigia/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func countPayments(t *testing.T, repo *paymentRepo, billingID, status string) int {
	t.Helper()
	var n int
	err := repo.pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM payments WHERE billing_id = $1 AND status = $2`, billingID, status).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestApprovePurchaseIsIdempotent(t *testing.T) {
	pool := testPool(t)
	repo := &paymentRepo{pool: pool}
	profiles := NewProfileRepo(pool)
	ctx := context.Background()
	userID := seedProfile(t, pool, "free")

	p := &model.Payment{
		UserID:        userID,
		BillingID:     "cs_approve",
		Plan:          "monthly",
		Amount:        4990,
		PaymentMethod: model.MethodStripe,
		ProviderRef:   strPtr("pi_approve"),
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []UpsertResult
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := repo.ApprovePurchase(ctx, p)
			assert.NoError(t, err)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}()
	}
	wg.Wait()

	inserted := 0
	for _, r := range results {
		if r == Inserted {
			inserted++
		}
	}
	assert.Equal(t, 1, inserted, results)
	assert.Equal(t, 1, countPayments(t, repo, "cs_approve", "PAID"))

	got, err := repo.GetByProviderRef(ctx, "pi_approve")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, userID, got.UserID)
	assert.NotNil(t, got.PaidAt)

	prof, err := profiles.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, prof.IsPremium())
}

func TestInsertPendingIfAbsent(t *testing.T) {
	pool := testPool(t)
	repo := &paymentRepo{pool: pool}
	ctx := context.Background()
	userID := seedProfile(t, pool, "free")

	p := &model.Payment{
		UserID:        userID,
		BillingID:     "bill_pending",
		Plan:          "monthly",
		Amount:        4990,
		PaymentMethod: model.MethodPix,
		BrCode:        strPtr("000201"),
	}
	created, err := repo.InsertPendingIfAbsent(ctx, p)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.InsertPendingIfAbsent(ctx, p)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, countPayments(t, repo, "bill_pending", "PENDING"))

	res, err := repo.ApprovePurchase(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, Updated, res)

	created, err = repo.InsertPendingIfAbsent(ctx, p)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.GetByBillingID(ctx, "bill_pending")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, got.Status)
	require.NotNil(t, got.BrCode)
	assert.Equal(t, "000201", *got.BrCode)
}

func TestMarkExpired(t *testing.T) {
	pool := testPool(t)
	repo := &paymentRepo{pool: pool}
	ctx := context.Background()
	userID := seedProfile(t, pool, "free")

	for _, id := range []string{"bill_exp", "bill_paid"} {
		_, err := repo.InsertPendingIfAbsent(ctx, &model.Payment{
			UserID: userID, BillingID: id, Plan: "monthly", Amount: 4990, PaymentMethod: model.MethodPix,
		})
		require.NoError(t, err)
	}
	_, err := repo.ApprovePurchase(ctx, &model.Payment{
		UserID: userID, BillingID: "bill_paid", Plan: "monthly", Amount: 4990, PaymentMethod: model.MethodPix,
	})
	require.NoError(t, err)

	t.Run("pending row expires once", func(t *testing.T) {
		ok, err := repo.MarkExpired(ctx, "bill_exp")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.MarkExpired(ctx, "bill_exp")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("paid row is not expired", func(t *testing.T) {
		ok, err := repo.MarkExpired(ctx, "bill_paid")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 1, countPayments(t, repo, "bill_paid", "PAID"))
	})

	t.Run("unknown billing id", func(t *testing.T) {
		ok, err := repo.MarkExpired(ctx, "bill_missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
