package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetsouk/velvetsouk-backend/internal/testdb"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
)

func seedCoupon(t *testing.T, repo Repository, limit *int) *models.Coupon {
	t.Helper()
	coupon, err := repo.Create(context.Background(), &models.Coupon{
		Code:            "ledger-" + uuid.NewString()[:8],
		DiscountType:    enums.DiscountTypePercentage,
		Value:           decimal.NewFromInt(15),
		ValidFrom:       time.Now().Add(-time.Hour),
		ValidUntil:      time.Now().Add(time.Hour),
		UsageLimitTotal: limit,
		IsActive:        true,
		IsPublic:        true,
	})
	require.NoError(t, err)
	return coupon
}

func TestFindByCodeIsCaseInsensitive(t *testing.T) {
	repo := NewRepository(testdb.Open(t))
	coupon := seedCoupon(t, repo, nil)

	found, err := repo.FindByCode(context.Background(), "  "+coupon.Code+"  ")
	require.NoError(t, err)
	assert.Equal(t, coupon.ID, found.ID)

	// stored uppercase, looked up lowercase
	lower, err := repo.FindByCode(context.Background(), "ledger-"+coupon.Code[7:])
	require.NoError(t, err)
	assert.Equal(t, coupon.ID, lower.ID)
}

func TestCreateDefaultsFilterListsToEmpty(t *testing.T) {
	repo := NewRepository(testdb.Open(t))
	coupon := seedCoupon(t, repo, nil)

	assert.NotNil(t, coupon.ApplicableProducts)
	assert.NotNil(t, coupon.ExcludedProducts)
	assert.NotNil(t, coupon.ApplicableCategories)
	assert.NotNil(t, coupon.EligibleUsers)

	reloaded, err := repo.FindByID(context.Background(), coupon.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.ApplicableProducts)
	assert.Empty(t, reloaded.EligibleUsers)
}

func TestIncrementUsageStopsAtLimit(t *testing.T) {
	repo := NewRepository(testdb.Open(t))
	limit := 2
	coupon := seedCoupon(t, repo, &limit)

	for i := 0; i < 2; i++ {
		ok, err := repo.IncrementUsage(context.Background(), coupon.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := repo.IncrementUsage(context.Background(), coupon.ID)
	require.NoError(t, err)
	assert.False(t, ok, "third increment must be rejected")

	reloaded, err := repo.FindByID(context.Background(), coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.UsedCount)
}

func TestIncrementUsageUnlimitedWhenNoLimit(t *testing.T) {
	repo := NewRepository(testdb.Open(t))
	coupon := seedCoupon(t, repo, nil)

	for i := 0; i < 5; i++ {
		ok, err := repo.IncrementUsage(context.Background(), coupon.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestCountRedemptionsForUser(t *testing.T) {
	repo := NewRepository(testdb.Open(t))
	coupon := seedCoupon(t, repo, nil)
	userID := uuid.New()

	require.NoError(t, repo.CreateRedemption(context.Background(), &models.CouponRedemption{
		CouponID: coupon.ID,
		UserID:   userID,
		OrderID:  uuid.New(),
	}))
	require.NoError(t, repo.CreateRedemption(context.Background(), &models.CouponRedemption{
		CouponID: coupon.ID,
		UserID:   uuid.New(),
		OrderID:  uuid.New(),
	}))

	count, err := repo.CountRedemptionsForUser(context.Background(), coupon.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
