package coupons

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	pkgerrors "github.com/velvetsouk/velvetsouk-backend/pkg/errors"
	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
)

func intPtr(v int) *int { return &v }

func baseCoupon() *models.Coupon {
	return &models.Coupon{
		ID:           uuid.New(),
		Code:         "WELCOME20",
		DiscountType: enums.DiscountTypePercentage,
		Value:        decimal.NewFromInt(20),
		ValidFrom:    time.Now().Add(-24 * time.Hour),
		ValidUntil:   time.Now().Add(24 * time.Hour),
		IsActive:     true,
	}
}

func assertBusinessRule(t *testing.T, err error, fragment string) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeBusinessRule, typed.Code())
	assert.Contains(t, typed.Message(), fragment)
}

func TestIsValid(t *testing.T) {
	now := time.Now()

	t.Run("valid coupon passes", func(t *testing.T) {
		assert.NoError(t, IsValid(baseCoupon(), now))
	})

	t.Run("inactive", func(t *testing.T) {
		c := baseCoupon()
		c.IsActive = false
		assertBusinessRule(t, IsValid(c, now), "not active")
	})

	t.Run("not yet valid", func(t *testing.T) {
		c := baseCoupon()
		c.ValidFrom = now.Add(time.Hour)
		assertBusinessRule(t, IsValid(c, now), "not yet valid")
	})

	t.Run("expired", func(t *testing.T) {
		c := baseCoupon()
		c.ValidUntil = now.Add(-time.Hour)
		assertBusinessRule(t, IsValid(c, now), "expired")
	})

	t.Run("global limit reached", func(t *testing.T) {
		c := baseCoupon()
		c.UsageLimitTotal = intPtr(10)
		c.UsedCount = 10
		assertBusinessRule(t, IsValid(c, now), "maximum number of uses")
	})

	t.Run("nil limit is unlimited", func(t *testing.T) {
		c := baseCoupon()
		c.UsedCount = 100000
		assert.NoError(t, IsValid(c, now))
	})
}

func TestCanUserUse(t *testing.T) {
	userID := uuid.New()

	t.Run("per-user limit reached", func(t *testing.T) {
		c := baseCoupon()
		c.UsageLimitPerUser = intPtr(1)
		err := CanUserUse(c, userID, UserUsage{RedemptionCount: 1})
		assertBusinessRule(t, err, "maximum uses")
	})

	t.Run("under per-user limit", func(t *testing.T) {
		c := baseCoupon()
		c.UsageLimitPerUser = intPtr(2)
		assert.NoError(t, CanUserUse(c, userID, UserUsage{RedemptionCount: 1}))
	})

	t.Run("first purchase only with prior orders", func(t *testing.T) {
		c := baseCoupon()
		c.FirstPurchaseOnly = true
		err := CanUserUse(c, userID, UserUsage{PriorOrderCount: 3})
		assertBusinessRule(t, err, "first purchase")
	})

	t.Run("allowlist excludes user", func(t *testing.T) {
		c := baseCoupon()
		c.EligibleUsers = []string{uuid.NewString()}
		err := CanUserUse(c, userID, UserUsage{})
		assertBusinessRule(t, err, "not available")
	})

	t.Run("allowlist includes user", func(t *testing.T) {
		c := baseCoupon()
		c.EligibleUsers = []string{userID.String()}
		assert.NoError(t, CanUserUse(c, userID, UserUsage{}))
	})
}

func TestAppliesTo(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()

	t.Run("no filters applies to anything", func(t *testing.T) {
		assert.NoError(t, AppliesTo(baseCoupon(), []LineRef{{ProductID: productA}}))
	})

	t.Run("excluded product rejects", func(t *testing.T) {
		c := baseCoupon()
		c.ExcludedProducts = []string{productA.String()}
		err := AppliesTo(c, []LineRef{{ProductID: productA}, {ProductID: productB}})
		assertBusinessRule(t, err, "cannot be used")
	})

	t.Run("allowlist with no match rejects", func(t *testing.T) {
		c := baseCoupon()
		c.ApplicableProducts = []string{uuid.NewString()}
		err := AppliesTo(c, []LineRef{{ProductID: productA}})
		assertBusinessRule(t, err, "does not apply")
	})

	t.Run("allowlist matched by product", func(t *testing.T) {
		c := baseCoupon()
		c.ApplicableProducts = []string{productA.String()}
		assert.NoError(t, AppliesTo(c, []LineRef{{ProductID: productA}}))
	})

	t.Run("allowlist matched by category", func(t *testing.T) {
		c := baseCoupon()
		c.ApplicableCategories = []string{"home"}
		assert.NoError(t, AppliesTo(c, []LineRef{{ProductID: productA, Category: "Home"}}))
	})
}

func TestDiscount(t *testing.T) {
	cases := []struct {
		name     string
		coupon   *models.Coupon
		subtotal int
		want     int
	}{
		{
			name: "percentage basic",
			coupon: &models.Coupon{
				DiscountType: enums.DiscountTypePercentage,
				Value:        decimal.NewFromInt(20),
			},
			subtotal: 20000,
			want:     4000,
		},
		{
			name: "percentage rounds half up",
			coupon: &models.Coupon{
				DiscountType: enums.DiscountTypePercentage,
				Value:        decimal.RequireFromString("12.5"),
			},
			subtotal: 999,
			// 999 * 12.5% = 124.875 -> 125
			want: 125,
		},
		{
			name: "percentage capped at max discount",
			coupon: &models.Coupon{
				DiscountType:     enums.DiscountTypePercentage,
				Value:            decimal.NewFromInt(50),
				MaxDiscountCents: intPtr(1000),
			},
			subtotal: 20000,
			want:     1000,
		},
		{
			name: "fixed flat amount",
			coupon: &models.Coupon{
				DiscountType: enums.DiscountTypeFixed,
				Value:        decimal.RequireFromString("10.50"),
			},
			subtotal: 20000,
			want:     1050,
		},
		{
			name: "fixed clamped to subtotal",
			coupon: &models.Coupon{
				DiscountType: enums.DiscountTypeFixed,
				Value:        decimal.NewFromInt(50),
			},
			subtotal: 1999,
			want:     1999,
		},
		{
			name: "zero subtotal yields zero",
			coupon: &models.Coupon{
				DiscountType: enums.DiscountTypePercentage,
				Value:        decimal.NewFromInt(20),
			},
			subtotal: 0,
			want:     0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Discount(tc.coupon, tc.subtotal))
		})
	}
}

func TestDiscountNeverExceedsSubtotal(t *testing.T) {
	c := &models.Coupon{
		DiscountType: enums.DiscountTypePercentage,
		Value:        decimal.NewFromInt(100),
	}
	for _, subtotal := range []int{1, 99, 101, 12345, 999999} {
		got := Discount(c, subtotal)
		assert.LessOrEqual(t, got, subtotal)
		assert.GreaterOrEqual(t, got, 0)
	}
}
