package coupons

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	pkgerrors "github.com/velvetsouk/velvetsouk-backend/pkg/errors"
	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
)

// LineRef is the slice of cart state the eligibility predicates need.
type LineRef struct {
	ProductID uuid.UUID
	Category  string
}

// UserUsage captures the per-user history consulted by CanUserUse.
type UserUsage struct {
	RedemptionCount int
	PriorOrderCount int
}

var oneHundred = decimal.NewFromInt(100)

// IsValid checks the coupon's own state: active flag, validity window and the
// global usage limit. It ignores the user and the cart entirely.
//
// The three predicates are deliberately separate so each failure carries its
// own user-facing message, and Discount stays pure for table testing.
func IsValid(coupon *models.Coupon, now time.Time) error {
	if coupon == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	if !coupon.IsActive {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "this coupon is not active")
	}
	if now.Before(coupon.ValidFrom) {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "this coupon is not yet valid")
	}
	if now.After(coupon.ValidUntil) {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "this coupon has expired")
	}
	if coupon.UsageLimitTotal != nil && coupon.UsedCount >= *coupon.UsageLimitTotal {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "this coupon has reached its maximum number of uses")
	}
	return nil
}

// CanUserUse checks the per-user limits: redemption count, first purchase
// restriction and the eligible-user allowlist.
func CanUserUse(coupon *models.Coupon, userID uuid.UUID, usage UserUsage) error {
	if coupon.UsageLimitPerUser != nil && usage.RedemptionCount >= *coupon.UsageLimitPerUser {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "you have reached the maximum uses for this coupon")
	}
	if coupon.FirstPurchaseOnly && usage.PriorOrderCount > 0 {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "this coupon is only valid on your first purchase")
	}
	if len(coupon.EligibleUsers) > 0 && !containsFold(coupon.EligibleUsers, userID.String()) {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "this coupon is not available for your account")
	}
	return nil
}

// AppliesTo checks the coupon's product and category filters against the cart
// contents. An allowlist requires at least one matching item; an excluded
// product anywhere in the cart rejects the coupon outright.
func AppliesTo(coupon *models.Coupon, items []LineRef) error {
	for _, item := range items {
		if containsFold(coupon.ExcludedProducts, item.ProductID.String()) {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "this coupon cannot be used with an item in your cart")
		}
	}

	if len(coupon.ApplicableProducts) == 0 && len(coupon.ApplicableCategories) == 0 {
		return nil
	}
	for _, item := range items {
		if containsFold(coupon.ApplicableProducts, item.ProductID.String()) {
			return nil
		}
		if item.Category != "" && containsFold(coupon.ApplicableCategories, item.Category) {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeBusinessRule, "this coupon does not apply to any item in your cart")
}

// Discount computes the discount in cents for the given subtotal. Percentage
// discounts are rounded half-up and capped at MaxDiscountCents when set; the
// result is always clamped to [0, subtotal].
func Discount(coupon *models.Coupon, subtotalCents int) int {
	if coupon == nil || subtotalCents <= 0 {
		return 0
	}

	var cents int
	switch coupon.DiscountType {
	case enums.DiscountTypePercentage:
		amount := decimal.NewFromInt(int64(subtotalCents)).Mul(coupon.Value).Div(oneHundred)
		cents = int(amount.Round(0).IntPart())
		if coupon.MaxDiscountCents != nil && cents > *coupon.MaxDiscountCents {
			cents = *coupon.MaxDiscountCents
		}
	case enums.DiscountTypeFixed:
		cents = int(coupon.Value.Mul(oneHundred).Round(0).IntPart())
	default:
		return 0
	}

	if cents < 0 {
		return 0
	}
	if cents > subtotalCents {
		return subtotalCents
	}
	return cents
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
