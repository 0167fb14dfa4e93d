package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/velvetsouk/velvetsouk-backend/pkg/db"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	pkgerrors "github.com/velvetsouk/velvetsouk-backend/pkg/errors"
	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
	"github.com/velvetsouk/velvetsouk-backend/pkg/pagination"
)

// PriorOrderCounter reports how many orders a user has placed, used for the
// first-purchase-only restriction. A nil tx reads outside any transaction.
type PriorOrderCounter interface {
	CountOrdersForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error)
}

// Evaluation is the outcome of running the full predicate chain for a cart.
type Evaluation struct {
	Coupon        *models.Coupon
	DiscountCents int
}

// Service exposes coupon evaluation plus the admin management surface.
type Service interface {
	Evaluate(ctx context.Context, tx *gorm.DB, code string, userID uuid.UUID, items []LineRef, subtotalCents int) (*Evaluation, error)
	RecordRedemption(ctx context.Context, tx *gorm.DB, coupon *models.Coupon, userID, orderID uuid.UUID) error
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	ListCoupons(ctx context.Context, params pagination.Params, publicOnly bool) (*CouponList, error)
	CreateCoupon(ctx context.Context, input CreateCouponInput) (*models.Coupon, error)
	UpdateCoupon(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Coupon, error)
}

// CreateCouponInput carries the fields for a new coupon definition.
type CreateCouponInput struct {
	Code                 string
	Description          *string
	DiscountType         enums.DiscountType
	Value                string
	Currency             *enums.Currency
	MaxDiscountCents     *int
	ValidFrom            time.Time
	ValidUntil           time.Time
	UsageLimitTotal      *int
	UsageLimitPerUser    *int
	ApplicableProducts   []string
	ExcludedProducts     []string
	ApplicableCategories []string
	EligibleUsers        []string
	FirstPurchaseOnly    bool
	IsPublic             bool
}

type service struct {
	repo   Repository
	orders PriorOrderCounter
	now    func() time.Time
}

// NewService builds a coupon service with the required dependencies.
func NewService(repo Repository, orders PriorOrderCounter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("prior order counter required")
	}
	return &service{repo: repo, orders: orders, now: time.Now}, nil
}

// Evaluate runs the three predicates in sequence, short-circuiting on the
// first failure, and computes the discount from the live subtotal. Checkout
// passes its transaction so the coupon and ledger reads share its snapshot;
// preview paths pass nil.
func (s *service) Evaluate(ctx context.Context, tx *gorm.DB, code string, userID uuid.UUID, items []LineRef, subtotalCents int) (*Evaluation, error) {
	repo := s.repo.WithTx(tx)

	coupon, err := findByCode(ctx, repo, code)
	if err != nil {
		return nil, err
	}

	if err := IsValid(coupon, s.now()); err != nil {
		return nil, err
	}

	redemptions, err := repo.CountRedemptionsForUser(ctx, coupon.ID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting coupon redemptions")
	}
	priorOrders, err := s.orders.CountOrdersForUser(ctx, tx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting prior orders")
	}
	if err := CanUserUse(coupon, userID, UserUsage{RedemptionCount: redemptions, PriorOrderCount: priorOrders}); err != nil {
		return nil, err
	}

	if err := AppliesTo(coupon, items); err != nil {
		return nil, err
	}

	return &Evaluation{
		Coupon:        coupon,
		DiscountCents: Discount(coupon, subtotalCents),
	}, nil
}

// RecordRedemption advances the global usage counter conditionally and appends
// the ledger entry. Runs inside the caller's checkout transaction. The
// conditional increment row-locks the coupon, so the per-user recount below
// cannot race with a concurrent redemption of the same code.
func (s *service) RecordRedemption(ctx context.Context, tx *gorm.DB, coupon *models.Coupon, userID, orderID uuid.UUID) error {
	repo := s.repo.WithTx(tx)

	ok, err := repo.IncrementUsage(ctx, coupon.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "incrementing coupon usage")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "this coupon has reached its maximum number of uses")
	}

	if coupon.UsageLimitPerUser != nil {
		used, err := repo.CountRedemptionsForUser(ctx, coupon.ID, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting coupon redemptions")
		}
		if used >= *coupon.UsageLimitPerUser {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "you have reached the maximum uses for this coupon")
		}
	}

	redemption := &models.CouponRedemption{
		CouponID: coupon.ID,
		UserID:   userID,
		OrderID:  orderID,
	}
	if err := repo.CreateRedemption(ctx, redemption); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording coupon redemption")
	}
	return nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return findByCode(ctx, s.repo, code)
}

func findByCode(ctx context.Context, repo Repository, code string) (*models.Coupon, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	coupon, err := repo.FindByCode(ctx, code)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupon")
	}
	return coupon, nil
}

func (s *service) ListCoupons(ctx context.Context, params pagination.Params, publicOnly bool) (*CouponList, error) {
	list, err := s.repo.List(ctx, params, publicOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing coupons")
	}
	return list, nil
}

func (s *service) CreateCoupon(ctx context.Context, input CreateCouponInput) (*models.Coupon, error) {
	coupon, err := buildCoupon(input)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a coupon with this code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating coupon")
	}
	return created, nil
}

func (s *service) UpdateCoupon(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Coupon, error) {
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updates provided")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupon")
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating coupon")
	}
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading coupon")
	}
	return coupon, nil
}

func decimalFromString(value string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(value))
}

func buildCoupon(input CreateCouponInput) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if !input.DiscountType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount type must be percentage or fixed")
	}
	value, err := decimalFromString(input.Value)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be a valid number")
	}
	if value.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must not be negative")
	}
	if input.DiscountType == enums.DiscountTypeFixed {
		if input.Currency == nil || !input.Currency.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fixed discounts require a currency")
		}
	}
	if !input.ValidUntil.After(input.ValidFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validity window must end after it starts")
	}

	return &models.Coupon{
		Code:                 code,
		Description:          input.Description,
		DiscountType:         input.DiscountType,
		Value:                value,
		Currency:             input.Currency,
		MaxDiscountCents:     input.MaxDiscountCents,
		ValidFrom:            input.ValidFrom,
		ValidUntil:           input.ValidUntil,
		UsageLimitTotal:      input.UsageLimitTotal,
		UsageLimitPerUser:    input.UsageLimitPerUser,
		ApplicableProducts:   input.ApplicableProducts,
		ExcludedProducts:     input.ExcludedProducts,
		ApplicableCategories: input.ApplicableCategories,
		EligibleUsers:        input.EligibleUsers,
		FirstPurchaseOnly:    input.FirstPurchaseOnly,
		IsActive:             true,
		IsPublic:             input.IsPublic,
	}, nil
}
