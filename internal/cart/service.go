package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velvetsouk/velvetsouk-backend/internal/coupons"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	pkgerrors "github.com/velvetsouk/velvetsouk-backend/pkg/errors"
	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
)

// ProductReader supplies authoritative product data for cart mutations.
type ProductReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// CouponEvaluator runs the full eligibility chain when a coupon is applied.
// Cart previews always pass a nil transaction.
type CouponEvaluator interface {
	Evaluate(ctx context.Context, tx *gorm.DB, code string, userID uuid.UUID, items []coupons.LineRef, subtotalCents int) (*coupons.Evaluation, error)
}

// Service exposes the cart mutation surface. Every mutation recomputes the
// cached price breakdown from the stored line items and slides the expiry
// window forward.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*models.Cart, error)
	RemoveCoupon(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	PreviewCoupon(ctx context.Context, userID uuid.UUID, code string) (*coupons.Evaluation, error)
}

type service struct {
	repo     Repository
	products ProductReader
	coupons  CouponEvaluator
	rules    PricingRules
	currency enums.Currency
	ttl      time.Duration
	now      func() time.Time
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, products ProductReader, evaluator CouponEvaluator, rules PricingRules, currency enums.Currency, ttl time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("coupon evaluator required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	if !currency.IsValid() {
		return nil, fmt.Errorf("invalid cart currency %q", currency)
	}
	return &service{
		repo:     repo,
		products: products,
		coupons:  evaluator,
		rules:    rules,
		currency: currency,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.loadOrCreate(ctx, userID)
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindItem(ctx, cart.ID, productID)
	switch {
	case err == nil:
		newQty := existing.Quantity + quantity
		if product.StockQty < newQty {
			return nil, stockError(product)
		}
		if err := s.repo.UpdateItem(ctx, existing.ID, map[string]any{
			"quantity":         newQty,
			"unit_price_cents": product.PriceCents,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart item")
		}
	case db.IsNotFound(err):
		if product.StockQty < quantity {
			return nil, stockError(product)
		}
		item := &models.CartItem{
			CartID:         cart.ID,
			ProductID:      product.ID,
			ProductName:    product.Name,
			ProductImage:   product.Image,
			Quantity:       quantity,
			UnitPriceCents: product.PriceCents,
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adding cart item")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart item")
	}

	return s.refresh(ctx, userID)
}

func (s *service) UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindItem(ctx, cart.ID, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart item")
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.StockQty < quantity {
		return nil, stockError(product)
	}

	if err := s.repo.UpdateItem(ctx, item.ID, map[string]any{
		"quantity":         quantity,
		"unit_price_cents": product.PriceCents,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart item")
	}

	return s.refresh(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error) {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindItem(ctx, cart.ID, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart item")
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart item")
	}
	return s.refresh(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItems(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	if err := s.repo.UpdateCart(ctx, cart.ID, map[string]any{"coupon_id": nil}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart coupon")
	}
	return s.refresh(ctx, userID)
}

// ApplyCoupon validates the code against the current cart contents and stores
// only the coupon reference. The discount amount is recomputed from the live
// subtotal on every recalculation, and again at checkout, so it can never go
// stale when cart contents change afterwards.
func (s *service) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*models.Cart, error) {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "cannot apply a coupon to an empty cart")
	}

	refs, err := s.lineRefs(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	eval, err := s.coupons.Evaluate(ctx, nil, code, userID, refs, Subtotal(cart.Items))
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCart(ctx, cart.ID, map[string]any{"coupon_id": eval.Coupon.ID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "applying coupon")
	}
	return s.refresh(ctx, userID)
}

// PreviewCoupon runs the same eligibility chain as ApplyCoupon but leaves the
// cart untouched.
func (s *service) PreviewCoupon(ctx context.Context, userID uuid.UUID, code string) (*coupons.Evaluation, error) {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "cannot apply a coupon to an empty cart")
	}
	refs, err := s.lineRefs(ctx, cart.Items)
	if err != nil {
		return nil, err
	}
	return s.coupons.Evaluate(ctx, nil, code, userID, refs, Subtotal(cart.Items))
}

func (s *service) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCart(ctx, cart.ID, map[string]any{"coupon_id": nil}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing coupon")
	}
	return s.refresh(ctx, userID)
}

func (s *service) loadOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	created, err := s.repo.Create(ctx, &models.Cart{
		UserID:    userID,
		Currency:  s.currency,
		TaxRate:   s.rules.TaxRate.String(),
		ExpiresAt: s.now().Add(s.ttl),
	})
	if err != nil {
		// concurrent create for the same user loses to the unique constraint
		if db.IsUniqueViolation(err) {
			return s.repo.FindByUser(ctx, userID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating cart")
	}
	return created, nil
}

// refresh recomputes the cached breakdown from the stored items and persists
// it together with the slid expiry window.
func (s *service) refresh(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading cart")
	}

	subtotal := Subtotal(cart.Items)
	discount := 0
	if cart.Coupon != nil {
		discount = coupons.Discount(cart.Coupon, subtotal)
	}
	breakdown := Compute(subtotal, discount, s.rules)

	expiresAt := s.now().Add(s.ttl)
	if err := s.repo.UpdateCart(ctx, cart.ID, map[string]any{
		"subtotal_cents": breakdown.SubtotalCents,
		"tax_cents":      breakdown.TaxCents,
		"tax_rate":       breakdown.TaxRate,
		"shipping_cents": breakdown.ShippingCents,
		"discount_cents": breakdown.DiscountCents,
		"total_cents":    breakdown.TotalCents,
		"expires_at":     expiresAt,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting cart totals")
	}

	cart.SubtotalCents = breakdown.SubtotalCents
	cart.TaxCents = breakdown.TaxCents
	cart.TaxRate = breakdown.TaxRate
	cart.ShippingCents = breakdown.ShippingCents
	cart.DiscountCents = breakdown.DiscountCents
	cart.TotalCents = breakdown.TotalCents
	cart.ExpiresAt = expiresAt
	return cart, nil
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "this product is no longer available")
	}
	return product, nil
}

func (s *service) lineRefs(ctx context.Context, items []models.CartItem) ([]coupons.LineRef, error) {
	refs := make([]coupons.LineRef, 0, len(items))
	for _, item := range items {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			if db.IsNotFound(err) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
		}
		refs = append(refs, coupons.LineRef{ProductID: product.ID, Category: product.Category})
	}
	return refs, nil
}

func stockError(product *models.Product) error {
	err := pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for %s", product.Name))
	return err.WithDetails(map[string]any{
		"product_id": product.ID.String(),
		"available":  product.StockQty,
	})
}
