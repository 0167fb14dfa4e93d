package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velvetsouk/velvetsouk-backend/internal/cart"
	"github.com/velvetsouk/velvetsouk-backend/internal/catalog"
	"github.com/velvetsouk/velvetsouk-backend/internal/coupons"
	"github.com/velvetsouk/velvetsouk-backend/internal/orders"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	pkgerrors "github.com/velvetsouk/velvetsouk-backend/pkg/errors"
	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
	"github.com/velvetsouk/velvetsouk-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CouponEvaluator re-runs the full eligibility chain against the live
// subtotal at checkout time and records the redemption. Both run inside the
// checkout transaction so eligibility and the ledger write share one snapshot.
type CouponEvaluator interface {
	Evaluate(ctx context.Context, tx *gorm.DB, code string, userID uuid.UUID, items []coupons.LineRef, subtotalCents int) (*coupons.Evaluation, error)
	RecordRedemption(ctx context.Context, tx *gorm.DB, coupon *models.Coupon, userID, orderID uuid.UUID) error
}

// Notifier records the order-created event. Failures never abort checkout.
type Notifier interface {
	OrderCreated(ctx context.Context, order *models.Order)
}

// Input carries everything the orchestrator needs to convert a cart into an
// order.
type Input struct {
	UserID          uuid.UUID
	ShippingAddress types.Address
	PaymentMethod   enums.PaymentMethod
	TransactionID   *string
}

// Service converts a validated cart into an immutable order. The whole
// workflow runs in one database transaction: stock re-verification,
// price snapshot, order insert, conditional stock decrement, coupon usage
// increment and cart clearing either all commit or all roll back.
type Service interface {
	Checkout(ctx context.Context, input Input) (*models.Order, error)
}

type service struct {
	carts    cart.Repository
	catalog  catalog.Repository
	orders   orders.Repository
	coupons  CouponEvaluator
	tx       txRunner
	notifier Notifier
	rules    cart.PricingRules
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a checkout orchestrator with the required dependencies.
func NewService(
	carts cart.Repository,
	catalogRepo catalog.Repository,
	ordersRepo orders.Repository,
	evaluator CouponEvaluator,
	tx txRunner,
	notifier Notifier,
	rules cart.PricingRules,
	logg *logger.Logger,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("coupon evaluator required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:    carts,
		catalog:  catalogRepo,
		orders:   ordersRepo,
		coupons:  evaluator,
		tx:       tx,
		notifier: notifier,
		rules:    rules,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Checkout(ctx context.Context, input Input) (*models.Order, error) {
	if field := input.ShippingAddress.Validate(); field != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("shipping address is missing %s", field))
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.checkoutTx(ctx, tx, input)
		if err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, fmt.Sprintf("order %s created", order.OrderNumber))

	if s.notifier != nil {
		s.notifier.OrderCreated(ctx, order)
	}
	return order, nil
}

func (s *service) checkoutTx(ctx context.Context, tx *gorm.DB, input Input) (*models.Order, error) {
	carts := s.carts.WithTx(tx)
	catalogRepo := s.catalog.WithTx(tx)
	ordersRepo := s.orders.WithTx(tx)

	userCart, err := carts.FindByUser(ctx, input.UserID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "your cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if len(userCart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "your cart is empty")
	}

	// Re-verify every line against the live catalog; cached cart prices and
	// quantities are never trusted.
	subtotal := 0
	refs := make([]coupons.LineRef, 0, len(userCart.Items))
	lines := make([]models.OrderLineItem, 0, len(userCart.Items))
	for _, item := range userCart.Items {
		product, err := catalogRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s is no longer available", item.ProductName))
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
		}
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, fmt.Sprintf("%s is no longer available", product.Name))
		}
		if product.StockQty < item.Quantity {
			return nil, stockConflict(product)
		}

		subtotal += item.Quantity * product.PriceCents
		refs = append(refs, coupons.LineRef{ProductID: product.ID, Category: product.Category})
		productID := product.ID
		lines = append(lines, models.OrderLineItem{
			ProductID:      &productID,
			Name:           product.Name,
			Image:          product.Image,
			Quantity:       item.Quantity,
			UnitPriceCents: product.PriceCents,
			LineTotalCents: item.Quantity * product.PriceCents,
		})
	}

	// Coupon eligibility is re-checked against the live subtotal; the amount
	// cached on the cart is ignored.
	discount := 0
	var coupon *models.Coupon
	var couponCode *string
	if userCart.Coupon != nil {
		eval, err := s.coupons.Evaluate(ctx, tx, userCart.Coupon.Code, input.UserID, refs, subtotal)
		if err != nil {
			return nil, err
		}
		discount = eval.DiscountCents
		coupon = eval.Coupon
		code := eval.Coupon.Code
		couponCode = &code
	}

	breakdown := cart.Compute(subtotal, discount, s.rules)

	now := s.now()
	orderNumber, err := nextOrderNumber(ctx, tx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating order number")
	}

	order := &models.Order{
		OrderNumber:         orderNumber,
		UserID:              input.UserID,
		Status:              enums.OrderStatusPending,
		Currency:            userCart.Currency,
		ShippingAddress:     input.ShippingAddress,
		PaymentMethod:       input.PaymentMethod,
		PaymentStatus:       enums.PaymentStatusPending,
		TransactionID:       input.TransactionID,
		SubtotalCents:       breakdown.SubtotalCents,
		TaxCents:            breakdown.TaxCents,
		TaxRate:             breakdown.TaxRate,
		ShippingCents:       breakdown.ShippingCents,
		DiscountCents:       breakdown.DiscountCents,
		TotalCents:          breakdown.TotalCents,
		CouponCode:          couponCode,
		CouponDiscountCents: discount,
	}
	if _, err := ordersRepo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}

	for i := range lines {
		lines[i].OrderID = order.ID
	}
	if err := ordersRepo.CreateLineItems(ctx, lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order line items")
	}
	if err := ordersRepo.CreateStatusEvent(ctx, &models.OrderStatusEvent{
		OrderID: order.ID,
		Status:  enums.OrderStatusPending,
		Note:    "order created",
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording status event")
	}

	// Conditional decrement: fails the whole transaction when another checkout
	// took the last units between the read above and here.
	for _, item := range userCart.Items {
		ok, err := catalogRepo.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrementing stock")
		}
		if !ok {
			product, ferr := catalogRepo.FindByID(ctx, item.ProductID)
			if ferr != nil {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for %s", item.ProductName))
			}
			return nil, stockConflict(product)
		}
	}

	if coupon != nil {
		if err := s.coupons.RecordRedemption(ctx, tx, coupon, input.UserID, order.ID); err != nil {
			return nil, err
		}
	}

	if err := carts.DeleteItems(ctx, userCart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	if err := carts.UpdateCart(ctx, userCart.ID, map[string]any{
		"coupon_id":      nil,
		"subtotal_cents": 0,
		"tax_cents":      0,
		"shipping_cents": 0,
		"discount_cents": 0,
		"total_cents":    0,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resetting cart")
	}

	order.Items = lines
	return order, nil
}

func stockConflict(product *models.Product) error {
	err := pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for %s", product.Name))
	return err.WithDetails(map[string]any{
		"product_id": product.ID.String(),
		"available":  product.StockQty,
	})
}
