package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velvetsouk/velvetsouk-backend/internal/catalog"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	pkgerrors "github.com/velvetsouk/velvetsouk-backend/pkg/errors"
	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
	"github.com/velvetsouk/velvetsouk-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier records lifecycle events. Failures never abort the operation.
type Notifier interface {
	StatusChanged(ctx context.Context, order *models.Order, from, to enums.OrderStatus)
	RefundProcessed(ctx context.Context, order *models.Order)
}

// Actor identifies who is performing an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// RefundInput carries the admin-supplied refund parameters. A zero AmountCents
// refunds the full order total.
type RefundInput struct {
	OrderID     uuid.UUID
	AmountCents int
	Reason      string
}

// Service defines order lifecycle operations beyond repository reads.
type Service interface {
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, note string) (*models.Order, error)
	Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, note string) (*models.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, transactionID string) (*models.Order, error)
	ProcessRefund(ctx context.Context, input RefundInput) (*models.Order, error)
	AnonymizeForUser(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	stock    catalog.Repository
	tx       txRunner
	notifier Notifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds an order lifecycle service with the required dependencies.
func NewService(repo Repository, stock catalog.Repository, tx txRunner, notifier Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock restorer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		stock:    stock,
		tx:       tx,
		notifier: notifier,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role != enums.UserRoleAdmin && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you do not have access to this order")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	list, err := s.repo.ListForUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	list, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return list, nil
}

// UpdateStatus applies an admin-driven transition. Invalid transitions return
// a structured conflict naming the current and the rejected target state.
// Cancellation restores stock, so it is routed through the cancel path.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, note string) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", target))
	}
	if target == enums.OrderStatusCancelled {
		return s.cancel(ctx, orderID, note)
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(order.Status, target); err != nil {
		return nil, err
	}

	from := order.Status
	updates := map[string]any{"status": target}
	if target == enums.OrderStatusDelivered {
		updates["delivered_at"] = s.now()
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return err
		}
		return repo.CreateStatusEvent(ctx, &models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  target,
			Note:    note,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}

	return s.finish(ctx, order.ID, from, target)
}

// Cancel is the customer-facing cancellation: owners may cancel their own
// pending or processing orders; admins may cancel any cancellable order.
func (s *service) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, note string) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role != enums.UserRoleAdmin && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you do not have access to this order")
	}
	return s.cancel(ctx, orderID, note)
}

func (s *service) cancel(ctx context.Context, orderID uuid.UUID, note string) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Cancellable() {
		return nil, checkTransition(order.Status, enums.OrderStatusCancelled)
	}
	if note == "" {
		note = "order cancelled"
	}

	from := order.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		stock := s.stock.WithTx(tx)

		if err := repo.Update(ctx, order.ID, map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": s.now(),
		}); err != nil {
			return err
		}
		if err := repo.CreateStatusEvent(ctx, &models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  enums.OrderStatusCancelled,
			Note:    note,
		}); err != nil {
			return err
		}

		// cancelled stock goes back on the shelf
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			if err := stock.IncrementStock(ctx, *item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelling order")
	}

	return s.finish(ctx, order.ID, from, enums.OrderStatusCancelled)
}

func (s *service) MarkPaid(ctx context.Context, orderID uuid.UUID, transactionID string) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment is already %s", order.PaymentStatus)).
			WithDetails(map[string]any{"payment_status": order.PaymentStatus.String()})
	}

	updates := map[string]any{
		"payment_status": enums.PaymentStatusPaid,
		"paid_at":        s.now(),
	}
	if transactionID != "" {
		updates["transaction_id"] = transactionID
	}
	if err := s.repo.Update(ctx, order.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking order paid")
	}
	return s.load(ctx, order.ID)
}

// ProcessRefund refunds a paid order. Refunds are terminal and independent of
// shipment progress.
func (s *service) ProcessRefund(ctx context.Context, input RefundInput) (*models.Order, error) {
	order, err := s.load(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("only paid orders can be refunded, payment is %s", order.PaymentStatus))
	}
	amount := input.AmountCents
	if amount == 0 {
		amount = order.TotalCents
	}
	if amount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	if amount > order.TotalCents {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "refund amount exceeds the order total").
			WithDetails(map[string]any{"total_cents": order.TotalCents})
	}

	from := order.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, order.ID, map[string]any{
			"status":              enums.OrderStatusRefunded,
			"payment_status":      enums.PaymentStatusRefunded,
			"refund_amount_cents": amount,
			"refund_reason":       input.Reason,
			"refund_processed_at": s.now(),
		}); err != nil {
			return err
		}
		return repo.CreateStatusEvent(ctx, &models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  enums.OrderStatusRefunded,
			Note:    input.Reason,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "processing refund")
	}

	refunded, err := s.load(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "refund processed")
	if s.notifier != nil {
		s.notifier.StatusChanged(ctx, refunded, from, enums.OrderStatusRefunded)
		s.notifier.RefundProcessed(ctx, refunded)
	}
	return refunded, nil
}

// AnonymizeForUser blanks the PII on every order the user owns. Orders are
// never deleted; account erasure rewrites them in place.
func (s *service) AnonymizeForUser(ctx context.Context, userID uuid.UUID) error {
	list, err := s.repo.ListForUser(ctx, userID, pagination.Params{Limit: pagination.MaxLimit})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders for anonymization")
	}
	for len(list.Orders) > 0 {
		for _, order := range list.Orders {
			// Map updates skip gorm serializers, so the address is marshalled
			// here before it reaches the jsonb column.
			blanked, err := json.Marshal(order.ShippingAddress.Anonymized())
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding anonymized address")
			}
			if err := s.repo.Update(ctx, order.ID, map[string]any{
				"shipping_address": string(blanked),
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "anonymizing order")
			}
		}
		if list.NextCursor == "" {
			break
		}
		list, err = s.repo.ListForUser(ctx, userID, pagination.Params{Limit: pagination.MaxLimit, Cursor: list.NextCursor})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders for anonymization")
		}
	}
	return nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *service) finish(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()),
		fmt.Sprintf("order status %s -> %s", from, to))
	if s.notifier != nil {
		s.notifier.StatusChanged(ctx, order, from, to)
	}
	return order, nil
}

func checkTransition(from, to enums.OrderStatus) error {
	if from.CanTransitionTo(to) {
		return nil
	}
	err := pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot transition order from %s to %s", from, to))
	return err.WithDetails(map[string]any{
		"current_status":  from.String(),
		"rejected_status": to.String(),
	})
}
