package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	pkgerrors "github.com/velvetsouk/velvetsouk-backend/pkg/errors"
	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
	"github.com/velvetsouk/velvetsouk-backend/pkg/pagination"
)

// Service records order lifecycle events as in-app notifications and serves
// them back to their owner. Recording is best effort: a failed insert is
// logged and swallowed so it can never abort the operation that produced it.
type Service interface {
	OrderCreated(ctx context.Context, order *models.Order)
	StatusChanged(ctx context.Context, order *models.Order, from, to enums.OrderStatus)
	RefundProcessed(ctx context.Context, order *models.Order)

	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*NotificationList, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds a notifications service with the required dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) OrderCreated(ctx context.Context, order *models.Order) {
	s.record(ctx, &models.Notification{
		UserID: order.UserID,
		Kind:   enums.NotificationOrderCreated,
		Payload: map[string]any{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"total_cents":  order.TotalCents,
		},
	})
}

func (s *service) StatusChanged(ctx context.Context, order *models.Order, from, to enums.OrderStatus) {
	s.record(ctx, &models.Notification{
		UserID: order.UserID,
		Kind:   enums.NotificationStatusChanged,
		Payload: map[string]any{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"from":         from.String(),
			"to":           to.String(),
		},
	})
}

func (s *service) RefundProcessed(ctx context.Context, order *models.Order) {
	payload := map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
	}
	if order.RefundAmountCents != nil {
		payload["amount_cents"] = *order.RefundAmountCents
	}
	s.record(ctx, &models.Notification{
		UserID:  order.UserID,
		Kind:    enums.NotificationRefundProcessed,
		Payload: payload,
	})
}

func (s *service) record(ctx context.Context, notification *models.Notification) {
	if err := s.repo.Create(ctx, notification); err != nil {
		s.logg.Error(ctx, fmt.Sprintf("recording %s notification", notification.Kind), err)
	}
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*NotificationList, error) {
	list, err := s.repo.ListForUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing notifications")
	}
	return list, nil
}

func (s *service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.repo.MarkRead(ctx, userID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking notification read")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}
