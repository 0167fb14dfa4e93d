package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/velvetsouk/velvetsouk-backend/api/responses"
	"github.com/velvetsouk/velvetsouk-backend/api/validators"
	"github.com/velvetsouk/velvetsouk-backend/internal/orders"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
	"github.com/velvetsouk/velvetsouk-backend/pkg/types"
)

// ListMyOrders pages through the caller's order history, newest first.
func ListMyOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListForUser(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(list))
	}
}

// GetOrder returns a single order. Owners see their own orders; admins see any.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// CancelOrder cancels a pending or processing order and restores its stock.
func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelOrderRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		order, err := svc.Cancel(r.Context(), actor, orderID, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type orderResponse struct {
	ID            uuid.UUID `json:"id"`
	OrderNumber   string    `json:"order_number"`
	Status        string    `json:"status"`
	Currency      string    `json:"currency"`
	PaymentMethod string    `json:"payment_method"`
	PaymentStatus string    `json:"payment_status"`

	ShippingAddress types.Address `json:"shipping_address"`

	SubtotalCents int    `json:"subtotal_cents"`
	TaxCents      int    `json:"tax_cents"`
	TaxRate       string `json:"tax_rate"`
	ShippingCents int    `json:"shipping_cents"`
	DiscountCents int    `json:"discount_cents"`
	TotalCents    int    `json:"total_cents"`

	CouponCode          *string `json:"coupon_code,omitempty"`
	CouponDiscountCents int     `json:"coupon_discount_cents,omitempty"`

	RefundAmountCents *int    `json:"refund_amount_cents,omitempty"`
	RefundReason      *string `json:"refund_reason,omitempty"`

	Items         []orderLineItemResponse `json:"items"`
	StatusHistory []statusEventResponse   `json:"status_history,omitempty"`

	PaidAt      *time.Time `json:"paid_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type orderLineItemResponse struct {
	ProductID      *uuid.UUID `json:"product_id,omitempty"`
	Name           string     `json:"name"`
	Image          *string    `json:"image,omitempty"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents int        `json:"unit_price_cents"`
	LineTotalCents int        `json:"line_total_cents"`
}

type statusEventResponse struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newOrderResponse(o *models.Order) orderResponse {
	if o == nil {
		return orderResponse{}
	}
	items := make([]orderLineItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderLineItemResponse{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Image:          item.Image,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents,
		})
	}
	history := make([]statusEventResponse, 0, len(o.StatusHistory))
	for _, event := range o.StatusHistory {
		history = append(history, statusEventResponse{
			Status:    string(event.Status),
			Note:      event.Note,
			CreatedAt: event.CreatedAt,
		})
	}
	return orderResponse{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		Status:              string(o.Status),
		Currency:            string(o.Currency),
		PaymentMethod:       string(o.PaymentMethod),
		PaymentStatus:       string(o.PaymentStatus),
		ShippingAddress:     o.ShippingAddress,
		SubtotalCents:       o.SubtotalCents,
		TaxCents:            o.TaxCents,
		TaxRate:             o.TaxRate,
		ShippingCents:       o.ShippingCents,
		DiscountCents:       o.DiscountCents,
		TotalCents:          o.TotalCents,
		CouponCode:          o.CouponCode,
		CouponDiscountCents: o.CouponDiscountCents,
		RefundAmountCents:   o.RefundAmountCents,
		RefundReason:        o.RefundReason,
		Items:               items,
		StatusHistory:       history,
		PaidAt:              o.PaidAt,
		DeliveredAt:         o.DeliveredAt,
		CancelledAt:         o.CancelledAt,
		CreatedAt:           o.CreatedAt,
	}
}

func newOrderListResponse(list *orders.OrderList) map[string]any {
	items := make([]orderResponse, 0, len(list.Orders))
	for i := range list.Orders {
		items = append(items, newOrderResponse(&list.Orders[i]))
	}
	return map[string]any{
		"orders":      items,
		"next_cursor": list.NextCursor,
	}
}
