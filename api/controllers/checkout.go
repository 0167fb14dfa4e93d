package controllers

import (
	"net/http"

	"github.com/velvetsouk/velvetsouk-backend/api/responses"
	"github.com/velvetsouk/velvetsouk-backend/api/validators"
	checkoutsvc "github.com/velvetsouk/velvetsouk-backend/internal/checkout"
	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
	"github.com/velvetsouk/velvetsouk-backend/pkg/types"
)

type checkoutAddress struct {
	FullName   string  `json:"full_name" validate:"required,min=1,max=255"`
	Line1      string  `json:"line1" validate:"required,min=1,max=255"`
	Line2      *string `json:"line2" validate:"omitempty,max=255"`
	City       string  `json:"city" validate:"required,min=1,max=100"`
	State      string  `json:"state" validate:"max=100"`
	PostalCode string  `json:"postal_code" validate:"required,min=1,max=20"`
	Country    string  `json:"country" validate:"required,len=2"`
	Phone      *string `json:"phone" validate:"omitempty,max=32"`
}

type checkoutRequest struct {
	ShippingAddress checkoutAddress `json:"shipping_address" validate:"required"`
	PaymentMethod   string          `json:"payment_method" validate:"required,oneof=card cash_on_delivery bank_transfer"`
	TransactionID   *string         `json:"transaction_id" validate:"omitempty,max=255"`
}

// Checkout converts the caller's cart into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), checkoutsvc.Input{
			UserID: userID,
			ShippingAddress: types.Address{
				FullName:   payload.ShippingAddress.FullName,
				Line1:      payload.ShippingAddress.Line1,
				Line2:      payload.ShippingAddress.Line2,
				City:       payload.ShippingAddress.City,
				State:      payload.ShippingAddress.State,
				PostalCode: payload.ShippingAddress.PostalCode,
				Country:    payload.ShippingAddress.Country,
				Phone:      payload.ShippingAddress.Phone,
			},
			PaymentMethod: enums.PaymentMethod(payload.PaymentMethod),
			TransactionID: payload.TransactionID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}
