package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/velvetsouk/velvetsouk-backend/api/responses"
	"github.com/velvetsouk/velvetsouk-backend/api/validators"
	"github.com/velvetsouk/velvetsouk-backend/internal/cart"
	"github.com/velvetsouk/velvetsouk-backend/internal/coupons"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
)

type validateCouponRequest struct {
	Code string `json:"code" validate:"required,min=1,max=64"`
}

// ValidateCoupon evaluates a code against the caller's current cart without
// attaching it. The response reports the discount the code would yield.
func ValidateCoupon(cartSvc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload validateCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eval, err := cartSvc.PreviewCoupon(r.Context(), userID, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"code":           eval.Coupon.Code,
			"discount_cents": eval.DiscountCents,
			"valid":          true,
		})
	}
}

// ListPublicCoupons serves the coupons advertised to all shoppers.
func ListPublicCoupons(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListCoupons(r.Context(), params, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]couponResponse, 0, len(list.Coupons))
		for i := range list.Coupons {
			items = append(items, newCouponResponse(&list.Coupons[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"coupons":     items,
			"next_cursor": list.NextCursor,
		})
	}
}

type couponResponse struct {
	ID               uuid.UUID `json:"id"`
	Code             string    `json:"code"`
	Description      *string   `json:"description,omitempty"`
	DiscountType     string    `json:"discount_type"`
	Value            string    `json:"value"`
	Currency         *string   `json:"currency,omitempty"`
	MaxDiscountCents *int      `json:"max_discount_cents,omitempty"`
	ValidFrom        time.Time `json:"valid_from"`
	ValidUntil       time.Time `json:"valid_until"`
	UsageLimitTotal  *int      `json:"usage_limit_total,omitempty"`
	UsedCount        int       `json:"used_count"`
	IsActive         bool      `json:"is_active"`
	IsPublic         bool      `json:"is_public"`
}

func newCouponResponse(c *models.Coupon) couponResponse {
	if c == nil {
		return couponResponse{}
	}
	resp := couponResponse{
		ID:               c.ID,
		Code:             c.Code,
		Description:      c.Description,
		DiscountType:     string(c.DiscountType),
		Value:            c.Value.String(),
		MaxDiscountCents: c.MaxDiscountCents,
		ValidFrom:        c.ValidFrom,
		ValidUntil:       c.ValidUntil,
		UsageLimitTotal:  c.UsageLimitTotal,
		UsedCount:        c.UsedCount,
		IsActive:         c.IsActive,
		IsPublic:         c.IsPublic,
	}
	if c.Currency != nil {
		currency := string(*c.Currency)
		resp.Currency = &currency
	}
	return resp
}
