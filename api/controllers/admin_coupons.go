package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"

	"github.com/velvetsouk/velvetsouk-backend/api/responses"
	"github.com/velvetsouk/velvetsouk-backend/api/validators"
	"github.com/velvetsouk/velvetsouk-backend/internal/coupons"
	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
)

type createCouponRequest struct {
	Code                 string    `json:"code" validate:"required,min=1,max=64"`
	Description          *string   `json:"description" validate:"omitempty,max=500"`
	DiscountType         string    `json:"discount_type" validate:"required,oneof=percentage fixed"`
	Value                string    `json:"value" validate:"required"`
	Currency             *string   `json:"currency" validate:"omitempty,len=3"`
	MaxDiscountCents     *int      `json:"max_discount_cents" validate:"omitempty,gt=0"`
	ValidFrom            time.Time `json:"valid_from" validate:"required"`
	ValidUntil           time.Time `json:"valid_until" validate:"required"`
	UsageLimitTotal      *int      `json:"usage_limit_total" validate:"omitempty,gt=0"`
	UsageLimitPerUser    *int      `json:"usage_limit_per_user" validate:"omitempty,gt=0"`
	ApplicableProducts   []string  `json:"applicable_products" validate:"omitempty,dive,uuid"`
	ExcludedProducts     []string  `json:"excluded_products" validate:"omitempty,dive,uuid"`
	ApplicableCategories []string  `json:"applicable_categories" validate:"omitempty,dive,min=1"`
	EligibleUsers        []string  `json:"eligible_users" validate:"omitempty,dive,uuid"`
	FirstPurchaseOnly    bool      `json:"first_purchase_only"`
	IsPublic             bool      `json:"is_public"`
}

// AdminCreateCoupon defines a new coupon.
func AdminCreateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := coupons.CreateCouponInput{
			Code:                 payload.Code,
			Description:          payload.Description,
			DiscountType:         enums.DiscountType(payload.DiscountType),
			Value:                payload.Value,
			MaxDiscountCents:     payload.MaxDiscountCents,
			ValidFrom:            payload.ValidFrom,
			ValidUntil:           payload.ValidUntil,
			UsageLimitTotal:      payload.UsageLimitTotal,
			UsageLimitPerUser:    payload.UsageLimitPerUser,
			ApplicableProducts:   payload.ApplicableProducts,
			ExcludedProducts:     payload.ExcludedProducts,
			ApplicableCategories: payload.ApplicableCategories,
			EligibleUsers:        payload.EligibleUsers,
			FirstPurchaseOnly:    payload.FirstPurchaseOnly,
			IsPublic:             payload.IsPublic,
		}
		if payload.Currency != nil {
			currency := enums.Currency(*payload.Currency)
			input.Currency = &currency
		}

		coupon, err := svc.CreateCoupon(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCouponResponse(coupon))
	}
}

// AdminListCoupons pages through every coupon, private ones included.
func AdminListCoupons(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListCoupons(r.Context(), params, false)
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

type updateCouponRequest struct {
	Description       *string    `json:"description" validate:"omitempty,max=500"`
	MaxDiscountCents  *int       `json:"max_discount_cents" validate:"omitempty,gt=0"`
	ValidUntil        *time.Time `json:"valid_until"`
	UsageLimitTotal   *int       `json:"usage_limit_total" validate:"omitempty,gt=0"`
	UsageLimitPerUser *int       `json:"usage_limit_per_user" validate:"omitempty,gt=0"`
	EligibleUsers     []string   `json:"eligible_users" validate:"omitempty,dive,uuid"`
	IsActive          *bool      `json:"is_active"`
	IsPublic          *bool      `json:"is_public"`
}

// AdminUpdateCoupon patches the mutable fields of an existing coupon. The
// code, discount type and value are immutable once issued.
func AdminUpdateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		couponID, err := validators.ParsePathUUID(chi.URLParam(r, "couponId"), "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updates := map[string]any{}
		if payload.Description != nil {
			updates["description"] = *payload.Description
		}
		if payload.MaxDiscountCents != nil {
			updates["max_discount_cents"] = *payload.MaxDiscountCents
		}
		if payload.ValidUntil != nil {
			updates["valid_until"] = *payload.ValidUntil
		}
		if payload.UsageLimitTotal != nil {
			updates["usage_limit_total"] = *payload.UsageLimitTotal
		}
		if payload.UsageLimitPerUser != nil {
			updates["usage_limit_per_user"] = *payload.UsageLimitPerUser
		}
		if payload.EligibleUsers != nil {
			updates["eligible_users"] = pq.StringArray(payload.EligibleUsers)
		}
		if payload.IsActive != nil {
			updates["is_active"] = *payload.IsActive
		}
		if payload.IsPublic != nil {
			updates["is_public"] = *payload.IsPublic
		}

		coupon, err := svc.UpdateCoupon(r.Context(), couponID, updates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCouponResponse(coupon))
	}
}
