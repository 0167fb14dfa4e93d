package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/velvetsouk/velvetsouk-backend/api/middleware"
	"github.com/velvetsouk/velvetsouk-backend/internal/coupons"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
)

type stubCartService struct {
	getFn     func(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	addFn     func(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error)
	applyFn   func(ctx context.Context, userID uuid.UUID, code string) (*models.Cart, error)
	previewFn func(ctx context.Context, userID uuid.UUID, code string) (*coupons.Evaluation, error)
}

func (s stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID)
	}
	return &models.Cart{UserID: userID}, nil
}

func (s stubCartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if s.addFn != nil {
		return s.addFn(ctx, userID, productID, quantity)
	}
	return &models.Cart{UserID: userID}, nil
}

func (s stubCartService) UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	panic("unimplemented")
}

func (s stubCartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error) {
	panic("unimplemented")
}

func (s stubCartService) Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	panic("unimplemented")
}

func (s stubCartService) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*models.Cart, error) {
	if s.applyFn != nil {
		return s.applyFn(ctx, userID, code)
	}
	return &models.Cart{UserID: userID}, nil
}

func (s stubCartService) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	panic("unimplemented")
}

func (s stubCartService) PreviewCoupon(ctx context.Context, userID uuid.UUID, code string) (*coupons.Evaluation, error) {
	if s.previewFn != nil {
		return s.previewFn(ctx, userID, code)
	}
	return nil, nil
}

func withUser(req *http.Request, userID uuid.UUID) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	return req.WithContext(ctx)
}

func TestGetCartReturnsBreakdown(t *testing.T) {
	userID := uuid.New()
	cartID := uuid.New()
	svc := stubCartService{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
			if id != userID {
				t.Fatalf("unexpected user %s", id)
			}
			return &models.Cart{
				ID:            cartID,
				UserID:        userID,
				Currency:      "USD",
				SubtotalCents: 2000,
				TaxCents:      160,
				ShippingCents: 599,
				TotalCents:    2759,
			}, nil
		},
	}

	handler := GetCart(svc, nil)
	req := withUser(httptest.NewRequest(http.MethodGet, "/", nil), userID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != cartID || envelope.Data.TotalCents != 2759 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestGetCartRejectsMissingUser(t *testing.T) {
	handler := GetCart(stubCartService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAddCartItemPassesQuantity(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	called := false
	svc := stubCartService{
		addFn: func(ctx context.Context, uid, pid uuid.UUID, quantity int) (*models.Cart, error) {
			called = true
			if uid != userID || pid != productID || quantity != 3 {
				t.Fatalf("unexpected args %s %s %d", uid, pid, quantity)
			}
			return &models.Cart{ID: uuid.New(), UserID: uid}, nil
		},
	}

	body := `{"product_id":"` + productID.String() + `","quantity":3}`
	handler := AddCartItem(svc, nil)
	req := withUser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), userID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatal("expected AddItem to be called")
	}
}

func TestAddCartItemRejectsZeroQuantity(t *testing.T) {
	svc := stubCartService{
		addFn: func(ctx context.Context, uid, pid uuid.UUID, quantity int) (*models.Cart, error) {
			t.Fatal("AddItem should not be called")
			return nil, nil
		},
	}

	body := `{"product_id":"` + uuid.NewString() + `","quantity":0}`
	handler := AddCartItem(svc, nil)
	req := withUser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestApplyCouponRequiresCode(t *testing.T) {
	handler := ApplyCoupon(stubCartService{}, nil)
	req := withUser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestValidateCouponPreviewsWithoutAttaching(t *testing.T) {
	userID := uuid.New()
	svc := stubCartService{
		previewFn: func(ctx context.Context, uid uuid.UUID, code string) (*coupons.Evaluation, error) {
			if code != "WELCOME10" {
				t.Fatalf("unexpected code %q", code)
			}
			return &coupons.Evaluation{
				Coupon:        &models.Coupon{Code: "WELCOME10"},
				DiscountCents: 450,
			}, nil
		},
		applyFn: func(ctx context.Context, uid uuid.UUID, code string) (*models.Cart, error) {
			t.Fatal("ApplyCoupon should not be called")
			return nil, nil
		},
	}

	handler := ValidateCoupon(svc, nil)
	req := withUser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"WELCOME10"}`)), userID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["code"] != "WELCOME10" || envelope.Data["discount_cents"] != float64(450) {
		t.Fatalf("unexpected payload %v", envelope.Data)
	}
}
