package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velvetsouk/velvetsouk-backend/internal/catalog"
	checkoutsvc "github.com/velvetsouk/velvetsouk-backend/internal/checkout"
	"github.com/velvetsouk/velvetsouk-backend/internal/coupons"
	"github.com/velvetsouk/velvetsouk-backend/internal/notifications"
	"github.com/velvetsouk/velvetsouk-backend/internal/orders"
	pkgauth "github.com/velvetsouk/velvetsouk-backend/pkg/auth"
	"github.com/velvetsouk/velvetsouk-backend/pkg/config"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db/models"
	"github.com/velvetsouk/velvetsouk-backend/pkg/enums"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
	"github.com/velvetsouk/velvetsouk-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCatalogService struct{}

func (stubCatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (stubCatalogService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	panic("unimplemented")
}

func (stubCatalogService) ListProducts(ctx context.Context, params pagination.Params, filters catalog.ProductFilters) (*catalog.ProductList, error) {
	return &catalog.ProductList{}, nil
}

func (stubCatalogService) CreateProduct(ctx context.Context, input catalog.CreateProductInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubCatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Product, error) {
	panic("unimplemented")
}

type stubCartService struct{}

func (stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return &models.Cart{UserID: userID}, nil
}

func (stubCartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) Clear(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*models.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveCoupon(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) PreviewCoupon(ctx context.Context, userID uuid.UUID, code string) (*coupons.Evaluation, error) {
	panic("unimplemented")
}

type stubCouponsService struct{}

func (stubCouponsService) Evaluate(ctx context.Context, tx *gorm.DB, code string, userID uuid.UUID, items []coupons.LineRef, subtotalCents int) (*coupons.Evaluation, error) {
	panic("unimplemented")
}

func (stubCouponsService) RecordRedemption(ctx context.Context, tx *gorm.DB, coupon *models.Coupon, userID, orderID uuid.UUID) error {
	panic("unimplemented")
}

func (stubCouponsService) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	panic("unimplemented")
}

func (stubCouponsService) ListCoupons(ctx context.Context, params pagination.Params, publicOnly bool) (*coupons.CouponList, error) {
	return &coupons.CouponList{}, nil
}

func (stubCouponsService) CreateCoupon(ctx context.Context, input coupons.CreateCouponInput) (*models.Coupon, error) {
	panic("unimplemented")
}

func (stubCouponsService) UpdateCoupon(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Coupon, error) {
	panic("unimplemented")
}

type stubCheckoutService struct{}

func (stubCheckoutService) Checkout(ctx context.Context, input checkoutsvc.Input) (*models.Order, error) {
	panic("unimplemented")
}

type stubOrdersService struct{}

func (stubOrdersService) Get(ctx context.Context, actor orders.Actor, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (stubOrdersService) ListAll(ctx context.Context, params pagination.Params, filters orders.OrderFilters) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (stubOrdersService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, note string) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Cancel(ctx context.Context, actor orders.Actor, orderID uuid.UUID, note string) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) MarkPaid(ctx context.Context, orderID uuid.UUID, transactionID string) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) ProcessRefund(ctx context.Context, input orders.RefundInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) AnonymizeForUser(ctx context.Context, userID uuid.UUID) error {
	panic("unimplemented")
}

type stubNotificationsService struct{}

func (stubNotificationsService) OrderCreated(ctx context.Context, order *models.Order) {}

func (stubNotificationsService) StatusChanged(ctx context.Context, order *models.Order, from, to enums.OrderStatus) {
}

func (stubNotificationsService) RefundProcessed(ctx context.Context, order *models.Order) {}

func (stubNotificationsService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*notifications.NotificationList, error) {
	return &notifications.NotificationList{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Dependencies{
		Config:        cfg,
		Logger:        logg,
		DBPinger:      stubPinger{},
		RedisClient:   nil,
		Products:      stubCatalogService{},
		Carts:         stubCartService{},
		Coupons:       stubCouponsService{},
		Checkout:      stubCheckoutService{},
		Orders:        stubOrdersService{},
		Notifications: stubNotificationsService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	return token
}

func TestStorefrontRoutesAreOpen(t *testing.T) {
	router := newTestRouter(testConfig())

	for _, path := range []string{"/api/v1/products", "/api/v1/coupons", "/health/live"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestProtectedRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestCustomerCanReachOwnSurfaces(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	token := buildToken(t, cfg, enums.UserRoleCustomer)

	for _, path := range []string{"/api/v1/cart", "/api/v1/orders", "/api/v1/notifications"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestAdminCouponListRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/admin/coupons", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/coupons", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}
