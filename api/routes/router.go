package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/velvetsouk/velvetsouk-backend/api/controllers"
	"github.com/velvetsouk/velvetsouk-backend/api/middleware"
	"github.com/velvetsouk/velvetsouk-backend/internal/cart"
	"github.com/velvetsouk/velvetsouk-backend/internal/catalog"
	checkoutsvc "github.com/velvetsouk/velvetsouk-backend/internal/checkout"
	"github.com/velvetsouk/velvetsouk-backend/internal/coupons"
	"github.com/velvetsouk/velvetsouk-backend/internal/notifications"
	"github.com/velvetsouk/velvetsouk-backend/internal/orders"
	"github.com/velvetsouk/velvetsouk-backend/pkg/config"
	"github.com/velvetsouk/velvetsouk-backend/pkg/db"
	"github.com/velvetsouk/velvetsouk-backend/pkg/logger"
	"github.com/velvetsouk/velvetsouk-backend/pkg/redis"
)

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	Config        *config.Config
	Logger        *logger.Logger
	DBPinger      db.Pinger
	RedisClient   *redis.Client
	Registry      *prometheus.Registry
	Products      catalog.Service
	Carts         cart.Service
	Coupons       coupons.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Notifications notifications.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisClient))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(deps.Products, logg))
		r.Get("/products/{slug}", controllers.GetProduct(deps.Products, logg))
		r.Get("/coupons", controllers.ListPublicCoupons(deps.Coupons, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(deps.RedisClient, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(deps.Carts, logg))
				r.Delete("/", controllers.ClearCart(deps.Carts, logg))
				r.Post("/items", controllers.AddCartItem(deps.Carts, logg))
				r.Put("/items/{productId}", controllers.UpdateCartItem(deps.Carts, logg))
				r.Delete("/items/{productId}", controllers.RemoveCartItem(deps.Carts, logg))
				r.Post("/coupon", controllers.ApplyCoupon(deps.Carts, logg))
				r.Delete("/coupon", controllers.RemoveCoupon(deps.Carts, logg))
			})

			r.Post("/coupons/validate", controllers.ValidateCoupon(deps.Carts, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.Checkout(deps.Checkout, logg))
				r.Get("/", controllers.ListMyOrders(deps.Orders, logg))
				r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
				r.Put("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole("admin", logg))

				r.Route("/products", func(r chi.Router) {
					r.Post("/", controllers.AdminCreateProduct(deps.Products, logg))
					r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.Products, logg))
				})
				r.Route("/orders", func(r chi.Router) {
					r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
					r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
					r.Put("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
					r.Post("/{orderId}/mark-paid", controllers.AdminMarkOrderPaid(deps.Orders, logg))
					r.Post("/{orderId}/refund", controllers.AdminRefundOrder(deps.Orders, logg))
				})
				r.Route("/coupons", func(r chi.Router) {
					r.Get("/", controllers.AdminListCoupons(deps.Coupons, logg))
					r.Post("/", controllers.AdminCreateCoupon(deps.Coupons, logg))
					r.Patch("/{couponId}", controllers.AdminUpdateCoupon(deps.Coupons, logg))
				})
			})
		})
	})

	return r
}
