package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forkline/forkline-backend/api/controllers"
	"github.com/forkline/forkline-backend/api/middleware"
	"github.com/forkline/forkline-backend/internal/address"
	"github.com/forkline/forkline-backend/internal/cart"
	"github.com/forkline/forkline-backend/internal/catalog"
	"github.com/forkline/forkline-backend/internal/orders"
	"github.com/forkline/forkline-backend/pkg/config"
	"github.com/forkline/forkline-backend/pkg/db"
	"github.com/forkline/forkline-backend/pkg/enums"
	"github.com/forkline/forkline-backend/pkg/logger"
	"github.com/forkline/forkline-backend/pkg/metrics"
	"github.com/forkline/forkline-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Catalog     catalog.Service
	Cart        cart.Service
	Orders      orders.Service
	Addresses   address.Service
	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// public menu browsing
	r.Route("/api/v1/menu", func(r chi.Router) {
		r.Get("/items", controllers.ListMenuItems(deps.Catalog, logg))
		r.Get("/items/{itemId}", controllers.GetMenuItem(deps.Catalog, logg))
		r.Get("/categories", controllers.ListMenuCategories(deps.Catalog, logg))
	})

	// authenticated customer surface
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.Cart, logg))
			r.Post("/lines", controllers.AddCartLine(deps.Cart, logg))
			r.Patch("/lines/{lineId}", controllers.UpdateCartLine(deps.Cart, logg))
			r.Delete("/lines/{lineId}", controllers.RemoveCartLine(deps.Cart, logg))
			r.Delete("/", controllers.ClearCart(deps.Cart, logg))
		})

		r.Route("/api/v1/orders", func(r chi.Router) {
			placeOrder := controllers.PlaceOrder(deps.Orders, logg)
			if deps.Redis != nil {
				r.With(middleware.OrderRateLimit(cfg.RateLimit, deps.Redis, logg)).Post("/", placeOrder)
			} else {
				r.Post("/", placeOrder)
			}
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
		})

		r.Route("/api/v1/addresses", func(r chi.Router) {
			r.Get("/", controllers.ListAddresses(deps.Addresses, logg))
			r.Post("/", controllers.CreateAddress(deps.Addresses, logg))
			r.Put("/{addressId}", controllers.UpdateAddress(deps.Addresses, logg))
			r.Delete("/{addressId}", controllers.DeleteAddress(deps.Addresses, logg))
			r.Post("/{addressId}/default", controllers.SetDefaultAddress(deps.Addresses, logg))
		})
	})

	// admin surface
	r.Group(func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.RequireRole(enums.UserRoleAdmin.String(), logg),
		)

		r.Route("/api/admin/v1/menu", func(r chi.Router) {
			r.Post("/items", controllers.CreateMenuItem(deps.Catalog, logg))
			r.Put("/items/{itemId}", controllers.UpdateMenuItem(deps.Catalog, logg))
			r.Patch("/items/{itemId}/availability", controllers.SetMenuItemAvailability(deps.Catalog, logg))
			r.Delete("/items/{itemId}", controllers.DeleteMenuItem(deps.Catalog, logg))
			r.Post("/categories", controllers.CreateMenuCategory(deps.Catalog, logg))
		})

		r.Route("/api/admin/v1/orders", func(r chi.Router) {
			r.Patch("/{orderId}/status", controllers.UpdateOrderStatus(deps.Orders, logg))
			r.Patch("/{orderId}/payment-status", controllers.UpdateOrderPaymentStatus(deps.Orders, logg))
		})
	})

	return r
}
