package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/address"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/internal/profile"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Services groups everything the HTTP surface talks to.
type Services struct {
	Cart      cart.Service
	Catalog   catalog.Service
	Addresses address.Service
	Checkout  checkout.Service
	Orders    orders.Service
	Profiles  profile.Service
	Sessions  cart.Sessions

	// Readiness lists the dependencies pinged by /health/ready.
	Readiness map[string]controllers.Pinger

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, svc.Readiness))
	})
	if svc.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", svc.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))

		r.Route("/session/token", func(r chi.Router) {
			r.Post("/", controllers.SessionAttach(svc.Cart, logg))
			r.Delete("/", controllers.SessionDetach(svc.Cart, logg))
		})

		r.Route("/toast", func(r chi.Router) {
			r.Get("/", controllers.ToastShow(svc.Cart, logg))
			r.Delete("/", controllers.ToastHide(svc.Cart, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svc.Catalog, logg))
			r.Get("/{productId}", controllers.ProductDetail(svc.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svc.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svc.Cart, logg))
			r.Patch("/items", controllers.CartUpdateItem(svc.Cart, logg))
			r.Delete("/items/{key}", controllers.CartRemoveItem(svc.Cart, logg))
			r.Put("/voucher", controllers.CartApplyVoucher(svc.Cart, logg))
			r.Delete("/voucher", controllers.CartClearVoucher(svc.Cart, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(svc.Sessions, svc.Addresses, logg))
			r.Post("/", controllers.AddressCreate(svc.Sessions, svc.Addresses, logg))
		})
		r.Post("/checkout", controllers.Checkout(svc.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svc.Sessions, svc.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svc.Sessions, svc.Orders, logg))
			r.Post("/{orderId}/pay", controllers.OrderRepay(svc.Sessions, svc.Orders, logg))
		})

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileFetch(svc.Sessions, svc.Profiles, logg))
			r.Put("/", controllers.ProfileUpdate(svc.Sessions, svc.Profiles, logg))
		})
	})

	return r
}
