package http

import (
	"net/http"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/api"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

type Handlers struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Catalog  *CatalogHandler
	Account  *AccountHandler
	Live     *LiveHandler
	Media    *MediaHandler
	// Tokens gates the routes that need a signed-in user.
	Tokens api.TokenSource
}

// NewRouter mounts every route under /api/v1 plus /health, wrapped in
// OpenTelemetry instrumentation. Live streams skip the timeout and
// compression middleware.
func NewRouter(cfg RouterConfig, h Handlers, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware(log))
	r.Use(RequestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
			r.Use(middleware.Compress(5))
			r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{item_key}", h.Cart.UpdateQuantity)
				r.Delete("/items/{item_key}", h.Cart.RemoveItem)
				r.Put("/selection", h.Cart.SetSelection)
				r.Post("/selection/{item_key}", h.Cart.Select)
				r.Delete("/selection/{item_key}", h.Cart.Deselect)
			})

			r.Get("/items", h.Catalog.ListItems)
			r.Get("/items/{id}", h.Catalog.GetItem)
			r.Get("/items/{id}/reviews", h.Catalog.ListReviews)
			r.Get("/shops", h.Catalog.ListShops)
			r.Get("/shops/{id}", h.Catalog.GetShop)
			r.Get("/shops/{id}/items", h.Catalog.ListShopItems)

			r.Post("/auth/login", h.Account.Login)
			r.Post("/auth/logout", h.Account.Logout)
			r.Get("/profile", h.Account.GetProfile)
			r.Put("/profile/address", h.Account.SetAddress)
			r.Put("/profile/location", h.Account.SetLocation)

			r.Group(func(r chi.Router) {
				r.Use(RequireLogin(h.Tokens))

				r.Post("/checkout", h.Checkout.Submit)
				r.Post("/checkout/quote", h.Checkout.Quote)
				r.Get("/orders", h.Orders.ListOrders)
				r.Put("/orders/{id}/status", h.Orders.UpdateStatus)
				r.Post("/items/{id}/reviews", h.Catalog.CreateReview)
				r.Get("/notifications", h.Account.ListNotifications)
				r.Put("/notifications/{id}/read", h.Account.MarkNotificationRead)
				r.Post("/live/messages/{conversation_id}", h.Live.SendMessage)
				r.Post("/media", h.Media.Upload)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireLogin(h.Tokens))
			r.Get("/live/messages/{conversation_id}", h.Live.StreamMessages)
			r.Get("/live/deliveries/{order_id}", h.Live.StreamDelivery)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
