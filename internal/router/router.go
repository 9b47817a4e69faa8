package router

import (
	"net/http"

	"beauty-kart/internal/handler"
	"beauty-kart/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Cart     *handler.CartHandler
	Auth     *handler.AuthHandler
	Checkout *handler.CheckoutHandler
	Events   *handler.EventsHandler
}

// Options holds the cross-cutting settings of the router.
type Options struct {
	AllowedOrigin string
	Cookie        middleware.SessionCookie
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Applied in order: RequestID -> Recovery -> Logging -> CORS -> Session
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(opts.AllowedOrigin))
	r.Use(middleware.Session(opts.Cookie, logger))

	// Health check endpoint (no session required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.Get)
			r.Get("/badge", h.Cart.Badge)
			r.Get("/events", h.Events.Stream)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{productId}", h.Cart.SetQuantity)
			r.Delete("/items/{productId}", h.Cart.RemoveItem)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Auth.Login)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/me", h.Auth.Me)
		})

		r.Post("/checkout", h.Checkout.Checkout)
	})

	return r
}
