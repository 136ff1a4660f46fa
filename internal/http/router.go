package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/expensa/internal/http/auth"
	"github.com/MrJamesThe3rd/expensa/internal/http/catalog"
	"github.com/MrJamesThe3rd/expensa/internal/http/expense"
	"github.com/MrJamesThe3rd/expensa/internal/http/identity"
	"github.com/MrJamesThe3rd/expensa/internal/http/notification"
	"github.com/MrJamesThe3rd/expensa/internal/http/order"
	"github.com/MrJamesThe3rd/expensa/internal/http/report"
	"github.com/MrJamesThe3rd/expensa/internal/http/transaction"
)

type Options struct {
	Auth           auth.Authenticator
	AllowedOrigins []string
	Timeout        time.Duration
	MediaRoot      string
	MediaPrefix    string
}

type Handlers struct {
	Identity      *identity.Handler
	Catalog       *catalog.Handler
	Expenses      *expense.Handler
	Orders        *order.Handler
	Reports       *report.Handler
	Transactions  *transaction.Handler
	Notifications *notification.Handler
}

func New(opts Options, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if opts.MediaRoot != "" && opts.MediaPrefix != "" {
		prefix := "/" + strings.Trim(opts.MediaPrefix, "/")
		router.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(opts.MediaRoot))))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(opts.Auth))

		r.Route("/me", h.Identity.MeRoutes)

		r.Route("/roles", func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			h.Identity.RoleRoutes(r)
		})

		r.Route("/categories", h.Catalog.CategoryRoutes)
		r.Route("/items", h.Catalog.ItemRoutes)

		r.Route("/expenses", h.Expenses.Routes)

		r.Route("/orders", func(r chi.Router) {
			h.Reports.OrderRoutes(r)
			h.Orders.OrderRoutes(r)
		})
		r.Route("/order-items", h.Orders.LineRoutes)

		r.Route("/transactions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Transactions.Routes(r)
		})

		r.Route("/notifications", h.Notifications.Routes)

		h.Reports.Routes(r)
	})

	return router
}
