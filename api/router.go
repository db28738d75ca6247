package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/storefront/core"
)

// Catalog is the product, order and policy store behind the API.
type Catalog interface {
	GetProduct(id string) (core.Product, bool)
	FAQs(productID string) []core.FAQ
	OrdersForCustomer(customerID string) []core.Order
	GetOrder(id string) (core.Order, bool)
	CreateOrder(customerID string, items []core.LineItem) (core.Order, error)
	CancelOrder(id string) (core.Order, error)
	SearchPolicies(topic string) string
}

// Searcher answers product searches.
type Searcher interface {
	Search(ctx context.Context, query, category string) []core.Result
	Related(ctx context.Context, productID string) []core.Result
	Recommendations() []core.Result
}

// Option configures the router.
type Option func(*Handler)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger == nil {
			logger = slog.Default()
		}
		h.logger = logger
	}
}

// WithMetrics records request metrics into m and serves them on /metrics.
func WithMetrics(m *Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithRequestTimeout bounds request handling. Zero disables the timeout.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(h *Handler) {
		h.timeout = timeout
	}
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(catalog Catalog, searcher Searcher, opts ...Option) http.Handler {
	h := &Handler{
		catalog:  catalog,
		searcher: searcher,
		timeout:  30 * time.Second,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = NewMetrics()
	}
	h.logger = h.logger.With("component", "api")

	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS)
	r.Use(chimw.RequestID)
	r.Use(Recovery(h.logger))
	r.Use(RequestLogging(h.logger))
	r.Use(h.metrics.Middleware())
	if h.timeout > 0 {
		r.Use(chimw.Timeout(h.timeout))
	}

	r.Get("/", h.Health)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/search", h.SearchProducts)
			r.Get("/recommendations", h.Recommendations)
			r.Get("/{id}", h.GetProduct)
			r.Get("/{id}/related", h.RelatedProducts)
			r.Get("/{id}/faq", h.ProductFAQs)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.CreateOrder)
			r.Get("/{id}", h.GetOrder)
			r.Post("/{id}/cancel", h.CancelOrder)
		})
		r.Get("/policies/search", h.SearchPolicies)
	})

	return r
}
