package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Kurzwaffle/antiques/internal/domain"
	"github.com/Kurzwaffle/antiques/pkg/health"
	"github.com/Kurzwaffle/antiques/pkg/middleware"
)

// RouterConfig carries everything NewRouter mounts.
type RouterConfig struct {
	Storefront *StorefrontHandler
	Catalog    *CatalogHandler
	Admin      *AdminHandler
	Health     *health.Handler
	Metrics    *middleware.HTTPMetrics
	Gatherer   prometheus.Gatherer

	// TokenValidator guards the admin routes. LoginLimiter may be nil.
	TokenValidator middleware.TokenValidator
	LoginLimiter   *middleware.RateLimiter

	CORS       middleware.CORSConfig
	CatalogTTL time.Duration
	PprofCIDRs []string
	Logger     *slog.Logger
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Handler)
	}
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(cfg.Logger))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/sessions", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Post("/", cfg.Storefront.StartSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(SessionFromPath)

				r.Get("/", cfg.Storefront.GetSession)
				r.Delete("/", cfg.Storefront.EndSession)
				r.Put("/currency", cfg.Storefront.SetCurrency)

				r.Delete("/cart", cfg.Storefront.ClearCart)
				r.Post("/cart/items", cfg.Storefront.AddItem)
				r.Put("/cart/items/{productId}", cfg.Storefront.UpdateItemQuantity)
				r.Delete("/cart/items/{productId}", cfg.Storefront.RemoveItem)
			})
		})

		r.Group(func(r chi.Router) {
			if cfg.CatalogTTL > 0 {
				r.Use(middleware.CacheControl(cfg.CatalogTTL))
			}
			r.Get("/products", cfg.Catalog.ListProducts)
			r.Get("/products/featured", cfg.Catalog.FeaturedProducts)
			r.Get("/products/facets", cfg.Catalog.Facets)
			r.Get("/products/{id}", cfg.Catalog.GetProduct)
			r.Get("/currencies", cfg.Catalog.Currencies)
		})

		if cfg.Admin != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.NoStore)
				r.Group(func(r chi.Router) {
					if cfg.LoginLimiter != nil {
						r.Use(cfg.LoginLimiter.Handler)
					}
					r.Post("/login", cfg.Admin.Login)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.Auth(cfg.TokenValidator))
					r.Use(middleware.RequireRole(domain.RoleAdmin))
					r.Get("/me", cfg.Admin.Me)
					r.Get("/dashboard", cfg.Admin.Dashboard)
				})
			})
		}
	})

	return r
}
