// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/pawquote/go-affiliate-backend/internal/config"
	"github.com/pawquote/go-affiliate-backend/internal/domain"
	"github.com/pawquote/go-affiliate-backend/internal/http/handlers"
	"github.com/pawquote/go-affiliate-backend/internal/http/middleware"
	"github.com/pawquote/go-affiliate-backend/internal/repo"
	"github.com/pawquote/go-affiliate-backend/internal/services"
)

// affiliateRepoShim adapts the repository free functions to the
// services.AffiliateRepo interface expected by the AffiliateService. This
// keeps services decoupled from the concrete repo package while reusing
// existing functions.
type affiliateRepoShim struct{}

// CreateAffiliate proxies repo.CreateAffiliate.
func (affiliateRepoShim) CreateAffiliate(ctx context.Context, db *gorm.DB, name, email, phone string, basePrice decimal.Decimal) (*domain.Affiliate, error) {
	return repo.CreateAffiliate(ctx, db, name, email, phone, basePrice)
}

// GetAffiliate proxies repo.GetAffiliate.
func (affiliateRepoShim) GetAffiliate(ctx context.Context, db *gorm.DB, id string) (*domain.Affiliate, error) {
	return repo.GetAffiliate(ctx, db, id)
}

// CountAffiliates proxies repo.CountAffiliates (pagination support).
func (affiliateRepoShim) CountAffiliates(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountAffiliates(ctx, db)
}

// ListAffiliatesPage proxies repo.ListAffiliatesPage (pagination support).
func (affiliateRepoShim) ListAffiliatesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Affiliate, error) {
	return repo.ListAffiliatesPage(ctx, db, offset, limit)
}

// UpdateAffiliate proxies repo.UpdateAffiliate.
func (affiliateRepoShim) UpdateAffiliate(ctx context.Context, db *gorm.DB, id, name, email, phone string, basePrice decimal.Decimal) error {
	return repo.UpdateAffiliate(ctx, db, id, name, email, phone, basePrice)
}

// DeleteAffiliate proxies repo.DeleteAffiliate.
func (affiliateRepoShim) DeleteAffiliate(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteAffiliate(ctx, db, id)
}

// IncrementSalesCount proxies repo.IncrementSalesCount.
func (affiliateRepoShim) IncrementSalesCount(ctx context.Context, db *gorm.DB, id string, delta int64) error {
	return repo.IncrementSalesCount(ctx, db, id, delta)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter + gzip
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction. Intake payload fields (emails,
	// phone numbers, addresses) must never reach logs in the clear.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, affiliateID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, affiliateID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", middleware.HeaderIdempotencyReplayed},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", middleware.HeaderIdempotencyReplayed},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	affSvc := services.NewAffiliateService(db, affiliateRepoShim{})
	intakeSvc := &services.IntakeService{DB: db}
	quoteSvc := &services.QuoteService{DB: db}
	h := handlers.New(affSvc, intakeSvc, quoteSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Affiliates
		api.POST("/affiliates", h.CreateAffiliate)
		api.GET("/affiliates", h.ListAffiliates)
		api.GET("/affiliates/:id", h.GetAffiliate)
		api.PUT("/affiliates/:id", h.UpdateAffiliate)
		api.DELETE("/affiliates/:id", h.DeleteAffiliate)
		api.POST("/affiliates/:id/sales", h.RecordSale)

		// Quote intake + review
		api.POST("/affiliates/:id/quotes", h.SubmitQuote)
		api.GET("/affiliates/:id/quotes", h.ListQuotes)
		api.GET("/affiliates/:id/spam-quotes", h.ListSpamQuotes)
		api.PUT("/quotes/:id/status", h.ReviewQuote)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
