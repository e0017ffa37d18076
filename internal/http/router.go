// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, authentication, idempotency, and rate limiting.
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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/contactly/go-contacts-backend/docs"
	"github.com/contactly/go-contacts-backend/internal/config"
	"github.com/contactly/go-contacts-backend/internal/domain"
	"github.com/contactly/go-contacts-backend/internal/http/handlers"
	"github.com/contactly/go-contacts-backend/internal/http/middleware"
	"github.com/contactly/go-contacts-backend/internal/repo"
	"github.com/contactly/go-contacts-backend/internal/services"
	"github.com/contactly/go-contacts-backend/internal/weather"
)

// contactRepoShim adapts the repository free functions to the
// services.ContactRepo interface. This keeps services decoupled from the
// concrete repo package while reusing the existing functions.
type contactRepoShim struct{}

func (contactRepoShim) CreateContact(ctx context.Context, db *gorm.DB, userID, name, address, email, city string, numbers []string) (*domain.Contact, error) {
	return repo.CreateContact(ctx, db, userID, name, address, email, city, numbers)
}

func (contactRepoShim) FindContactByID(ctx context.Context, db *gorm.DB, id string) (*domain.Contact, error) {
	return repo.FindContactByID(ctx, db, id)
}

func (contactRepoShim) FindContactByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Contact, error) {
	return repo.FindContactByEmail(ctx, db, email)
}

func (contactRepoShim) CountContacts(ctx context.Context, db *gorm.DB, userID string, f repo.ContactFilters) (int64, error) {
	return repo.CountContacts(ctx, db, userID, f)
}

func (contactRepoShim) ListContactsPage(ctx context.Context, db *gorm.DB, userID string, f repo.ContactFilters, offset, limit int) ([]domain.Contact, error) {
	return repo.ListContactsPage(ctx, db, userID, f, offset, limit)
}

func (contactRepoShim) UpdateContact(ctx context.Context, db *gorm.DB, id string, upd repo.ContactUpdate) (*domain.Contact, error) {
	return repo.UpdateContact(ctx, db, id, upd)
}

func (contactRepoShim) SoftDeleteContact(ctx context.Context, db *gorm.DB, id string) error {
	return repo.SoftDeleteContact(ctx, db, id)
}

// userRepoShim adapts the user repository functions to services.UserRepo.
type userRepoShim struct{}

func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, name, email, passwordHash string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, name, email, passwordHash)
}

func (userRepoShim) FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.FindUserByEmail(ctx, db, email)
}

func (userRepoShim) FindUserByID(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return repo.FindUserByID(ctx, db, id)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine: observability (tracing, metrics), idempotency and rate limiting,
// CORS and security headers, health/metrics/swagger endpoints, and the
// versioned public API.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter and gzip
//  6. Metrics
//  7. Idempotency-Key header validation
//  8. Rate limiter (per user/IP)
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, weatherSvc *weather.Service, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction (contact PII in query filters)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency-Key header validation (the replay lookup itself runs in
	//    the create handler, after authentication)
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
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
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
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
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeBadRequest, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	contactSvc := services.NewContactService(db, contactRepoShim{})
	userSvc := services.NewUserService(db, userRepoShim{}, cfg.JWT.Secret, cfg.JWT.TTL)

	uh := handlers.NewUserHandlers(userSvc)
	ch := handlers.NewContactHandlers(contactSvc, cfg.IdempotencyTTL)
	wh := handlers.NewWeatherHandlers(weatherSvc, contactSvc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Accounts (no auth)
		api.POST("/users", uh.Register)
		api.POST("/sessions", uh.Login)

		// Everything below requires a bearer token.
		auth := api.Group("", middleware.Authenticate(cfg.JWT.Secret))
		{
			auth.GET("/me", uh.Me)

			// Contacts
			auth.POST("/contacts", ch.CreateContact)
			auth.GET("/contacts", ch.ListContacts)
			auth.GET("/contacts/:id", ch.GetContact)
			auth.PUT("/contacts/:id", ch.UpdateContact)
			auth.DELETE("/contacts/:id", ch.DeleteContact)

			// Weather advisories
			auth.GET("/contacts/:id/suggestion", wh.ContactSuggestion)
			auth.GET("/weather", wh.CityWeather)
			auth.GET("/weather/stats", wh.WeatherStats)
		}
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; oversized bodies error on read downstream.
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
