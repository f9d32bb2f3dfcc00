// Package api wires together all HTTP routes for the FacilityHub backend.
//
// Route grouping:
//   - /health, /ready, /version are unauthenticated operational endpoints.
//   - /v1/ carries the inspection lifecycle API. Callers are identified by the
//     gateway-supplied X-User-Id / X-User-Role headers; authentication itself
//     happens upstream.
package api

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/facilityhub/facilityhub/internal/config"
	"github.com/facilityhub/facilityhub/internal/inspections"
	"github.com/facilityhub/facilityhub/internal/jobs"
	"github.com/facilityhub/facilityhub/internal/middleware"
	"github.com/facilityhub/facilityhub/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// Version is the reported API version, overridable at build time with
// -ldflags "-X github.com/facilityhub/facilityhub/internal/api.Version=...".
var Version = "0.1.0"

// BackgroundServices holds references to background jobs and resources that
// must be stopped during graceful shutdown. The caller (cmd/server) is
// responsible for calling Shutdown() when the process receives a termination
// signal.
type BackgroundServices struct {
	generator    *jobs.RecurringInspectionGenerator
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the
// HTTP server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.generator != nil {
		bg.generator.Stop()
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sqlx.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Notification pipeline: transport selected by config, dispatch always
	// best-effort after commit.
	notifier := notify.NewNotifier(&cfg.Notifications)
	dispatcher := notify.NewDispatcher(notifier)

	lifecycle := inspections.NewService(db, dispatcher)

	// Start the recurring inspection generator
	generator := jobs.NewRecurringInspectionGenerator(db, &cfg.Inspections.Recurrence)
	go generator.Start(context.Background())
	log.Println("Recurring inspection generator started")

	bg := &BackgroundServices{generator: generator}

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))
	router.Use(middleware.IdentityMiddleware())

	if cfg.Security.RateLimiting.Enabled {
		limitCfg := middleware.DefaultRateLimitConfig()
		if cfg.Security.RateLimiting.RequestsPerMinute > 0 {
			limitCfg.RequestsPerMinute = cfg.Security.RateLimiting.RequestsPerMinute
		}
		if cfg.Security.RateLimiting.Burst > 0 {
			limitCfg.BurstSize = cfg.Security.RateLimiting.Burst
		}
		limiter := middleware.NewRateLimiter(limitCfg)
		bg.rateLimiters = append(bg.rateLimiters, limiter)
		router.Use(middleware.RateLimitMiddleware(limiter))
	}

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Readiness check endpoint
	router.GET("/ready", readinessHandler(db))

	// API version
	router.GET("/version", versionHandler())

	handler := NewInspectionsHandler(lifecycle, generator)

	v1 := router.Group("/v1")
	{
		insp := v1.Group("/inspections")
		{
			insp.GET("/:id", handler.Get)
			insp.POST("/:id/complete", handler.Complete)
			insp.POST("/:id/approve", handler.Approve)
			insp.POST("/:id/reject", handler.Reject)
			insp.POST("/:id/signature", handler.AddSignature)
			insp.GET("/:id/audit", handler.AuditTrail)
			insp.GET("/:id/jobs", handler.ListJobs)
			insp.GET("/:id/recommendations", handler.ListRecommendations)
		}

		v1.POST("/recurring-inspections/generate", handler.TriggerGeneration)
	}

	return router, bg
}

// @Summary      Health check
// @Description  Liveness probe. Verifies the database connection.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func healthCheckHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      Readiness check
// @Description  Returns whether the service is ready to accept traffic.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /ready [get]
func readinessHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		if err := db.PingContext(c.Request.Context()); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Description  Returns the current API version.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /version [get]
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     Version,
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured request logging through slog. The
// output format (json/text) follows the handler installed by
// telemetry.SetupLogger.
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		requestID, _ := c.Get(middleware.RequestIDKey)

		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Requested-With, X-User-Id, X-User-Role")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
