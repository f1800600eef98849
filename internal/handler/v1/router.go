package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/admin"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/config"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/service"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/metrics"
)

// Deps is everything the HTTP layer needs from the composition root.
type Deps struct {
	Config  *config.Config
	Log     *zap.Logger
	Metrics *metrics.Collector
	Tokens  middleware.TokenValidator
	// Health reports whether backing stores are reachable.
	Health func(ctx context.Context) error

	Auth          *service.AuthService
	Profiles      *service.ProfileService
	Connections   *service.ConnectionService
	Clinical      *service.ClinicalService
	Medications   *service.MedicationService
	Notifications *service.NotificationService
	Admin         *admin.Registry
}

// Router is the HTTP entry point. Its rate limiters keep per-IP state that
// should be swept periodically.
type Router struct {
	*gin.Engine
	limiters []*middleware.IPRateLimiter
}

func NewRouter(d Deps) *Router {
	cfg := d.Config

	apiLimiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.BurstSize)
	authLimiter := middleware.NewIPRateLimiter(
		rate.Every(time.Minute/time.Duration(max(cfg.RateLimit.AuthRequestsPerMinute, 1))),
		max(cfg.RateLimit.AuthRequestsPerMinute, 1),
	)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(d.Log),
		middleware.Tracing(cfg.Tracing.ServiceName),
		middleware.Metrics(d.Metrics),
		middleware.Logger(d.Log),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.CORS),
	)

	r.GET("/healthz", func(c *gin.Context) {
		if d.Health != nil {
			if err := d.Health(c.Request.Context()); err != nil {
				d.Log.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.App.Version})
	})
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	doctorOnly := middleware.RequireRole(domain.RoleDoctor)
	patientOnly := middleware.RequireRole(domain.RolePatient)
	doctorOrAdmin := middleware.RequireRole(domain.RoleDoctor, domain.RoleAdmin)

	authH := NewAuthHandler(d.Auth, d.Profiles, d.Log)

	v1 := r.Group("/api/v1", apiLimiter.Middleware())
	authH.RegisterPublicRoutes(v1.Group("", authLimiter.Middleware()))

	protected := v1.Group("", middleware.Authenticate(d.Tokens))
	authH.RegisterRoutes(protected, adminOnly)
	NewProfileHandler(d.Profiles, d.Log).RegisterRoutes(protected, adminOnly)
	NewConnectionHandler(d.Connections, d.Log).RegisterRoutes(protected, patientOnly, doctorOrAdmin)
	NewClinicalHandler(d.Clinical, d.Log).RegisterRoutes(protected, doctorOnly)
	NewMedicationHandler(d.Medications, d.Log).RegisterRoutes(protected, doctorOrAdmin, adminOnly)
	NewNotificationHandler(d.Notifications, d.Log).RegisterRoutes(protected, adminOnly)

	admin.NewHandler(d.Admin, d.Log).Register(protected.Group("/admin", adminOnly))

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "route not found")
	})

	return &Router{Engine: r, limiters: []*middleware.IPRateLimiter{apiLimiter, authLimiter}}
}

// SweepLimiters drops idle per-IP buckets.
func (r *Router) SweepLimiters() {
	for _, l := range r.limiters {
		l.Sweep()
	}
}
