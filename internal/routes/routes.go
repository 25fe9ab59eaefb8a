package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/handlers"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/triage"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// Deps is everything the transport layer needs, already wired to a backend.
type Deps struct {
	Service    *ucAppointment.Service
	Triage     *triage.Router
	AuditStore audit.Store
	Gatherer   prometheus.Gatherer
	Log        *zap.Logger
}

func RegisterRoutes(r *gin.Engine, deps Deps, cfg *config.Config) {

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	// ======================================================
	// HANDLERS
	// ======================================================
	appointmentHandler := handlers.NewAppointmentHandler(deps.Service)
	availabilityHandler := handlers.NewAvailabilityHandler(deps.Service, cfg.SyncPollInterval)
	providerHandler := handlers.NewProviderHandler(deps.Service)
	triageHandler := handlers.NewTriageHandler(deps.Triage)
	auditLogsHandler := handlers.NewAuditLogsHandler(deps.AuditStore)

	bookLimiter := middleware.NewRateLimiter(cfg.BookRatePerMinute)

	// ======================================================
	// OPS
	// ======================================================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg))
	{
		// ------------------------------
		// DIRECTORY + AVAILABILITY
		// ------------------------------
		api.GET("/providers", providerHandler.List)
		api.GET("/providers/:provider_id/availability", availabilityHandler.Slots)
		api.GET("/providers/:provider_id/changes", availabilityHandler.Changes)
		api.GET("/providers/:provider_id/config", availabilityHandler.GetConfig)

		// ------------------------------
		// APPOINTMENTS
		// ------------------------------
		api.GET("/appointments/:id", appointmentHandler.Get)
		api.POST("/appointments/:id/cancel", appointmentHandler.Cancel)

		// ------------------------------
		// PATIENT
		// ------------------------------
		patient := api.Group("/")
		patient.Use(middleware.RequireRole(domain.RolePatient))
		{
			patient.POST("/appointments", bookLimiter.Middleware(), appointmentHandler.Book)
			patient.GET("/me/appointments", appointmentHandler.ListMine)
			patient.POST("/triage", triageHandler.Triage)
		}

		// ------------------------------
		// PROVIDER
		// ------------------------------
		provider := api.Group("/")
		provider.Use(middleware.RequireRole(domain.RoleProvider))
		{
			provider.PUT("/providers/:provider_id/config", availabilityHandler.UpdateConfig)
			provider.GET("/providers/:provider_id/calendar", appointmentHandler.ListByDate)
			provider.GET("/providers/:provider_id/calendar/month", appointmentHandler.ListByMonth)
			provider.GET("/providers/:provider_id/audit-logs", auditLogsHandler.List)

			provider.POST("/appointments/:id/confirm", appointmentHandler.Confirm)
			provider.POST("/appointments/:id/complete", appointmentHandler.Complete)
		}
	}
}
