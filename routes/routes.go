package routes

import (
	"MedOffice/config"
	"MedOffice/controllers"
	"MedOffice/gateway"
	"MedOffice/handlers"
	"MedOffice/metrics"
	"MedOffice/middlewares"
	"MedOffice/reports"
	"MedOffice/services"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the services the HTTP layer exposes.
type Dependencies struct {
	Payments     *services.PaymentService
	Alerts       *services.AlertService
	Statistics   *services.StatisticsService
	Patients     *services.PatientService
	Appointments *services.AppointmentService
	Reports      *reports.PaymentsExporter
	Midtrans     *gateway.MidtransGateway
	Metrics      *metrics.Collector
	Log          *zap.Logger
}

// SetupRoutes initializes the routes and middleware for the server
func SetupRoutes(cfg *config.AppConfig, deps Dependencies) http.Handler {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.LoggingMiddleware(deps.Log))
	router.Use(middlewares.MetricsMiddleware(deps.Metrics))

	router.Use(middlewares.CorsMiddleware(&middlewares.CorsConfig{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middlewares.ActorHeader},
		AllowCredentials: true,
	}))

	router.Use(middlewares.NewRateLimiterMiddleware(middlewares.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	controllers.SetupRootRoute(router, deps.Metrics.Handler())
	if deps.Midtrans != nil {
		controllers.SetupWebhookRoutes(router, handlers.NewWebhookHandler(deps.Midtrans, deps.Payments, deps.Log))
	}

	api := router.Group("/")
	api.Use(middlewares.ValidateBearerToken(cfg.GetBearerToken()))
	api.Use(middlewares.ActorMiddleware())

	loc := cfg.Location()
	controllers.SetupPaymentRoutes(api, controllers.PaymentRoutes{
		Payments:   handlers.NewPaymentHandler(deps.Payments, deps.Log),
		Alerts:     handlers.NewAlertHandler(deps.Alerts, deps.Log),
		Statistics: handlers.NewStatisticsHandler(deps.Statistics, loc, deps.Log),
		Reports:    handlers.NewReportHandler(deps.Reports, loc, deps.Log),
	})
	controllers.SetupPatientRoutes(api,
		handlers.NewPatientHandler(deps.Patients, deps.Log),
		handlers.NewAppointmentHandler(deps.Appointments, deps.Log),
	)

	return router
}
