package main

import (
	"MedOffice/cache"
	"MedOffice/config"
	"MedOffice/cronjobs"
	"MedOffice/database"
	"MedOffice/gateway"
	"MedOffice/logger"
	"MedOffice/metrics"
	"MedOffice/models"
	"MedOffice/notifications"
	"MedOffice/reports"
	"MedOffice/repositories"
	"MedOffice/routes"
	"MedOffice/services"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zlog := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: cfg.IsDevelopment(),
	})
	defer func() { _ = zlog.Sync() }()

	db, err := database.InitDB(context.Background(), cfg.DBURL, cfg.IsDevelopment(), zlog)
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(cfg.Redis, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize Redis client", zap.Error(err))
	}

	readCache, err := cache.NewCache(redisClient)
	if err != nil {
		zlog.Fatal("failed to initialize cache", zap.Error(err))
	}

	collector := metrics.NewCollector()

	paymentRepo := repositories.NewPaymentRepository(db, readCache, zlog)
	patientRepo := repositories.NewPatientRepository(db, readCache, zlog)
	appointmentRepo := repositories.NewAppointmentRepository(db, readCache, zlog)
	if err := paymentRepo.PurgeCache(context.Background()); err != nil {
		zlog.Warn("failed to purge payment cache", zap.Error(err))
	}

	var wallet services.WalletGateway
	var midtrans *gateway.MidtransGateway
	if cfg.MidtransServerKey != "" {
		midtrans = gateway.NewMidtransGateway(cfg.MidtransServerKey, cfg.MidtransProduction)
		wallet = midtrans
	} else {
		zlog.Warn("MIDTRANS_SERVER_KEY not set, wallet checkout disabled")
	}

	defaultChannel := models.DeliveryChannel(cfg.DefaultChannel)
	paymentService := services.NewPaymentService(services.PaymentServiceDeps{
		Store:        paymentRepo,
		Appointments: appointmentRepo,
		Patients:     patientRepo,
		Locker:       database.NewRedisLocker(redisClient, zlog),
		Plans:        services.NewTreatmentPlanCoordinator(defaultChannel),
		Wallet:       wallet,
		Metrics:      collector,
		Log:          zlog,
		Currency:     cfg.DefaultCurrency,
	})
	alertService := services.NewAlertService(paymentRepo, paymentService, patientRepo, newNotifier(cfg, zlog), collector, zlog)
	statisticsService := services.NewStatisticsService(paymentRepo, cfg.Location())

	scheduler, err := cronjobs.NewScheduler(cronjobs.Config{
		SweepSchedule:    cfg.SweepSchedule,
		DispatchSchedule: cfg.DispatchSchedule,
	}, alertService, collector, zlog)
	if err != nil {
		zlog.Fatal("failed to schedule jobs", zap.Error(err))
	}
	if err := scheduler.Register("redis_pool_stats", "@every 10m", func(ctx context.Context) error {
		database.MonitorRedisPool(redisClient, zlog)
		return nil
	}); err != nil {
		zlog.Fatal("failed to schedule jobs", zap.Error(err))
	}

	handler := routes.SetupRoutes(cfg, routes.Dependencies{
		Payments:     paymentService,
		Alerts:       alertService,
		Statistics:   statisticsService,
		Patients:     services.NewPatientService(patientRepo),
		Appointments: services.NewAppointmentService(appointmentRepo),
		Reports:      reports.NewPaymentsExporter(paymentService, cfg.Location()),
		Midtrans:     midtrans,
		Metrics:      collector,
		Log:          zlog,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        handler,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
		IdleTimeout:    30 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		zlog.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("listenAndServe failed", zap.Error(err))
		}
	}()
	scheduler.Start()

	// Graceful shutdown handling
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	zlog.Info("shutting down server")
	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}

	wg.Wait()
	if err := redisClient.Close(); err != nil {
		zlog.Warn("failed to close Redis client", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		zlog.Warn("failed to close database", zap.Error(err))
	}
	zlog.Info("server exited gracefully")
}

// newNotifier registers a sender for every configured channel.
func newNotifier(cfg *config.AppConfig, zlog *zap.Logger) *notifications.Router {
	router := notifications.NewRouter(zlog)
	if cfg.SMTP.Host != "" {
		router.Register(models.ChannelEmail, notifications.NewEmailSender(cfg.SMTP))
	}
	if cfg.WhatsAppGatewayURL != "" {
		router.Register(models.ChannelWhatsApp, notifications.NewWhatsAppSender(cfg.WhatsAppGatewayURL))
	}
	if cfg.SMSGatewayURL != "" {
		router.Register(models.ChannelSMS, notifications.NewSMSSender(cfg.SMSGatewayURL, cfg.SMSGatewayToken))
	}
	return router
}
