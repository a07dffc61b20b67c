package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lims-backend/internal/auth"
	"lims-backend/internal/backup"
	"lims-backend/internal/cache"
	"lims-backend/internal/config"
	"lims-backend/internal/handlers"
	"lims-backend/internal/health"
	apihttp "lims-backend/internal/http"
	"lims-backend/internal/middleware"
	"lims-backend/internal/monitoring"
	"lims-backend/internal/persistence"
	"lims-backend/internal/services"
	"lims-backend/internal/store"
)

func main() {
	memoryOnly := flag.Bool("memory", false, "run with in-memory persistence (no database)")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence backend: postgres, falling back to memory so the
	// engine stays usable when the database is down.
	var port persistence.Port
	if *memoryOnly {
		log.Println("[Main] Running with in-memory persistence")
		port = persistence.NewMemory()
	} else {
		pg, err := persistence.NewPostgres(ctx, cfg.DatabaseURL())
		if err != nil {
			log.Printf("[Main] Postgres unavailable (%v), falling back to in-memory persistence", err)
			port = persistence.NewMemory()
		} else {
			port = pg
		}
	}
	defer port.Close()

	st := store.New(port)
	if err := st.Load(ctx); err != nil {
		log.Fatalf("[Main] Failed to load state: %v", err)
	}

	if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password); err != nil {
		log.Printf("[Cache] Redis unavailable, dashboard caching disabled: %v", err)
	}

	jwtManager := auth.NewJWTManager(cfg)
	recorder := services.NewAuditRecorder()

	catalogService := services.NewCatalogService(st, recorder)
	invoiceService := services.NewInvoiceService(st, recorder)
	paymentLedger := services.NewPaymentLedger(st, recorder)
	reportService := services.NewReportService(st, recorder)
	dashboardService := services.NewDashboardService(st)
	registryService := services.NewRegistryService(st, recorder)
	userService := services.NewUserService(st, recorder, jwtManager)
	exportService := services.NewExportService(st)
	totpService := services.NewTOTPService(st)
	razorpayService := services.NewRazorpayService(st, paymentLedger,
		cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.WebhookSecret)

	healthChecker := health.NewHealthChecker(st)

	h := &apihttp.Handlers{
		Auth:      handlers.NewAuthHandler(userService),
		Users:     handlers.NewUserHandler(userService),
		Tests:     handlers.NewTestHandler(catalogService, dashboardService),
		Invoices:  handlers.NewInvoiceHandler(invoiceService, paymentLedger, dashboardService),
		Reports:   handlers.NewReportHandler(reportService, totpService, dashboardService),
		Dashboard: handlers.NewDashboardHandler(dashboardService),
		Patients:  handlers.NewPatientHandler(registryService, dashboardService),
		Doctors:   handlers.NewDoctorHandler(registryService, dashboardService),
		Inventory: handlers.NewInventoryHandler(registryService, dashboardService),
		AuditLogs: handlers.NewAuditLogHandler(st),
		Exports:   handlers.NewExportHandler(exportService),
		Razorpay:  handlers.NewRazorpayHandler(razorpayService, dashboardService),
		TOTP:      handlers.NewTOTPHandler(totpService),
		Health:    handlers.NewHealthHandler(healthChecker),
	}

	authMW := middleware.NewAuthMiddleware(jwtManager, st)
	router := apihttp.NewRouter(h, authMW)

	cors := middleware.NewCORS(cfg)
	handler := middleware.PanicRecovery(middleware.MetricsMiddleware(cors(router)))

	// Monitoring dashboard on its own port
	go monitoring.NewServer(st, cfg.Server.MonitoringPort).Start()

	// Snapshot backups to S3-compatible storage
	if cfg.Backup.Enabled {
		uploader, err := backup.NewUploader(ctx, st, backup.Config{
			Endpoint:  cfg.Backup.Endpoint,
			Bucket:    cfg.Backup.Bucket,
			Region:    cfg.Backup.Region,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
			Interval:  time.Duration(cfg.Backup.IntervalMinutes) * time.Minute,
		})
		if err != nil {
			log.Printf("[Backup] Disabled: %v", err)
		} else {
			go uploader.Run(ctx)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("[Main] Server running on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Main] Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("[Main] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Main] Server shutdown error: %v", err)
	}
	if err := st.Flush(shutdownCtx); err != nil {
		log.Printf("[Main] Final state flush failed: %v", err)
	}
	log.Println("[Main] Stopped")
}
