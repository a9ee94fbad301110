package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/shreeji-gems/diamond-api/api/swagger"
	"github.com/shreeji-gems/diamond-api/internal/handler"
	"github.com/shreeji-gems/diamond-api/internal/middleware"
	"github.com/shreeji-gems/diamond-api/internal/repository"
	"github.com/shreeji-gems/diamond-api/internal/service"
	"github.com/shreeji-gems/diamond-api/pkg/cache"
	"github.com/shreeji-gems/diamond-api/pkg/config"
	"github.com/shreeji-gems/diamond-api/pkg/database"
	"github.com/shreeji-gems/diamond-api/pkg/jobs"
	"github.com/shreeji-gems/diamond-api/pkg/logger"
	corsmiddleware "github.com/shreeji-gems/diamond-api/pkg/middleware/cors"
	reqidmiddleware "github.com/shreeji-gems/diamond-api/pkg/middleware/requestid"
	"github.com/shreeji-gems/diamond-api/pkg/storage"
)

// @title Diamond Ledger API
// @version 1.0.0
// @description Back-office API for the diamond trading dashboard
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, master data served uncached", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	colorRepo := repository.NewReferenceRepository(db, "colors")
	clarityRepo := repository.NewReferenceRepository(db, "clarities")
	shapeRepo := repository.NewReferenceRepository(db, "shapes")
	statusRepo := repository.NewReferenceRepository(db, "statuses")
	paymentStatusRepo := repository.NewReferenceRepository(db, "payment_statuses")
	employeeRepo := repository.NewReferenceRepository(db, "employees")
	partyRepo := repository.NewPartyRepository(db)
	lotRepo := repository.NewLotRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	rateRepo := repository.NewRateRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	// Services. Reference mutations funnel through the master data
	// invalidator so the cached aggregate never goes stale.
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:   cfg.Auth.JWTSecret,
		TokenTTL: cfg.Auth.TokenTTL,
		Issuer:   "diamond-api",
	})

	var masterDataSvc *service.MasterDataService
	invalidate := func(ctx context.Context) {
		if masterDataSvc != nil {
			masterDataSvc.Invalidate(ctx)
		}
	}

	colorSvc := service.NewReferenceService(colorRepo, validate, logr, invalidate)
	claritySvc := service.NewReferenceService(clarityRepo, validate, logr, invalidate)
	shapeSvc := service.NewReferenceService(shapeRepo, validate, logr, invalidate)
	statusSvc := service.NewReferenceService(statusRepo, validate, logr, invalidate)
	paymentStatusSvc := service.NewReferenceService(paymentStatusRepo, validate, logr, invalidate)
	employeeSvc := service.NewReferenceService(employeeRepo, validate, logr, invalidate)
	partySvc := service.NewPartyService(partyRepo, validate, logr, invalidate)

	masterDataSvc = service.NewMasterDataService(
		colorSvc, claritySvc, shapeSvc, statusSvc, paymentStatusSvc, employeeSvc,
		partySvc, authSvc, redisClient, metricsSvc, cfg.MasterData.CacheTTL, logr,
	)

	lotSvc := service.NewLotService(lotRepo, partyRepo, rateRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, validate, logr)
	rateSvc := service.NewRateService(rateRepo, partyRepo, validate, logr)

	exportSvc := service.NewExportService(exportJobRepo, lotSvc, exportStore, signer, metricsSvc,
		service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
			MaxRows:   cfg.Exports.MaxRows,
		},
		jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
		},
		logr,
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exportSvc.Start(rootCtx)
	defer exportSvc.Stop()

	go func() {
		ticker := time.NewTicker(cfg.Exports.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				exportSvc.Cleanup(rootCtx)
			}
		}
	}()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc, handler.SessionCookie{
		Name:   cfg.Auth.CookieName,
		Domain: cfg.Auth.CookieDomain,
		Secure: cfg.Auth.CookieSecure,
		MaxAge: int(cfg.Auth.TokenTTL.Seconds()),
	})
	partyHandler := handler.NewPartyHandler(partySvc)
	lotHandler := handler.NewLotHandler(lotSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	rateHandler := handler.NewRateHandler(rateSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	masterDataHandler := handler.NewMasterDataHandler(masterDataSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)

	session := middleware.Session(authSvc, cfg.Auth.CookieName)
	protected := api.Group("", session)

	protected.GET("/auth/me", authHandler.Me)
	protected.GET("/auth/users", authHandler.Users)
	protected.POST("/auth/users", authHandler.CreateUser)

	// One CRUD surface per reference resource, each with its select-
	// population alias, mirroring what the management pages call.
	references := []struct {
		path    string
		allPath string
		h       *handler.ReferenceHandler
	}{
		{"/color", "/color/allColors", handler.NewReferenceHandler(colorSvc)},
		{"/clarity", "/clarity/allClarity", handler.NewReferenceHandler(claritySvc)},
		{"/shape", "/shape/allShape", handler.NewReferenceHandler(shapeSvc)},
		{"/status", "/status/allStatus", handler.NewReferenceHandler(statusSvc)},
		{"/paymentStatus", "/paymentStatus/allPaymentStatus", handler.NewReferenceHandler(paymentStatusSvc)},
		{"/employee", "/employee/allEmployee", handler.NewReferenceHandler(employeeSvc)},
	}
	for _, ref := range references {
		protected.GET(ref.path, ref.h.List)
		protected.GET(ref.allPath, ref.h.All)
		protected.POST(ref.path, ref.h.Create)
		protected.PUT(ref.path+"/:id", ref.h.Update)
		protected.DELETE(ref.path+"/:id", ref.h.Delete)
	}

	protected.GET("/party", partyHandler.List)
	protected.GET("/party/allParty", partyHandler.All)
	protected.GET("/party/kapanNumbers", partyHandler.KapanNumbers)
	protected.POST("/party", partyHandler.Create)
	protected.PUT("/party/:id", partyHandler.Update)
	protected.DELETE("/party/:id", partyHandler.Delete)

	protected.GET("/diamondLot", lotHandler.List)
	protected.GET("/diamondLot/lot", lotHandler.GetByUniqueID)
	protected.POST("/diamondLot", lotHandler.Create)
	protected.PUT("/diamondLot/:id", lotHandler.Update)

	protected.GET("/attendance", attendanceHandler.Month)
	protected.POST("/attendance", attendanceHandler.Mark)
	protected.POST("/attendance/markAll", attendanceHandler.MarkAll)

	protected.GET("/rate", rateHandler.ListByParty)
	protected.POST("/rate", rateHandler.CreateTier)
	protected.PUT("/rate/deleteItem/:id", rateHandler.DeleteItem)
	protected.PUT("/rate/:id", rateHandler.UpdateTier)
	protected.DELETE("/rate/:id", rateHandler.DeleteTier)

	protected.POST("/export", exportHandler.Enqueue)
	protected.GET("/export/:id", exportHandler.Status)
	api.GET("/export/download/:token", exportHandler.Download)

	protected.GET("/masterData", masterDataHandler.Get)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}
