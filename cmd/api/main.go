package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/placementhub/placement-api/api/swagger"
	"github.com/placementhub/placement-api/internal/handler"
	"github.com/placementhub/placement-api/internal/middleware"
	"github.com/placementhub/placement-api/internal/models"
	"github.com/placementhub/placement-api/internal/repository"
	"github.com/placementhub/placement-api/internal/service"
	"github.com/placementhub/placement-api/pkg/cache"
	"github.com/placementhub/placement-api/pkg/config"
	"github.com/placementhub/placement-api/pkg/database"
	"github.com/placementhub/placement-api/pkg/export"
	"github.com/placementhub/placement-api/pkg/jobs"
	"github.com/placementhub/placement-api/pkg/logger"
	corsmiddleware "github.com/placementhub/placement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/placementhub/placement-api/pkg/middleware/requestid"
	"github.com/placementhub/placement-api/pkg/storage"
)

// @title Placement Portal API
// @version 0.1.0
// @description Campus placement training and drive management
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	eligibilityRepo := repository.NewEligibilityRepository(db)
	driveRepo := repository.NewDriveRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	testRepo := repository.NewTestRepository(db)
	resumeRepo := repository.NewResumeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	trainingRepo := repository.NewTrainingRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	exportRepo := repository.NewExportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, logr)

	authSvc := service.NewAuthService(userRepo, profileRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, nil, logr)
	profileSvc := service.NewProfileService(profileRepo, nil, logr)
	eligibilitySvc := service.NewEligibilityService(eligibilityRepo, profileRepo, nil, logr)
	driveSvc := service.NewDriveService(driveRepo, cacheSvc, nil, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, driveRepo, eligibilitySvc, nil, logr)
	testSvc := service.NewTestService(testRepo, cacheSvc, nil, logr)
	resumeSvc := service.NewResumeService(resumeRepo, store, export.NewPDFExporter(), nil, logr)
	trainingSvc := service.NewTrainingService(trainingRepo, nil, logr)

	// The notification queue and service reference each other, so the
	// queue's handler closes over the service variable.
	var notificationSvc *service.NotificationService
	notificationQueue := jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		return notificationSvc.Deliver(ctx, job)
	}, jobs.QueueConfig{
		Workers: cfg.Notifications.WorkerConcurrency,
		Logger:  logr,
	})
	notificationSvc = service.NewNotificationService(notificationRepo, notificationQueue, nil, logr)

	exportSvc := service.NewExportService(registrationRepo, testRepo, analyticsRepo, store, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)
	exportWorker := service.NewExportWorker(exportRepo, exportSvc, metricsSvc, cfg.Exports.WorkerRetries, logr)
	exportQueue := jobs.NewQueue("exports", exportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportJobSvc := service.NewExportJobService(exportRepo, exportQueue, exportSvc, nil, logr, service.ExportJobConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
	})

	analyticsSvc := service.NewAnalyticsService(service.AnalyticsServiceParams{
		Aggregates:    analyticsRepo,
		Drives:        driveRepo,
		Registrations: registrationRepo,
		Tests:         testRepo,
		Resumes:       resumeRepo,
		Training:      trainingRepo,
		Profiles:      profileRepo,
		Notifications: notificationRepo,
		Exports:       exportRepo,
		Cache:         cacheSvc,
		Metrics:       metricsSvc,
		DBTimer:       metricsSvc,
		Logger:        logr,
		CacheTTL:      cfg.Dashboard.CacheTTL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationQueue.Start(ctx)
	defer notificationQueue.Stop()
	if cfg.Exports.Enabled {
		exportQueue.Start(ctx)
		defer exportQueue.Stop()
		exportJobSvc.RecoverPendingJobs(ctx)
		exportJobSvc.StartCleanup(ctx)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	eligibilityHandler := handler.NewEligibilityHandler(eligibilitySvc)
	driveHandler := handler.NewDriveHandler(driveSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc, metricsSvc)
	testHandler := handler.NewTestHandler(testSvc)
	resumeHandler := handler.NewResumeHandler(resumeSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	trainingHandler := handler.NewTrainingHandler(trainingSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	exportHandler := handler.NewExportHandler(exportJobSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), routeDeps{
		auth:          authSvc,
		userRepo:      userRepo,
		authH:         authHandler,
		users:         userHandler,
		profiles:      profileHandler,
		eligibility:   eligibilityHandler,
		drives:        driveHandler,
		registrations: registrationHandler,
		tests:         testHandler,
		resumes:       resumeHandler,
		notifications: notificationHandler,
		training:      trainingHandler,
		analytics:     analyticsHandler,
		exports:       exportHandler,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

type routeDeps struct {
	auth          *service.AuthService
	userRepo      *repository.UserRepository
	authH         *handler.AuthHandler
	users         *handler.UserHandler
	profiles      *handler.ProfileHandler
	eligibility   *handler.EligibilityHandler
	drives        *handler.DriveHandler
	registrations *handler.RegistrationHandler
	tests         *handler.TestHandler
	resumes       *handler.ResumeHandler
	notifications *handler.NotificationHandler
	training      *handler.TrainingHandler
	analytics     *handler.AnalyticsHandler
	exports       *handler.ExportHandler
}

func registerRoutes(api *gin.RouterGroup, d routeDeps) {
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleOfficer)
	staffAndTrainers := middleware.RequireRoles(models.RoleAdmin, models.RoleOfficer, models.RoleTrainer)
	trainers := middleware.RequireRoles(models.RoleAdmin, models.RoleTrainer)
	students := middleware.RequireRoles(models.RoleStudent)
	admins := middleware.RequireRoles(models.RoleAdmin)

	auth := api.Group("/auth")
	{
		auth.POST("/register", middleware.Audit(d.userRepo, models.AuditActionRegister, "auth"), d.authH.Register)
		auth.POST("/login", middleware.Audit(d.userRepo, models.AuditActionLogin, "auth"), d.authH.Login)
		auth.POST("/refresh", d.authH.Refresh)

		authed := auth.Group("", middleware.JWT(d.auth))
		authed.POST("/logout", middleware.Audit(d.userRepo, models.AuditActionLogout, "auth"), d.authH.Logout)
		authed.POST("/change-password", middleware.Audit(d.userRepo, models.AuditActionPasswordChange, "auth"), d.authH.ChangePassword)
		authed.GET("/me", d.authH.Me)
	}

	users := api.Group("/users", middleware.JWT(d.auth))
	{
		users.GET("", staff, d.users.List)
		users.GET("/:id", middleware.RBAC("ADMIN", "OFFICER", "SELF"), d.users.Get)
		users.POST("", admins, d.users.Create)
		users.PUT("/:id", admins, middleware.Audit(d.userRepo, models.AuditActionUserUpdate, "users"), d.users.Update)
		users.DELETE("/:id", admins, d.users.Deactivate)
	}

	profiles := api.Group("/profiles", middleware.JWT(d.auth))
	{
		profiles.GET("/me", students, d.profiles.Me)
		profiles.PUT("/me", students, d.profiles.Update)
		profiles.GET("", staffAndTrainers, d.profiles.List)
		profiles.GET("/:id", d.profiles.Get)
	}

	eligibility := api.Group("/eligibility", middleware.JWT(d.auth))
	{
		eligibility.POST("/rules", staff, d.eligibility.CreateRule)
		eligibility.GET("/rules", d.eligibility.ListRules)
		eligibility.PUT("/rules/:id", staff, d.eligibility.UpdateRule)
		eligibility.POST("/rules/:id/check", students, d.eligibility.Check)
		eligibility.POST("/drives/:id/check", students, d.eligibility.CheckDrive)
		eligibility.GET("/rules/:id/stats", staff, d.eligibility.Stats)
		eligibility.GET("/history", students, d.eligibility.History)
		eligibility.POST("/overrides", staff, d.eligibility.Override)
	}

	drives := api.Group("/drives", middleware.JWT(d.auth))
	{
		drives.GET("", d.drives.List)
		drives.GET("/:id", d.drives.Get)
		drives.POST("", staff, d.drives.Create)
		drives.PUT("/:id", staff, d.drives.Update)
		drives.DELETE("/:id", staff, d.drives.Cancel)
		drives.POST("/:id/register", students, d.registrations.Register)
		drives.GET("/:id/registrations/summary", staff, d.registrations.Summary)
	}

	registrations := api.Group("/registrations", middleware.JWT(d.auth))
	{
		registrations.GET("", d.registrations.List)
		registrations.DELETE("/:id", students, d.registrations.Withdraw)
		registrations.PUT("/:id/status", staff, d.registrations.UpdateStatus)
	}

	tests := api.Group("/tests", middleware.JWT(d.auth))
	{
		tests.GET("", d.tests.List)
		tests.GET("/history", students, d.tests.History)
		tests.GET("/:id", d.tests.Get)
		tests.POST("", staffAndTrainers, d.tests.Create)
		tests.POST("/:id/publish", staffAndTrainers, d.tests.Publish)
		tests.POST("/:id/submit", students, d.tests.Submit)
		tests.GET("/:id/leaderboard", d.tests.Leaderboard)
		tests.GET("/:id/performance", staffAndTrainers, d.tests.Performance)
	}

	resumes := api.Group("/resumes", middleware.JWT(d.auth), students)
	{
		resumes.GET("", d.resumes.List)
		resumes.POST("", d.resumes.Save)
		resumes.POST("/analyze", d.resumes.Analyze)
		resumes.GET("/templates", d.resumes.Templates)
		resumes.GET("/:id", d.resumes.Get)
		resumes.PUT("/:id", d.resumes.Update)
		resumes.DELETE("/:id", d.resumes.Delete)
		resumes.GET("/:id/render", d.resumes.Render)
	}

	notifications := api.Group("/notifications", middleware.JWT(d.auth))
	{
		notifications.GET("", d.notifications.Inbox)
		notifications.GET("/unread-count", d.notifications.UnreadCount)
		notifications.POST("", staff, d.notifications.Broadcast)
		notifications.POST("/:id/read", d.notifications.MarkRead)
	}

	training := api.Group("/training", middleware.JWT(d.auth))
	{
		training.GET("/sessions", d.training.List)
		training.GET("/sessions/:id", d.training.Get)
		training.POST("/sessions", trainers, d.training.Schedule)
		training.PUT("/sessions/:id/status", trainers, d.training.UpdateStatus)
		training.POST("/sessions/:id/attendance", trainers, d.training.MarkAttendance)
		training.GET("/sessions/:id/attendance", staffAndTrainers, d.training.Attendance)
		training.GET("/attendance/me", students, d.training.MySummary)
	}

	analytics := api.Group("/analytics", middleware.JWT(d.auth))
	{
		analytics.GET("/dashboard", d.analytics.Dashboard)
		analytics.GET("/departments", staff, d.analytics.Departments)
		analytics.GET("/readiness", staff, d.analytics.ReadinessReports)
		analytics.GET("/readiness/me", students, d.analytics.MyReadiness)
		analytics.GET("/readiness/:id", staff, d.analytics.StudentReadiness)
		analytics.GET("/system", admins, d.analytics.System)
	}

	exports := api.Group("/exports")
	{
		// Downloads authenticate via the signed token, not a JWT.
		exports.GET("/download/:token", d.exports.Download)

		authed := exports.Group("", middleware.JWT(d.auth), staff)
		authed.POST("", d.exports.Create)
		authed.GET("/:id", d.exports.Status)
	}
}
