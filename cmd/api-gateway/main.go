package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/dept-portal-api/api/swagger"
	"github.com/noah-isme/dept-portal-api/internal/handler"
	"github.com/noah-isme/dept-portal-api/internal/repository"
	"github.com/noah-isme/dept-portal-api/internal/service"
	"github.com/noah-isme/dept-portal-api/pkg/cache"
	"github.com/noah-isme/dept-portal-api/pkg/config"
	"github.com/noah-isme/dept-portal-api/pkg/database"
	"github.com/noah-isme/dept-portal-api/pkg/export"
	"github.com/noah-isme/dept-portal-api/pkg/jobs"
	"github.com/noah-isme/dept-portal-api/pkg/logger"
	"github.com/noah-isme/dept-portal-api/pkg/storage"
)

// @title Department Portal API
// @version 1.0.0
// @description Course registration, fees, assignments and grading for a university department
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		if cfg.JWT.Secret == "" || cfg.JWT.Secret == "dev_secret" {
			logr.Fatal("JWT_SECRET must be set in production")
		}
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	checks := map[string]func(ctx context.Context) error{"database": handler.PingCheck(db)}

	var cacheSvc *service.CacheService
	if cfg.Dashboard.CacheEnabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer client.Close()
			cacheRepo := repository.NewCacheRepository(client)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, true)
			checks["redis"] = cacheRepo.Ping
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	lecturerRepo := repository.NewLecturerRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	reportRepo := repository.NewReportRepository(db)

	uploads, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare upload storage", zap.Error(err))
	}
	exportsDir, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	pdf := export.NewPDFExporter()

	authSvc := service.NewAuthService(userRepo, activityRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	})
	registrationSvc := service.NewRegistrationService(enrollmentRepo, activityRepo, metrics, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, cacheSvc, validate, logr)
	directorySvc := service.NewDirectoryService(studentRepo, lecturerRepo, logr)
	feeSvc := service.NewFeeService(feeRepo, studentRepo, cacheSvc, activityRepo, pdf, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, validate, logr)
	submissionSvc := service.NewSubmissionService(assignmentRepo, uploads, activityRepo, metrics, service.SubmissionConfig{
		MaxFileSize:  cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
		PublicPrefix: cfg.Uploads.PublicPrefix,
	}, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, assignmentRepo, activityRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, logr)
	announcementSvc := service.NewAnnouncementService(announcementRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, studentRepo, enrollmentRepo, gradeRepo, feeRepo, cacheSvc, logr)

	exportSvc := service.NewExportService(feeRepo, enrollmentRepo, exportsDir, export.NewCSVExporter(), pdf, logr)
	worker := service.NewReportWorker(reportRepo, exportSvc, metrics, cfg.Reports.WorkerRetries, logr)
	queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	reportSvc := service.NewReportService(reportRepo, queue, exportSvc, signer, metrics, validate, logr, service.ReportServiceConfig{
		DownloadPath: cfg.APIPrefix + "/reports/download",
		ResultTTL:    cfg.Reports.SignedURLTTL,
	})

	if cfg.Reports.Enabled {
		queue.Start(ctx)
		defer queue.Stop()
		reportSvc.RecoverPendingJobs(ctx)
		jobs.Every(ctx, cfg.Reports.CleanupInterval, logr, "report-cleanup", reportSvc.CleanupExpired)
	}

	r := newRouter(cfg, logr, routerDeps{
		auth:         authSvc,
		activity:     activityRepo,
		metrics:      metrics,
		reports:      cfg.Reports.Enabled,
		checks:       checks,
		authH:        handler.NewAuthHandler(authSvc),
		registration: handler.NewRegistrationHandler(registrationSvc),
		courses:      handler.NewCourseHandler(courseSvc),
		directory:    handler.NewDirectoryHandler(directorySvc),
		fees:         handler.NewFeeHandler(feeSvc),
		assignments:  handler.NewAssignmentHandler(assignmentSvc, submissionSvc, cfg.Uploads.MaxFileSizeBytes+1<<20),
		grades:       handler.NewGradeHandler(gradeSvc),
		attendance:   handler.NewAttendanceHandler(attendanceSvc),
		schedules:    handler.NewScheduleHandler(scheduleSvc),
		announcement: handler.NewAnnouncementHandler(announcementSvc),
		dashboard:    handler.NewDashboardHandler(dashboardSvc),
		reportH:      handler.NewReportHandler(reportSvc),
		activityH:    handler.NewActivityHandler(activityRepo),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
