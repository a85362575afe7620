package main

import (
	"context"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/handler"
	"github.com/noah-isme/dept-portal-api/internal/middleware"
	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/internal/service"
	"github.com/noah-isme/dept-portal-api/pkg/config"
	"github.com/noah-isme/dept-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/dept-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/dept-portal-api/pkg/middleware/requestid"
)

type routerDeps struct {
	auth     middleware.TokenValidator
	activity middleware.ActivityWriter
	metrics  *service.MetricsService
	reports  bool
	checks   map[string]func(ctx context.Context) error

	authH        *handler.AuthHandler
	registration *handler.RegistrationHandler
	courses      *handler.CourseHandler
	directory    *handler.DirectoryHandler
	fees         *handler.FeeHandler
	assignments  *handler.AssignmentHandler
	grades       *handler.GradeHandler
	attendance   *handler.AttendanceHandler
	schedules    *handler.ScheduleHandler
	announcement *handler.AnnouncementHandler
	dashboard    *handler.DashboardHandler
	reportH      *handler.ReportHandler
	activityH    *handler.ActivityHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.metrics))

	metricsHandler := handler.NewMetricsHandler(d.metrics, d.checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	r.Static(cfg.Uploads.PublicPrefix, cfg.Uploads.StorageDir)

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleLecturer)
	studentOrAdmin := middleware.RequireRoles(models.RoleStudent, models.RoleAdmin)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(d.activity, logr, action, resource)
	}

	api := r.Group(cfg.APIPrefix)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", middleware.OptionalJWT(d.auth), d.authH.Register)
	authGroup.POST("/login", d.authH.Login)
	authGroup.POST("/refresh", d.authH.Refresh)

	if d.reports {
		// Signed token authorises the download.
		api.GET("/reports/download", d.reportH.Download)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(d.auth))

	secured.POST("/auth/logout", d.authH.Logout)
	secured.GET("/auth/me", d.authH.Me)
	secured.PUT("/auth/password", d.authH.ChangePassword)

	registration := secured.Group("/registration")
	registration.GET("/enrollments", d.registration.Enrollments)
	registration.GET("/available", d.registration.Available)
	registration.POST("", studentOrAdmin, audit("COURSE_REGISTER", "enrollment"), d.registration.Register)
	registration.DELETE("", studentOrAdmin, audit("COURSE_DROP", "enrollment"), d.registration.Drop)

	courses := secured.Group("/courses")
	courses.GET("", d.courses.List)
	courses.GET("/:id", d.courses.Get)
	courses.GET("/:id/students", staff, d.courses.Students)
	courses.POST("", admin, audit("COURSE_CREATE", "course"), d.courses.Create)
	courses.PUT("/:id", admin, audit("COURSE_UPDATE", "course"), d.courses.Update)

	secured.GET("/lecturer/courses", middleware.RequireRoles(models.RoleLecturer), d.courses.LecturerCourses)

	secured.GET("/students", staff, d.directory.Students)
	secured.GET("/students/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleLecturer), middleware.Self), d.directory.Student)
	secured.GET("/lecturers", d.directory.Lecturers)
	secured.GET("/lecturers/:id", d.directory.Lecturer)

	fees := secured.Group("/fees")
	fees.GET("/outstanding", admin, d.fees.Outstanding)
	fees.GET("/students/:id/balance", d.fees.Balance)
	fees.GET("/students/:id/payments", d.fees.Payments)
	fees.GET("/students/:id/statement.pdf", d.fees.Statement)
	fees.POST("/payments", admin, d.fees.RecordPayment)
	fees.GET("/structure", d.fees.Structure)
	fees.PUT("/structure/:level", admin, audit("FEE_STRUCTURE_UPDATE", "fee_structure"), d.fees.SetStructure)

	assignments := secured.Group("/assignments")
	assignments.GET("", d.assignments.List)
	assignments.GET("/student/:studentId", d.assignments.ForStudent)
	assignments.POST("", staff, d.assignments.Create)
	assignments.POST("/submit", studentOrAdmin, d.assignments.Submit)
	assignments.GET("/:id", d.assignments.Get)
	assignments.GET("/:id/submission", d.assignments.Submission)

	grades := secured.Group("/grades")
	grades.GET("", d.grades.List)
	grades.POST("", staff, d.grades.Upsert)
	grades.GET("/summary", staff, d.grades.Summary)

	attendance := secured.Group("/attendance")
	attendance.GET("", d.attendance.List)
	attendance.GET("/students/:id", d.attendance.ByStudent)
	attendance.GET("/students/:id/summary", d.attendance.Summary)
	attendance.POST("", staff, d.attendance.Mark)

	secured.GET("/schedules", d.schedules.ForDate)
	secured.GET("/schedules/all", d.schedules.All)
	secured.GET("/terms", d.schedules.Terms)

	secured.GET("/announcements", d.announcement.List)
	secured.POST("/announcements", staff, audit("ANNOUNCEMENT_CREATE", "announcement"), d.announcement.Create)

	secured.GET("/dashboard/stats", staff, d.dashboard.Stats)
	secured.GET("/dashboard/student", d.dashboard.Student)
	secured.POST("/assistant/ask", d.dashboard.Ask)

	secured.GET("/admin/metrics", admin, metricsHandler.Snapshot)
	secured.GET("/activity", d.activityH.Recent)

	if d.reports {
		reports := secured.Group("/reports", admin)
		reports.POST("", audit("REPORT_CREATE", "report"), d.reportH.Create)
		reports.GET("/:id", d.reportH.Status)
	}

	return r
}
