package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/applicationadmin-sgt/sgtu-lms-api/api/swagger"
	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/handler"
	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/middleware"
	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/models"
	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/repository"
	"github.com/applicationadmin-sgt/sgtu-lms-api/internal/service"
	"github.com/applicationadmin-sgt/sgtu-lms-api/pkg/cache"
	"github.com/applicationadmin-sgt/sgtu-lms-api/pkg/config"
	"github.com/applicationadmin-sgt/sgtu-lms-api/pkg/database"
	"github.com/applicationadmin-sgt/sgtu-lms-api/pkg/logger"
	corsmiddleware "github.com/applicationadmin-sgt/sgtu-lms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/applicationadmin-sgt/sgtu-lms-api/pkg/middleware/requestid"
)

// @title SGTU LMS API
// @version 1.0.0
// @description Section, course and teacher assignment engine with access resolution and unlock escalation.
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, listing cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	lockRepo := repository.NewLockRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Listings.CacheTTL, logr, cfg.Listings.CacheEnabled && redisClient != nil)

	notificationSvc := service.NewNotificationService(service.NewLogSender(logr), cfg.Notifications, logr)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	tokenSvc := service.NewTokenService(cfg.JWT.Secret)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, sectionRepo, courseRepo, userRepo, cacheSvc, notificationSvc, metricsSvc, validate, logr)
	membershipSvc := service.NewMembershipService(sectionRepo, userRepo, notificationSvc, validate, logr)
	accessSvc := service.NewAccessService(assignmentRepo, courseRepo, sectionRepo, userRepo, logr)
	unlockSvc := service.NewUnlockService(lockRepo, userRepo, notificationSvc, metricsSvc, cfg.Unlocks.TeacherQuota, validate, logr)
	sectionSvc := service.NewSectionService(sectionRepo, assignmentRepo, courseRepo, cacheSvc, logr)
	courseSvc := service.NewCourseService(courseRepo, accessSvc, logr)

	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc, membershipSvc)
	accessHandler := handler.NewAccessHandler(accessSvc)
	lockHandler := handler.NewLockHandler(unlockSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
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
	api.Use(middleware.JWT(tokenSvc))

	admin := string(models.RoleAdmin)
	dean := string(models.RoleDean)
	teacher := string(models.RoleTeacher)
	student := string(models.RoleStudent)

	sections := api.Group("/sections")
	{
		sections.GET("/:id", middleware.RBAC(admin, dean, teacher), sectionHandler.Get)
		sections.PUT("/:id/courses/:courseId", middleware.RBAC(admin, dean),
			middleware.Audit(userRepo, models.AuditActionAttachCourse, "section_courses"), sectionHandler.AttachCourse)
		sections.DELETE("/:id/courses/:courseId", middleware.RBAC(admin, dean),
			middleware.Audit(userRepo, models.AuditActionDetachCourse, "section_courses"), sectionHandler.DetachCourse)

		sections.GET("/:id/assignments", middleware.RBAC(admin, dean, teacher), assignmentHandler.ListForSection)
		sections.POST("/:id/assignments", middleware.RBAC(admin, dean),
			middleware.Audit(userRepo, models.AuditActionAssignTeacher, "section_course_teachers"), assignmentHandler.Assign)
		sections.DELETE("/:id/assignments", middleware.RBAC(admin, dean),
			middleware.Audit(userRepo, models.AuditActionRemoveTeacher, "section_course_teachers"), assignmentHandler.Remove)

		sections.GET("/:id/students", middleware.RBAC(admin, dean, teacher), sectionHandler.Roster)
		sections.GET("/:id/students/export", middleware.RBAC(admin, dean, teacher), sectionHandler.ExportRoster)
		sections.POST("/:id/students", middleware.RBAC(admin, dean),
			middleware.Audit(userRepo, models.AuditActionAssignStudent, "section_students"), sectionHandler.AssignStudents)
		sections.PUT("/:id/students/:studentId", middleware.RBAC(admin, dean),
			middleware.Audit(userRepo, models.AuditActionAssignStudent, "section_students"), sectionHandler.AssignStudent)
		sections.DELETE("/:id/students/:studentId", middleware.RBAC(admin, dean),
			middleware.Audit(userRepo, models.AuditActionRemoveStudent, "section_students"), sectionHandler.RemoveStudent)
	}

	teachers := api.Group("/teachers")
	{
		teachers.GET("/:id/assignments", middleware.RBAC(admin, dean, "SELF"), assignmentHandler.ListForTeacher)
	}

	students := api.Group("/students")
	{
		students.GET("/:id/section", middleware.RBAC(admin, dean, teacher, "SELF"), sectionHandler.CurrentSection)
		students.GET("/:id/locks", middleware.RBAC(admin, dean, teacher, "SELF"), lockHandler.ListForStudent)
	}

	access := api.Group("/access")
	{
		access.GET("/courses", middleware.RBAC(admin, dean, teacher, student), accessHandler.AccessibleCourses)
		access.GET("/courses/:courseId", middleware.RBAC(admin, dean, teacher, student), accessHandler.CanAccessCourse)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", middleware.RBAC(admin, dean, teacher, student), courseHandler.Catalog)
		courses.GET("/:id", middleware.RBAC(admin, dean, teacher, student), courseHandler.Get)
	}

	locks := api.Group("/locks")
	{
		locks.POST("", middleware.RBAC(admin, teacher), lockHandler.Create)
		locks.GET("/:id", middleware.RBAC(admin, dean, teacher), lockHandler.Get)
		locks.POST("/:id/teacher-unlock", middleware.RBAC(teacher),
			middleware.Audit(userRepo, models.AuditActionTeacherUnlock, "content_locks"), lockHandler.TeacherUnlock)
		locks.POST("/:id/dean-unlock", middleware.RBAC(dean, admin),
			middleware.Audit(userRepo, models.AuditActionDeanUnlock, "content_locks"), lockHandler.DeanUnlock)
	}

	api.GET("/metrics/snapshot", middleware.RBAC(admin), metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	if err := cacheRepo.Close(); err != nil {
		logr.Sugar().Warnw("failed to close redis", "error", err)
	}
}
