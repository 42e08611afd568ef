package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"pharmatrack/internal/caching"
	"pharmatrack/internal/handlers"
	"pharmatrack/internal/jobs"
	"pharmatrack/internal/middleware"
	"pharmatrack/internal/repositories"
	"pharmatrack/internal/scope"
	"pharmatrack/internal/services"
	"pharmatrack/pkg/database"
)

const version = "1.0.0"

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	tokenTTL := envIntOr("TOKEN_TTL_SECONDS", 900)
	refreshTTL := envIntOr("REFRESH_TTL_SECONDS", 7*24*3600)

	redisAddr := envOr("REDIS_ADDR", "localhost:6379")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := envIntOr("REDIS_DB", 0)

	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Without an SMTP host all outbound mail goes to the log.
	var notifier services.Notifier
	if smtpHost := os.Getenv("SMTP_HOST"); smtpHost != "" {
		notifier = services.NewSMTPNotifier(
			fmt.Sprintf("%s:%s", smtpHost, envOr("SMTP_PORT", "587")),
			envOr("SMTP_FROM", "noreply@pharmatrack.local"),
			os.Getenv("SMTP_USERNAME"),
			os.Getenv("SMTP_PASSWORD"),
			smtpHost,
		)
	} else {
		log.Print("SMTP_HOST not set, emails will be logged instead of sent")
		notifier = services.NewLogNotifier()
	}

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	orgRepo := repositories.NewOrganizationRepo(pool)
	staffRepo := repositories.NewStaffRepo(pool)
	categoryRepo := repositories.NewCategoryRepo(pool)
	leadRepo := repositories.NewLeadRepo(pool)
	patientRepo := repositories.NewPatientRepo(pool)
	patientDetailRepo := repositories.NewPatientDetailRepo(pool)
	historyRepo := repositories.NewMedicationHistoryRepo(pool)
	changeRepo := repositories.NewMedicationChangeRepo(pool)
	monitorRepo := repositories.NewMonitoringPlanRepo(pool)
	analysisRepo := repositories.NewClinicalAnalysisRepo(pool)
	followUpRepo := repositories.NewFollowUpPlanRepo(pool)
	planRepo := repositories.NewCarePlanRepo(pool)
	attendanceRepo := repositories.NewAttendanceRepo(pool)

	// Services
	authSvc := services.NewAuthService(cacheSvc, jwtSecret, tokenTTL, refreshTTL)
	accountSvc := services.NewAccountService(pool, userRepo, orgRepo)
	staffSvc := services.NewStaffService(pool, staffRepo, cacheSvc, notifier)
	patientSvc := services.NewPatientService(leadRepo, patientRepo)

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, accountSvc, userRepo, orgRepo)
	staffHandlers := handlers.NewStaffHandlers(staffSvc, orgRepo)
	categoryHandlers := handlers.NewCategoryHandlers(categoryRepo)
	leadHandlers := handlers.NewLeadHandlers(leadRepo, staffRepo)
	patientHandlers := handlers.NewPatientHandlers(patientSvc, patientRepo, patientDetailRepo, staffRepo)
	carePlanHandlers := handlers.NewCarePlanHandlers(patientRepo, historyRepo, changeRepo,
		monitorRepo, analysisRepo, followUpRepo, planRepo)
	attendanceHandlers := handlers.NewAttendanceHandlers(attendanceRepo, staffRepo)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Daily follow-up reminder job
	reminder := jobs.NewFollowUpReminder(orgRepo, followUpRepo, patientRepo, staffRepo, notifier)
	scheduler, err := jobs.NewScheduler(reminder)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Scheduler shutdown error: %v", err)
		}
	}()

	e := echo.New()
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)

	v1 := e.Group("/v1")
	v1.POST("/auth/signup", authHandlers.Signup)
	v1.POST("/auth/login", authHandlers.Login)
	v1.POST("/auth/refresh", authHandlers.Refresh)

	resolver := middleware.NewIdentityResolver(userRepo, staffRepo, orgRepo, cacheSvc)
	protected := v1.Group("", middleware.JWT(jwtSecret), middleware.ResolveIdentity(resolver))

	protected.GET("/me", authHandlers.Me)
	protected.POST("/auth/logout", authHandlers.Logout)

	staff := protected.Group("/staff", middleware.RequireOrganizer())
	staff.GET("", staffHandlers.List)
	staff.POST("", staffHandlers.Create)
	staff.GET("/:slug", staffHandlers.Get)
	staff.PUT("/:slug", staffHandlers.Update)
	staff.DELETE("/:slug", staffHandlers.Delete)

	categories := protected.Group("/categories", middleware.RequireOrganizer())
	categories.GET("", categoryHandlers.List)
	categories.POST("", categoryHandlers.Create)
	categories.GET("/:slug", categoryHandlers.Get)
	categories.PUT("/:slug", categoryHandlers.Update)
	categories.DELETE("/:slug", categoryHandlers.Delete)

	leads := protected.Group("/leads", middleware.RequireOrganizerOr(scope.RoleAgent))
	leads.GET("", leadHandlers.List)
	leads.POST("", leadHandlers.Create)
	leads.GET("/:slug", leadHandlers.Get)
	leads.PUT("/:slug", leadHandlers.Update)
	leads.DELETE("/:slug", leadHandlers.Delete)

	clinical := protected.Group("", middleware.RequireOrganizerOr(scope.RolePharmacist))

	clinical.GET("/patients", patientHandlers.List)
	clinical.POST("/patients", patientHandlers.Create)
	clinical.POST("/patients/convert/:slug", patientHandlers.Convert)
	clinical.GET("/patients/:slug", patientHandlers.Get)
	clinical.PUT("/patients/:slug", patientHandlers.Update)
	clinical.DELETE("/patients/:slug", patientHandlers.Delete)
	clinical.GET("/patients/:slug/detail", patientHandlers.GetDetail)
	clinical.PUT("/patients/:slug/detail", patientHandlers.PutDetail)

	clinical.GET("/medication-histories", carePlanHandlers.ListMedicationHistories)
	clinical.POST("/medication-histories", carePlanHandlers.CreateMedicationHistory)
	clinical.GET("/medication-histories/:slug", carePlanHandlers.GetMedicationHistory)
	clinical.PUT("/medication-histories/:slug", carePlanHandlers.UpdateMedicationHistory)
	clinical.DELETE("/medication-histories/:slug", carePlanHandlers.DeleteMedicationHistory)

	clinical.GET("/medication-changes", carePlanHandlers.ListMedicationChanges)
	clinical.POST("/medication-changes", carePlanHandlers.CreateMedicationChange)
	clinical.GET("/medication-changes/:slug", carePlanHandlers.GetMedicationChange)
	clinical.PUT("/medication-changes/:slug", carePlanHandlers.UpdateMedicationChange)
	clinical.DELETE("/medication-changes/:slug", carePlanHandlers.DeleteMedicationChange)

	clinical.GET("/monitoring-plans", carePlanHandlers.ListMonitoringPlans)
	clinical.POST("/monitoring-plans", carePlanHandlers.CreateMonitoringPlan)
	clinical.GET("/monitoring-plans/:slug", carePlanHandlers.GetMonitoringPlan)
	clinical.PUT("/monitoring-plans/:slug", carePlanHandlers.UpdateMonitoringPlan)
	clinical.DELETE("/monitoring-plans/:slug", carePlanHandlers.DeleteMonitoringPlan)

	clinical.GET("/clinical-analyses", carePlanHandlers.ListClinicalAnalyses)
	clinical.POST("/clinical-analyses", carePlanHandlers.CreateClinicalAnalysis)
	clinical.GET("/clinical-analyses/:slug", carePlanHandlers.GetClinicalAnalysis)
	clinical.PUT("/clinical-analyses/:slug", carePlanHandlers.UpdateClinicalAnalysis)
	clinical.DELETE("/clinical-analyses/:slug", carePlanHandlers.DeleteClinicalAnalysis)

	clinical.GET("/follow-up-plans", carePlanHandlers.ListFollowUpPlans)
	clinical.POST("/follow-up-plans", carePlanHandlers.CreateFollowUpPlan)
	clinical.GET("/follow-up-plans/:slug", carePlanHandlers.GetFollowUpPlan)
	clinical.PUT("/follow-up-plans/:slug", carePlanHandlers.UpdateFollowUpPlan)
	clinical.DELETE("/follow-up-plans/:slug", carePlanHandlers.DeleteFollowUpPlan)

	clinical.GET("/care-plans", carePlanHandlers.ListCarePlans)
	clinical.POST("/care-plans", carePlanHandlers.CreateCarePlan)
	clinical.GET("/care-plans/:slug", carePlanHandlers.GetCarePlan)
	clinical.PUT("/care-plans/:slug", carePlanHandlers.UpdateCarePlan)
	clinical.DELETE("/care-plans/:slug", carePlanHandlers.DeleteCarePlan)

	attendance := protected.Group("/attendance", middleware.RequireOrganizerOr(scope.RoleManagement))
	attendance.GET("", attendanceHandlers.List)
	attendance.POST("", attendanceHandlers.Create)
	attendance.GET("/:slug", attendanceHandlers.Get)
	attendance.PUT("/:slug", attendanceHandlers.Update)
	attendance.DELETE("/:slug", attendanceHandlers.Delete)

	port := envIntOr("PORT", 8080)
	log.Printf("pharmatrack v%s listening on port %d", version, port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
