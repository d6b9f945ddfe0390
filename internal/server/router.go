package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/macrofit/macrofit-backend/internal/handlers"
	"github.com/macrofit/macrofit-backend/internal/middleware"
	"github.com/macrofit/macrofit-backend/internal/services"
)

type RouterConfig struct {
	AuthHandler      *handlers.AuthHandler
	UserHandler      *handlers.UserHandler
	NutritionHandler *handlers.NutritionHandler
	WorkoutHandler   *handlers.WorkoutHandler
	AuthMiddleware   *middleware.AuthMiddleware
	RateLimiter      *services.RateLimiter
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware("macrofit-backend"))
	router.Use(middleware.Metrics())

	limited := middleware.RateLimit(cfg.RateLimiter)

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/metrics", handlers.Metrics)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user/profile", cfg.UserHandler.GetProfile)
	protected.PUT("/user/profile", cfg.UserHandler.UpdateProfile)
	protected.GET("/user/dietary-preferences", cfg.UserHandler.GetPreferences)
	protected.PUT("/user/dietary-preferences", cfg.UserHandler.UpdatePreferences)
	// Nutrition
	protected.POST("/nutrition/macros", cfg.NutritionHandler.CalculateMacros)
	protected.POST("/nutrition/plan", limited, cfg.NutritionHandler.GeneratePlan)
	protected.GET("/nutrition/plan", cfg.NutritionHandler.GetPlan)
	protected.GET("/nutrition/plan/versions", cfg.NutritionHandler.ListPlanVersions)
	protected.POST("/nutrition/plan/feedback", limited, cfg.NutritionHandler.SubmitFeedback)
	// Workouts
	protected.POST("/workouts", cfg.WorkoutHandler.LogWorkout)
	protected.GET("/workouts", cfg.WorkoutHandler.ListWorkouts)
	protected.DELETE("/workouts/:id", cfg.WorkoutHandler.DeleteWorkout)

	return router
}
