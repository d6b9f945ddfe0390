package app

import (
	"github.com/gin-gonic/gin"

	"github.com/macrofit/macrofit-backend/internal/handlers"
	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/middleware"
	"github.com/macrofit/macrofit-backend/internal/server"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Nutrition *handlers.NutritionHandler
	Workout   *handlers.WorkoutHandler
}

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:      handlers.NewAuthHandler(s.Auth),
		User:      handlers.NewUserHandler(s.User),
		Nutrition: handlers.NewNutritionHandler(s.Nutrition),
		Workout:   handlers.NewWorkoutHandler(s.Workout),
	}
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, s.Auth),
	}
}

func wireRouter(h Handlers, mw Middleware, s Services) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthHandler:      h.Auth,
		UserHandler:      h.User,
		NutritionHandler: h.Nutrition,
		WorkoutHandler:   h.Workout,
		AuthMiddleware:   mw.Auth,
		RateLimiter:      s.RateLimiter,
	})
}
