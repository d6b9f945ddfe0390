package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/platform/completion"
	"github.com/macrofit/macrofit-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	User        services.UserService
	Macro       services.MacroCalculator
	Nutrition   services.NutritionService
	Workout     services.WorkoutService
	RateLimiter *services.RateLimiter
	Completion  completion.Client
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	log.Info("Wiring services...")

	client, err := completion.NewClient(log)
	if err != nil {
		return Services{}, fmt.Errorf("init completion client: %w", err)
	}

	limiter, err := services.NewRateLimiterFromEnv(log)
	if err != nil {
		return Services{}, fmt.Errorf("init rate limiter: %w", err)
	}

	macros := services.NewMacroCalculator(log)
	generator := services.NewPlanGenerator(log, macros, client, r.UserProfile, r.DietaryPreference)
	parser := services.NewFeedbackParser(log, client)
	adjuster := services.NewPlanAdjuster(log)

	return Services{
		Auth:        services.NewAuthService(db, log, r.User, r.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		User:        services.NewUserService(log, r.UserProfile, r.DietaryPreference),
		Macro:       macros,
		Nutrition:   services.NewNutritionService(log, macros, generator, parser, adjuster, client, r.NutritionPlan, r.AICallLog),
		Workout:     services.NewWorkoutService(log, r.WorkoutLog),
		RateLimiter: limiter,
		Completion:  client,
	}, nil
}
