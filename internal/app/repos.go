package app

import (
	"gorm.io/gorm"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/repos"
)

type Repos struct {
	User              repos.UserRepo
	UserToken         repos.UserTokenRepo
	UserProfile       repos.UserProfileRepo
	DietaryPreference repos.DietaryPreferenceRepo
	NutritionPlan     repos.NutritionPlanRepo
	WorkoutLog        repos.WorkoutLogRepo
	AICallLog         repos.AICallLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:              repos.NewUserRepo(db, log),
		UserToken:         repos.NewUserTokenRepo(db, log),
		UserProfile:       repos.NewUserProfileRepo(db, log),
		DietaryPreference: repos.NewDietaryPreferenceRepo(db, log),
		NutritionPlan:     repos.NewNutritionPlanRepo(db, log),
		WorkoutLog:        repos.NewWorkoutLogRepo(db, log),
		AICallLog:         repos.NewAICallLogRepo(db, log),
	}
}
