package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/pkg/units"
	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
	"github.com/macrofit/macrofit-backend/internal/repos"
	"github.com/macrofit/macrofit-backend/internal/types"
)

// UserService manages profile and dietary preference data. Measurements are
// converted to metric exactly once, here at the write boundary.
type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input types.ProfileInput) (*types.UserProfile, error)
	GetPreferences(ctx context.Context, userID uuid.UUID) (*types.DietaryPreference, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, restrictions, cuisines []string, mealsPerDay int) (*types.DietaryPreference, error)
}

type userService struct {
	log      *logger.Logger
	profiles repos.UserProfileRepo
	prefs    repos.DietaryPreferenceRepo
}

func NewUserService(log *logger.Logger, profiles repos.UserProfileRepo, prefs repos.DietaryPreferenceRepo) UserService {
	return &userService{
		log:      log.With("service", "UserService"),
		profiles: profiles,
		prefs:    prefs,
	}
}

func (us *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	return us.profiles.GetByUserID(ctx, nil, userID)
}

func (us *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, input types.ProfileInput) (*types.UserProfile, error) {
	weightKg := input.Weight
	heightCm := input.Height.Cm

	switch input.Units {
	case types.UnitsMetric, "":
	case types.UnitsImperial:
		var err error
		weightKg, err = units.ToMetricWeight(input.Weight)
		if err != nil {
			return nil, err
		}
		heightCm, err = units.ToMetricHeight(input.Height.Feet, input.Height.Inches)
		if err != nil {
			return nil, err
		}
	default:
		return nil, apierr.Validationf(apierr.CodeInvalidInput, "unknown unit system %q", input.Units)
	}

	if weightKg <= 0 {
		return nil, apierr.Validationf(apierr.CodeInvalidMeasurement, "weight must be positive, got %v", weightKg)
	}
	if heightCm <= 0 {
		return nil, apierr.Validationf(apierr.CodeInvalidMeasurement, "height must be positive, got %v", heightCm)
	}
	if input.Age < 13 || input.Age > 120 {
		return nil, apierr.Validationf(apierr.CodeInvalidInput, "age must be between 13 and 120, got %d", input.Age)
	}
	switch input.Sex {
	case types.SexMale, types.SexFemale, types.SexOther:
	default:
		return nil, apierr.Validationf(apierr.CodeInvalidInput, "unknown sex %q", input.Sex)
	}
	if _, ok := activityMultipliers[input.ActivityLevel]; !ok {
		return nil, apierr.Validationf(apierr.CodeInvalidInput, "unknown activity level %q", input.ActivityLevel)
	}
	if _, ok := goalSplits[input.Goal]; !ok {
		return nil, apierr.Validationf(apierr.CodeInvalidInput, "unknown goal %q", input.Goal)
	}

	profile := &types.UserProfile{
		ID:            uuid.New(),
		UserID:        userID,
		WeightKg:      weightKg,
		HeightCm:      heightCm,
		Age:           input.Age,
		Sex:           input.Sex,
		ActivityLevel: input.ActivityLevel,
		Goal:          input.Goal,
	}
	return us.profiles.Upsert(ctx, nil, profile)
}

func (us *userService) GetPreferences(ctx context.Context, userID uuid.UUID) (*types.DietaryPreference, error) {
	return us.prefs.GetByUserID(ctx, nil, userID)
}

func (us *userService) UpdatePreferences(ctx context.Context, userID uuid.UUID, restrictions, cuisines []string, mealsPerDay int) (*types.DietaryPreference, error) {
	if mealsPerDay < 1 || mealsPerDay > 10 {
		return nil, apierr.Validationf(apierr.CodeInvalidInput, "mealsPerDay must be between 1 and 10, got %d", mealsPerDay)
	}
	if restrictions == nil {
		restrictions = []string{}
	}
	if cuisines == nil {
		cuisines = []string{}
	}

	restrictionsJSON, err := json.Marshal(restrictions)
	if err != nil {
		return nil, err
	}
	cuisinesJSON, err := json.Marshal(cuisines)
	if err != nil {
		return nil, err
	}

	pref := &types.DietaryPreference{
		ID:                uuid.New(),
		UserID:            userID,
		Restrictions:      datatypes.JSON(restrictionsJSON),
		PreferredCuisines: datatypes.JSON(cuisinesJSON),
		MealsPerDay:       mealsPerDay,
	}
	return us.prefs.Upsert(ctx, nil, pref)
}
