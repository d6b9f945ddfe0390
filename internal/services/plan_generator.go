package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
	"github.com/macrofit/macrofit-backend/internal/platform/completion"
	"github.com/macrofit/macrofit-backend/internal/repos"
	"github.com/macrofit/macrofit-backend/internal/types"
)

// PlanGenerator builds the first version of a user's nutrition plan:
// macro targets from the stored profile, meal breakdown from the completion
// service, validated and packaged. The caller persists the result.
type PlanGenerator interface {
	Generate(ctx context.Context, userID uuid.UUID) (*types.NutritionPlan, error)
}

type planGenerator struct {
	log      *logger.Logger
	macros   MacroCalculator
	client   completion.Client
	profiles repos.UserProfileRepo
	prefs    repos.DietaryPreferenceRepo
}

func NewPlanGenerator(
	log *logger.Logger,
	macros MacroCalculator,
	client completion.Client,
	profiles repos.UserProfileRepo,
	prefs repos.DietaryPreferenceRepo,
) PlanGenerator {
	return &planGenerator{
		log:      log.With("service", "PlanGenerator"),
		macros:   macros,
		client:   client,
		profiles: profiles,
		prefs:    prefs,
	}
}

var mealPlanSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"meals": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"name":        map[string]any{"type": "string"},
					"category":    map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"calories":    map[string]any{"type": "integer"},
					"protein_g":   map[string]any{"type": "integer"},
					"carbs_g":     map[string]any{"type": "integer"},
					"fat_g":       map[string]any{"type": "integer"},
				},
				"required": []string{"name", "category", "description", "calories", "protein_g", "carbs_g", "fat_g"},
			},
		},
	},
	"required": []string{"meals"},
}

func (pg *planGenerator) Generate(ctx context.Context, userID uuid.UUID) (*types.NutritionPlan, error) {
	var profile *types.UserProfile
	var pref *types.DietaryPreference

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := pg.profiles.GetByUserID(gctx, nil, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierr.Validationf(apierr.CodeInvalidInput, "no profile on record; submit measurements first")
			}
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		p, err := pg.prefs.GetByUserID(gctx, nil, userID)
		if err != nil {
			// Preferences are optional; fall back to defaults.
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		pref = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	target, err := pg.macros.Calculate(ctx, types.MacroCalculationInput{
		Weight:        profile.WeightKg,
		Height:        types.HeightInput{Cm: profile.HeightCm},
		Age:           profile.Age,
		Sex:           profile.Sex,
		ActivityLevel: profile.ActivityLevel,
		Goal:          profile.Goal,
		Units:         types.UnitsMetric,
	})
	if err != nil {
		return nil, err
	}

	mealsPerDay := 3
	restrictions := "none"
	cuisines := "any"
	if pref != nil {
		if pref.MealsPerDay > 0 {
			mealsPerDay = pref.MealsPerDay
		}
		if s := jsonList(pref.Restrictions); s != "" {
			restrictions = s
		}
		if s := jsonList(pref.PreferredCuisines); s != "" {
			cuisines = s
		}
	}

	prompt := promptFor(pg.log, "plan_generation")
	userPrompt := renderPrompt(prompt.User, map[string]string{
		"meals_per_day": strconv.Itoa(mealsPerDay),
		"calories":      strconv.Itoa(target.Calories),
		"protein_g":     strconv.Itoa(target.ProteinG),
		"carbs_g":       strconv.Itoa(target.CarbsG),
		"fat_g":         strconv.Itoa(target.FatG),
		"restrictions":  restrictions,
		"cuisines":      cuisines,
	})

	obj, err := pg.client.GenerateJSON(ctx, prompt.System, userPrompt, "meal_plan", mealPlanSchema)
	if err != nil {
		return nil, err
	}

	meals, err := mealsFromCompletion(obj)
	if err != nil {
		return nil, err
	}

	mealsJSON, err := json.Marshal(meals)
	if err != nil {
		return nil, apierr.Processing(apierr.CodeGenerationInvalid, err)
	}

	plan := &types.NutritionPlan{
		ID:       uuid.New(),
		UserID:   userID,
		Version:  1,
		Calories: target.Calories,
		ProteinG: target.ProteinG,
		CarbsG:   target.CarbsG,
		FatG:     target.FatG,
		Meals:    datatypes.JSON(mealsJSON),
		Notes:    datatypes.JSON([]byte("[]")),
	}

	pg.log.Info("plan generated",
		"user_id", userID.String(),
		"calories", target.Calories,
		"meals", len(meals),
	)
	return plan, nil
}

// mealsFromCompletion validates the model's meal list: it must be non-empty
// and every entry needs a name plus at least one macro number.
func mealsFromCompletion(obj map[string]any) ([]types.MealEntry, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, apierr.Processing(apierr.CodeGenerationInvalid, err)
	}
	var parsed struct {
		Meals []types.MealEntry `json:"meals"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, apierr.Processing(apierr.CodeGenerationInvalid,
			fmt.Errorf("meal plan shape mismatch: %w", err))
	}
	if len(parsed.Meals) == 0 {
		return nil, apierr.Processing(apierr.CodeGenerationInvalid, errors.New("generated plan has no meals"))
	}
	for i, m := range parsed.Meals {
		if strings.TrimSpace(m.Name) == "" {
			return nil, apierr.Processing(apierr.CodeGenerationInvalid,
				fmt.Errorf("meal %d has no name", i))
		}
		if m.Calories <= 0 && m.ProteinG <= 0 && m.CarbsG <= 0 && m.FatG <= 0 {
			return nil, apierr.Processing(apierr.CodeGenerationInvalid,
				fmt.Errorf("meal %q has no calorie or macro data", m.Name))
		}
	}
	return parsed.Meals, nil
}

// jsonList renders a JSONB string array as "a, b, c" for prompt text.
func jsonList(raw datatypes.JSON) string {
	if len(raw) == 0 {
		return ""
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}
	return strings.Join(items, ", ")
}
