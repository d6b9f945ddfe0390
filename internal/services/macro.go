package services

import (
	"context"
	"math"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/pkg/units"
	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
	"github.com/macrofit/macrofit-backend/internal/types"
)

// MacroCalculator turns a validated anthropometric input into a daily calorie
// and macronutrient target. Pure computation, no I/O.
type MacroCalculator interface {
	Calculate(ctx context.Context, input types.MacroCalculationInput) (*types.MacroResult, error)
}

type macroCalculator struct {
	log *logger.Logger
}

func NewMacroCalculator(log *logger.Logger) MacroCalculator {
	return &macroCalculator{log: log.With("service", "MacroCalculator")}
}

var activityMultipliers = map[string]float64{
	types.ActivitySedentary:  1.2,
	types.ActivityLight:      1.375,
	types.ActivityModerate:   1.55,
	types.ActivityActive:     1.725,
	types.ActivityVeryActive: 1.9,
}

var goalCalorieFactor = map[string]float64{
	types.GoalWeightLoss: 0.8,
	types.GoalMaintain:   1.0,
	types.GoalMuscleGain: 1.1,
}

// macroSplit is the percentage of calories assigned to protein/carbs/fat.
type macroSplit struct {
	protein float64
	carbs   float64
	fat     float64
}

var goalSplits = map[string]macroSplit{
	types.GoalWeightLoss: {protein: 0.40, carbs: 0.30, fat: 0.30},
	types.GoalMaintain:   {protein: 0.30, carbs: 0.40, fat: 0.30},
	types.GoalMuscleGain: {protein: 0.30, carbs: 0.45, fat: 0.25},
}

func (mc *macroCalculator) Calculate(ctx context.Context, input types.MacroCalculationInput) (*types.MacroResult, error) {
	weightKg, heightCm, err := normalizeMeasurements(input)
	if err != nil {
		return nil, err
	}
	if err := validateMacroInput(input); err != nil {
		return nil, err
	}

	// Mifflin-St Jeor. The non-binary offset is the midpoint of the sexed
	// constants, a deliberate modeling approximation.
	var sexOffset float64
	switch input.Sex {
	case types.SexMale:
		sexOffset = 5
	case types.SexFemale:
		sexOffset = -161
	default:
		sexOffset = -78
	}

	bmr := 10*weightKg + 6.25*heightCm - 5*float64(input.Age) + sexOffset
	tdee := bmr * activityMultipliers[input.ActivityLevel]
	calories := tdee * goalCalorieFactor[input.Goal]

	// Nearest 10 kcal, then the safety floor. The floor applies before the
	// macro split so grams always describe the calories actually served.
	rounded := int(math.Round(calories/10) * 10)
	floor := 1200
	if input.Sex == types.SexOther {
		floor = 1000
	}
	if rounded < floor {
		mc.log.Info("calorie target below safety floor, clamping",
			"computed", rounded,
			"floor", floor,
		)
		rounded = floor
	}

	split := goalSplits[input.Goal]
	result := &types.MacroResult{
		Calories: rounded,
		ProteinG: int(math.Round(split.protein * float64(rounded) / 4)),
		CarbsG:   int(math.Round(split.carbs * float64(rounded) / 4)),
		FatG:     int(math.Round(split.fat * float64(rounded) / 9)),
	}
	return result, nil
}

// normalizeMeasurements brings weight and height to metric regardless of the
// declared unit system. Conversion happens exactly once, here.
func normalizeMeasurements(input types.MacroCalculationInput) (float64, float64, error) {
	switch input.Units {
	case types.UnitsMetric, "":
		if !isPositiveFinite(input.Weight) {
			return 0, 0, apierr.Validationf(apierr.CodeInvalidMeasurement, "weight must be a positive number, got %v", input.Weight)
		}
		if !isPositiveFinite(input.Height.Cm) {
			return 0, 0, apierr.Validationf(apierr.CodeInvalidMeasurement, "height must be a positive number, got %v", input.Height.Cm)
		}
		return input.Weight, input.Height.Cm, nil
	case types.UnitsImperial:
		weightKg, err := units.ToMetricWeight(input.Weight)
		if err != nil {
			return 0, 0, err
		}
		heightCm, err := units.ToMetricHeight(input.Height.Feet, input.Height.Inches)
		if err != nil {
			return 0, 0, err
		}
		return weightKg, heightCm, nil
	default:
		return 0, 0, apierr.Validationf(apierr.CodeInvalidInput, "unknown unit system %q", input.Units)
	}
}

func validateMacroInput(input types.MacroCalculationInput) error {
	if input.Age < 13 || input.Age > 120 {
		return apierr.Validationf(apierr.CodeInvalidInput, "age must be between 13 and 120, got %d", input.Age)
	}
	switch input.Sex {
	case types.SexMale, types.SexFemale, types.SexOther:
	default:
		return apierr.Validationf(apierr.CodeInvalidInput, "unknown sex %q", input.Sex)
	}
	if _, ok := activityMultipliers[input.ActivityLevel]; !ok {
		return apierr.Validationf(apierr.CodeInvalidInput, "unknown activity level %q", input.ActivityLevel)
	}
	if _, ok := goalSplits[input.Goal]; !ok {
		return apierr.Validationf(apierr.CodeInvalidInput, "unknown goal %q", input.Goal)
	}
	return nil
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
