package services

import (
	"context"
	"testing"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
	"github.com/macrofit/macrofit-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func metricInput(weight, heightCm float64, age int, sex, activity, goal string) types.MacroCalculationInput {
	return types.MacroCalculationInput{
		Weight:        weight,
		Height:        types.HeightInput{Cm: heightCm},
		Age:           age,
		Sex:           sex,
		ActivityLevel: activity,
		Goal:          goal,
		Units:         types.UnitsMetric,
	}
}

func TestCalculateTargets(t *testing.T) {
	mc := NewMacroCalculator(testLogger(t))
	ctx := context.Background()

	cases := []struct {
		name  string
		input types.MacroCalculationInput
		want  types.MacroResult
	}{
		{
			name:  "male moderate maintenance",
			input: metricInput(70, 175, 30, types.SexMale, types.ActivityModerate, types.GoalMaintain),
			want:  types.MacroResult{Calories: 2560, ProteinG: 192, CarbsG: 256, FatG: 85},
		},
		{
			name: "imperial input converts before the formula",
			input: types.MacroCalculationInput{
				Weight:        154.32,
				Height:        types.HeightInput{Feet: 5, Inches: 8.9},
				Age:           30,
				Sex:           types.SexMale,
				ActivityLevel: types.ActivityModerate,
				Goal:          types.GoalMaintain,
				Units:         types.UnitsImperial,
			},
			// 154.32lb -> 70.0kg, 5'8.9" -> 175cm: same targets as metric.
			want: types.MacroResult{Calories: 2560, ProteinG: 192, CarbsG: 256, FatG: 85},
		},
		{
			name:  "weight loss uses the high protein split",
			input: metricInput(70, 175, 30, types.SexMale, types.ActivityModerate, types.GoalWeightLoss),
			// 2555.5625 * 0.8 = 2044.45 -> 2040
			want: types.MacroResult{Calories: 2040, ProteinG: 204, CarbsG: 153, FatG: 68},
		},
		{
			name:  "muscle gain uses the carb heavy split",
			input: metricInput(70, 175, 30, types.SexMale, types.ActivityModerate, types.GoalMuscleGain),
			// 2555.5625 * 1.1 = 2811.12 -> 2810
			want: types.MacroResult{Calories: 2810, ProteinG: 211, CarbsG: 316, FatG: 78},
		},
		{
			name:  "small female sedentary loss clamps to the floor",
			input: metricInput(40, 145, 80, types.SexFemale, types.ActivitySedentary, types.GoalWeightLoss),
			// BMR = 400 + 906.25 - 400 - 161 = 745.25; *1.2*0.8 = 715.44 -> 720 -> floor 1200
			want: types.MacroResult{Calories: 1200, ProteinG: 120, CarbsG: 90, FatG: 40},
		},
		{
			name:  "non-binary floor is 1000",
			input: metricInput(40, 145, 80, types.SexOther, types.ActivitySedentary, types.GoalWeightLoss),
			want:  types.MacroResult{Calories: 1000, ProteinG: 100, CarbsG: 75, FatG: 33},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := mc.Calculate(ctx, tc.input)
			if err != nil {
				t.Fatalf("Calculate: %v", err)
			}
			if *got != tc.want {
				t.Fatalf("Calculate = %+v, want %+v", *got, tc.want)
			}
		})
	}
}

func TestCalculateMacroCaloriesConsistent(t *testing.T) {
	mc := NewMacroCalculator(testLogger(t))
	ctx := context.Background()

	goals := []string{types.GoalWeightLoss, types.GoalMaintain, types.GoalMuscleGain}
	activities := []string{
		types.ActivitySedentary, types.ActivityLight, types.ActivityModerate,
		types.ActivityActive, types.ActivityVeryActive,
	}

	for _, goal := range goals {
		for _, activity := range activities {
			for weight := 50.0; weight <= 120; weight += 17.5 {
				got, err := mc.Calculate(ctx, metricInput(weight, 170, 35, types.SexFemale, activity, goal))
				if err != nil {
					t.Fatalf("Calculate(%v, %s, %s): %v", weight, activity, goal, err)
				}
				fromMacros := got.ProteinG*4 + got.CarbsG*4 + got.FatG*9
				diff := got.Calories - fromMacros
				if diff < 0 {
					diff = -diff
				}
				// Rounding each macro to the nearest gram can drift the
				// reconstructed total by a few kcal at most.
				if diff > 15 {
					t.Fatalf("macros diverge from calories: %d vs %d (diff %d) for %v/%s/%s",
						fromMacros, got.Calories, diff, weight, activity, goal)
				}
			}
		}
	}
}

func TestCalculateAcceptsBoundaryAges(t *testing.T) {
	mc := NewMacroCalculator(testLogger(t))
	ctx := context.Background()

	for _, age := range []int{13, 120} {
		result, err := mc.Calculate(ctx, metricInput(70, 175, age, types.SexMale, types.ActivityModerate, types.GoalMaintain))
		if err != nil {
			t.Fatalf("age %d: %v", age, err)
		}
		if result.Calories <= 0 {
			t.Fatalf("age %d: calories = %d", age, result.Calories)
		}
	}
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	mc := NewMacroCalculator(testLogger(t))
	ctx := context.Background()

	cases := []struct {
		name  string
		input types.MacroCalculationInput
	}{
		{"zero weight", metricInput(0, 175, 30, types.SexMale, types.ActivityModerate, types.GoalMaintain)},
		{"negative weight", metricInput(-70, 175, 30, types.SexMale, types.ActivityModerate, types.GoalMaintain)},
		{"zero height", metricInput(70, 0, 30, types.SexMale, types.ActivityModerate, types.GoalMaintain)},
		{"zero age", metricInput(70, 175, 0, types.SexMale, types.ActivityModerate, types.GoalMaintain)},
		{"age below minimum", metricInput(70, 175, 12, types.SexMale, types.ActivityModerate, types.GoalMaintain)},
		{"age above maximum", metricInput(70, 175, 121, types.SexMale, types.ActivityModerate, types.GoalMaintain)},
		{"unknown sex", metricInput(70, 175, 30, "robot", types.ActivityModerate, types.GoalMaintain)},
		{"unknown activity", metricInput(70, 175, 30, types.SexMale, "heroic", types.GoalMaintain)},
		{"unknown goal", metricInput(70, 175, 30, types.SexMale, types.ActivityModerate, "bulk")},
		{
			"unknown units",
			types.MacroCalculationInput{
				Weight: 70, Height: types.HeightInput{Cm: 175}, Age: 30,
				Sex: types.SexMale, ActivityLevel: types.ActivityModerate,
				Goal: types.GoalMaintain, Units: "stone",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mc.Calculate(ctx, tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !apierr.Is(err, apierr.KindValidation) {
				t.Fatalf("error kind = %v, want validation", err)
			}
		})
	}
}
