package services

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
	"github.com/macrofit/macrofit-backend/internal/types"
)

func planWithMeals(t *testing.T, version int, names ...string) *types.NutritionPlan {
	t.Helper()
	meals := make([]types.MealEntry, 0, len(names))
	for _, n := range names {
		meals = append(meals, types.MealEntry{
			Name: n, Category: "lunch", Calories: 600, ProteinG: 40, CarbsG: 50, FatG: 20,
		})
	}
	raw, err := json.Marshal(meals)
	if err != nil {
		t.Fatalf("marshal meals: %v", err)
	}
	return &types.NutritionPlan{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Version:  version,
		Calories: 2400,
		ProteinG: 180,
		CarbsG:   240,
		FatG:     80,
		Meals:    datatypes.JSON(raw),
		Notes:    datatypes.JSON([]byte("[]")),
	}
}

func mealsOf(t *testing.T, plan *types.NutritionPlan) []types.MealEntry {
	t.Helper()
	var meals []types.MealEntry
	if err := json.Unmarshal(plan.Meals, &meals); err != nil {
		t.Fatalf("unmarshal meals: %v", err)
	}
	return meals
}

func emptyAdjustment() *types.FeedbackAdjustment {
	adj := &types.FeedbackAdjustment{}
	adj.Normalize()
	return adj
}

func TestAdjustAppliesSubstitution(t *testing.T) {
	pa := NewPlanAdjuster(testLogger(t))
	plan := planWithMeals(t, 1, "Grilled Chicken Salad", "Oat Bowl")

	adj := emptyAdjustment()
	adj.Substitutions = []types.Substitution{{From: "chicken salad", To: "Tofu Salad", Reason: "vegetarian"}}

	next, skipped, err := pa.Adjust(plan, adj)
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if next.Version != 2 {
		t.Fatalf("version = %d, want 2", next.Version)
	}
	if len(skipped) != 0 {
		t.Fatalf("skipped = %v, want none", skipped)
	}
	meals := mealsOf(t, next)
	if meals[0].Name != "Tofu Salad" {
		t.Fatalf("meals[0].Name = %q, want Tofu Salad", meals[0].Name)
	}
	if meals[1].Name != "Oat Bowl" {
		t.Fatalf("meals[1].Name = %q, untouched entry changed", meals[1].Name)
	}

	// The input plan must not be mutated; prior versions are the audit trail.
	orig := mealsOf(t, plan)
	if orig[0].Name != "Grilled Chicken Salad" {
		t.Fatalf("source plan mutated: %q", orig[0].Name)
	}
}

func TestAdjustPainConcernBeatsSubstitution(t *testing.T) {
	pa := NewPlanAdjuster(testLogger(t))
	plan := planWithMeals(t, 3, "Squat Fuel Shake")

	adj := emptyAdjustment()
	adj.Substitutions = []types.Substitution{{From: "squat fuel", To: "Deadlift Shake", Reason: "variety"}}
	adj.PainConcerns = []types.PainConcern{{
		Area: "knee", Exercise: "squat fuel shake", Severity: "high", Recommendation: "skip entirely",
	}}

	next, skipped, err := pa.Adjust(plan, adj)
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	meals := mealsOf(t, next)
	if meals[0].Name != "Squat Fuel Shake" {
		t.Fatalf("substitution applied despite pain concern: %q", meals[0].Name)
	}
	if meals[0].Note == "" {
		t.Fatal("expected pain concern note on entry")
	}
	if len(skipped) != 1 {
		t.Fatalf("skipped = %v, want the losing substitution", skipped)
	}
}

func TestAdjustUnmatchedTargetsAreSkipped(t *testing.T) {
	pa := NewPlanAdjuster(testLogger(t))
	plan := planWithMeals(t, 1, "Oat Bowl")

	adj := emptyAdjustment()
	adj.Substitutions = []types.Substitution{{From: "pizza", To: "salad", Reason: "health"}}
	adj.PainConcerns = []types.PainConcern{{Area: "back", Exercise: "bench press", Severity: "low", Recommendation: "lighter weight"}}

	next, skipped, err := pa.Adjust(plan, adj)
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if len(skipped) != 2 {
		t.Fatalf("skipped = %v, want 2 entries", skipped)
	}
	meals := mealsOf(t, next)
	if meals[0].Name != "Oat Bowl" || meals[0].Note != "" {
		t.Fatalf("unmatched targets modified the plan: %+v", meals[0])
	}
}

func TestAdjustLooseListsBecomeNotes(t *testing.T) {
	pa := NewPlanAdjuster(testLogger(t))
	plan := planWithMeals(t, 1, "Oat Bowl")

	adj := emptyAdjustment()
	adj.VolumeAdjustments = []string{"reduce portions by 10%"}
	adj.ScheduleChanges = []string{"move dinner earlier"}
	adj.GeneralFeedback = "feeling sluggish after lunch"

	next, _, err := pa.Adjust(plan, adj)
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	var notes []string
	if err := json.Unmarshal(next.Notes, &notes); err != nil {
		t.Fatalf("unmarshal notes: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("notes = %v, want 3", notes)
	}
}

func TestAdjustValidatesInputs(t *testing.T) {
	pa := NewPlanAdjuster(testLogger(t))

	if _, _, err := pa.Adjust(nil, emptyAdjustment()); !apierr.Is(err, apierr.KindValidation) {
		t.Fatalf("nil plan: kind = %v, want validation", err)
	}
	if _, _, err := pa.Adjust(planWithMeals(t, 1, "Oat Bowl"), nil); !apierr.Is(err, apierr.KindValidation) {
		t.Fatalf("nil adjustment: kind = %v, want validation", err)
	}
}
