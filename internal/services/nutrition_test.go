package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
)

func newNutritionFixture(t *testing.T, fake *fakeCompletion, userID uuid.UUID) (NutritionService, *fakePlanRepo, *fakeAICallLogRepo) {
	t.Helper()
	log := testLogger(t)
	plans := newFakePlanRepo()
	aiLogs := &fakeAICallLogRepo{}
	macros := NewMacroCalculator(log)
	generator := NewPlanGenerator(log, macros, fake,
		&fakeProfileRepo{profile: testProfile(userID)}, &fakePrefRepo{})
	svc := NewNutritionService(log, macros, generator,
		NewFeedbackParser(log, fake), NewPlanAdjuster(log), fake, plans, aiLogs)
	return svc, plans, aiLogs
}

func TestGeneratePlanPersistsAndStacksVersions(t *testing.T) {
	userID := uuid.New()
	fake := &fakeCompletion{jsonResp: map[string]any{
		"meals": []any{mealJSON("Oat bowl", 800)},
	}}
	svc, _, aiLogs := newNutritionFixture(t, fake, userID)
	ctx := context.Background()

	first, err := svc.GeneratePlan(ctx, userID)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if first.Version != 1 {
		t.Fatalf("first version = %d, want 1", first.Version)
	}

	second, err := svc.GeneratePlan(ctx, userID)
	if err != nil {
		t.Fatalf("GeneratePlan again: %v", err)
	}
	if second.Version != 2 {
		t.Fatalf("regenerated version = %d, want 2", second.Version)
	}

	latest, err := svc.GetLatestPlan(ctx, userID)
	if err != nil {
		t.Fatalf("GetLatestPlan: %v", err)
	}
	if latest.Version != 2 {
		t.Fatalf("latest version = %d, want 2", latest.Version)
	}

	versions, err := svc.ListPlanVersions(ctx, userID)
	if err != nil {
		t.Fatalf("ListPlanVersions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("versions = %d, want 2", len(versions))
	}

	if len(aiLogs.entries) != 2 {
		t.Fatalf("ai call log entries = %d, want 2", len(aiLogs.entries))
	}
	if aiLogs.entries[0].CallType != "plan_generation" || !aiLogs.entries[0].Success {
		t.Fatalf("ai call log = %+v", aiLogs.entries[0])
	}
	if aiLogs.entries[0].ModelName != "fake-model" {
		t.Errorf("ai call log model = %q, want fake-model", aiLogs.entries[0].ModelName)
	}
}

func TestAdjustPlanFromFeedback(t *testing.T) {
	userID := uuid.New()
	fake := &fakeCompletion{jsonResp: map[string]any{
		"meals": []any{mealJSON("Oat bowl", 800)},
	}}
	svc, _, aiLogs := newNutritionFixture(t, fake, userID)
	ctx := context.Background()

	if _, err := svc.GeneratePlan(ctx, userID); err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}

	// Reuse the fake for feedback parsing.
	fake.jsonResp = map[string]any{
		"substitutions":   []any{map[string]any{"from": "oat bowl", "to": "Greek yogurt", "reason": "variety"}},
		"generalFeedback": "",
	}

	plan, skipped, err := svc.AdjustPlanFromFeedback(ctx, userID, "swap the oat bowl for greek yogurt", 1)
	if err != nil {
		t.Fatalf("AdjustPlanFromFeedback: %v", err)
	}
	if plan.Version != 2 {
		t.Fatalf("adjusted version = %d, want 2", plan.Version)
	}
	if len(skipped) != 0 {
		t.Fatalf("skipped = %v, want none", skipped)
	}

	last := aiLogs.entries[len(aiLogs.entries)-1]
	if last.CallType != "feedback_parse" || last.PlanID == nil {
		t.Fatalf("ai call log = %+v", last)
	}
}

func TestAdjustPlanStaleVersionConflicts(t *testing.T) {
	userID := uuid.New()
	fake := &fakeCompletion{jsonResp: map[string]any{
		"meals": []any{mealJSON("Oat bowl", 800)},
	}}
	svc, plans, _ := newNutritionFixture(t, fake, userID)
	ctx := context.Background()

	if _, err := svc.GeneratePlan(ctx, userID); err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if _, err := svc.GeneratePlan(ctx, userID); err != nil {
		t.Fatalf("GeneratePlan v2: %v", err)
	}

	_, _, err := svc.AdjustPlanFromFeedback(ctx, userID, "anything", 1)
	if err == nil {
		t.Fatal("expected conflict for stale expected version")
	}
	if !apierr.Is(err, apierr.KindConflict) {
		t.Fatalf("error kind = %v, want conflict", err)
	}

	// Losing writer leaves the stored state alone.
	latest, gErr := plans.GetLatestByUserID(ctx, nil, userID)
	if gErr != nil {
		t.Fatalf("GetLatestByUserID: %v", gErr)
	}
	if latest.Version != 2 {
		t.Fatalf("latest version = %d, want unchanged 2", latest.Version)
	}
}

func TestAdjustPlanRequiresExistingPlan(t *testing.T) {
	userID := uuid.New()
	svc, _, _ := newNutritionFixture(t, &fakeCompletion{}, userID)

	_, _, err := svc.AdjustPlanFromFeedback(context.Background(), userID, "anything", 1)
	if !apierr.Is(err, apierr.KindValidation) {
		t.Fatalf("error kind = %v, want validation", err)
	}
}
